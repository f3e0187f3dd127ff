package femesh

import (
	"testing"

	"github.com/chazu/fegraphics/pkg/field"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGrid(t *testing.T, counts ...int) (*Region, *NodalField) {
	t.Helper()
	r, err := NewRegion("test", WithEvaluationCache(1024))
	require.NoError(t, err)
	t.Cleanup(r.Close)
	coords, err := r.Grid(counts...)
	require.NoError(t, err)
	return r, coords
}

func TestGridSizes(t *testing.T) {
	tests := []struct {
		counts              []int
		nodes               int
		sizes               [4]int
		exterior1, exterior2 int
	}{
		{[]int{3}, 4, [4]int{0, 3, 0, 0}, 0, 0},
		{[]int{2, 2}, 9, [4]int{0, 12, 4, 0}, 8, 0},
		{[]int{1, 1, 1}, 8, [4]int{0, 12, 6, 1}, 12, 6},
		{[]int{2, 2, 2}, 27, [4]int{0, 54, 36, 8}, 48, 24},
	}
	for _, tt := range tests {
		r, _ := newGrid(t, tt.counts...)
		assert.Equal(t, tt.nodes, r.Nodes().Size())
		assert.Equal(t, len(tt.counts), r.HighestDimension())
		for d := 1; d <= 3; d++ {
			assert.Equal(t, tt.sizes[d], r.Mesh(d).Size(), "counts %v dimension %d", tt.counts, d)
		}
		assert.Equal(t, tt.exterior1, countExterior(r.Mesh(1)), "counts %v lines", tt.counts)
		assert.Equal(t, tt.exterior2, countExterior(r.Mesh(2)), "counts %v faces", tt.counts)
	}
}

func countExterior(m *Mesh) int {
	n := 0
	for _, e := range m.elements {
		if e.IsExterior() {
			n++
		}
	}
	return n
}

func TestEvaluateInterpolates(t *testing.T) {
	r, coords := newGrid(t, 2, 2)
	c := r.NewCache()

	require.NoError(t, c.SetElement(r.Mesh(2).Find(1), []float64{0.5, 0.5}))
	v, err := c.Evaluate(coords)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.25}, v, 1e-12)

	require.NoError(t, c.SetElement(r.Mesh(2).Find(4), []float64{1, 0}))
	v, err = c.Evaluate(coords)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 0.5}, v, 1e-12)

	require.NoError(t, c.SetNode(r.Nodes().Find(9)))
	v, err = c.Evaluate(coords)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 1}, v)

	c.ClearLocation()
	_, err = c.Evaluate(coords)
	require.ErrorIs(t, err, field.ErrNotDefined)

	require.ErrorIs(t, c.SetElement(r.Mesh(2).Find(1), []float64{0.5}), ErrInvalidArgument)
}

func TestFacesShareParametrisation(t *testing.T) {
	r, coords := newGrid(t, 1, 1, 1)
	c := r.NewCache()
	cube := r.Mesh(3).Find(1)
	for fn := 0; fn < 6; fn++ {
		face := cube.Face(fn)
		require.NotNil(t, face)
		assert.True(t, face.IsOnFace(field.FaceType(int(field.FaceXi1_0)+fn)))

		xi := []float64{0.25, 0.75}
		require.NoError(t, c.SetElement(face, xi))
		onFace, err := c.Evaluate(coords)
		require.NoError(t, err)
		require.NoError(t, c.SetElement(cube, faceXi(3, fn, xi)))
		inCube, err := c.Evaluate(coords)
		require.NoError(t, err)
		assert.InDeltaSlice(t, inCube, onFace, 1e-12, "face %d", fn)
	}
}

func TestFaceTypes(t *testing.T) {
	r, _ := newGrid(t, 1, 1)
	square := r.Mesh(2).Find(1)
	left := square.Face(0)
	assert.True(t, left.IsOnFace(field.FaceXi1_0))
	assert.False(t, left.IsOnFace(field.FaceXi1_1))
	assert.True(t, left.IsOnFace(field.FaceAny))
	assert.False(t, left.IsOnFace(field.FaceNone))
	assert.True(t, square.IsOnFace(field.FaceNone))
	assert.False(t, square.IsExterior())

	r3, _ := newGrid(t, 1, 1, 1)
	// Line along xi3 at xi1=0, xi2=0 lies on both the xi1_0 and xi2_0 faces.
	var edge *Element
	for _, e := range r3.Mesh(1).elements {
		if e.IsOnFace(field.FaceXi1_0) && e.IsOnFace(field.FaceXi2_0) {
			edge = e
		}
	}
	require.NotNil(t, edge)
	assert.False(t, edge.IsOnFace(field.FaceXi3_1))
}

func TestNeighbour(t *testing.T) {
	r, _ := newGrid(t, 2, 1)
	m := r.Mesh(2)
	n, face := m.Neighbour(m.Find(1), 1)
	require.NotNil(t, n)
	assert.Equal(t, 2, n.Identifier())
	assert.Equal(t, 0, face)

	n, _ = m.Neighbour(m.Find(1), 0)
	assert.Nil(t, n)
}

func TestTopology(t *testing.T) {
	r, _ := newGrid(t, 2, 1)
	// Node 2 is the middle bottom node shared by both squares.
	assert.Equal(t, []int{1, 2}, r.ElementsUsingNodes(2, []int{2}))
	lines := r.FacesOf(1, 2, []int{1})
	assert.Len(t, lines, 4)
	assert.Len(t, r.FacesOf(1, 2, []int{1, 2}), 7)
	assert.Nil(t, r.FacesOf(2, 2, []int{1}))
}

func TestChangeEvents(t *testing.T) {
	r, coords := newGrid(t, 2, 2)
	var events []*field.Event
	r.AddListener(func(ev *field.Event) { events = append(events, ev) })

	require.NoError(t, coords.SetNodeValues(r.Nodes().Find(5), 0.5, 0.6))
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, field.ChangePartialResult, ev.FieldChange(coords))
	assert.Equal(t, []int{5}, ev.NodeLog(field.DomainNodes).Identifiers(field.ChangeNone))

	ev.PropagateToDimension(r, 2)
	assert.Equal(t, []int{1, 2, 3, 4}, ev.ElementLog(2).Identifiers(field.ChangeResult))

	r.BeginChange()
	require.NoError(t, coords.SetNodeValues(r.Nodes().Find(1), 0, 0))
	require.NoError(t, coords.SetNodeValues(r.Nodes().Find(2), 0.5, 0))
	assert.Len(t, events, 1, "deferred until EndChange")
	r.EndChange()
	require.Len(t, events, 2)
	assert.Equal(t, 2, events[1].NodeLog(field.DomainNodes).Count())

	mag, err := r.NewMagnitudeField("magnitude", coords)
	require.NoError(t, err)
	require.NoError(t, coords.Transform(func(_ *Node, v []float64) []float64 { return []float64{v[0] * 2, v[1]} }))
	assert.Equal(t, field.ChangeFullResult, events[2].FieldChange(coords))
	assert.Equal(t, field.ChangeFullResult, events[2].FieldChange(mag), "dependents follow their source")
}

func TestGroupsAndSelection(t *testing.T) {
	r, _ := newGrid(t, 2, 2)
	var events []*field.Event
	r.AddListener(func(ev *field.Event) { events = append(events, ev) })

	g, err := r.NewGroup("left")
	require.NoError(t, err)
	g.AddElements(r.Mesh(2).Find(1), r.Mesh(2).Find(3))
	require.Len(t, events, 1)
	assert.Equal(t, field.ChangeFullResult, events[0].FieldChange(g))

	gm := r.ElementGroupMesh(g, r.Mesh(2))
	require.NotNil(t, gm)
	assert.Equal(t, 2, gm.Size())
	assert.Same(t, r.Mesh(2), gm.Master())
	assert.Equal(t, 3, gm.ElementAt(1).Identifier())
	assert.Nil(t, gm.FindElementByIdentifier(2))

	lines := r.ElementGroupMesh(g, r.Mesh(1))
	require.NotNil(t, lines, "faces join with their parents")
	assert.Equal(t, 7, lines.Size())
	assert.Nil(t, r.NodeGroupNodeset(g, r.Nodes()))

	c := r.NewCache()
	require.NoError(t, c.SetElement(r.Mesh(2).Find(2), []float64{0.5, 0.5}))
	assert.False(t, field.EvaluateBool(c, g))
	require.NoError(t, c.SetElement(r.Mesh(2).Find(3), []float64{0.5, 0.5}))
	assert.True(t, field.EvaluateBool(c, g))

	assert.Nil(t, r.SelectionGroup())
	r.Selection().AddElements(r.Mesh(2).Find(4))
	require.Len(t, events, 2)
	assert.True(t, events[1].SelectionChanged())
	assert.False(t, events[1].HasFieldOrMeshChanges())
	assert.NotNil(t, r.SelectionGroup())

	r.Selection().AddElements(r.Mesh(2).Find(4))
	assert.Len(t, events, 2, "no-op membership change")
}

func TestRemoveAndRenumber(t *testing.T) {
	r, _ := newGrid(t, 2, 1)
	var events []*field.Event
	r.AddListener(func(ev *field.Event) { events = append(events, ev) })

	second := r.Mesh(2).Find(2)
	shared := second.Face(0)
	require.False(t, shared.IsExterior())
	require.NoError(t, r.RemoveElement(second))
	assert.Equal(t, 1, r.Mesh(2).Size())
	assert.True(t, shared.IsExterior())
	require.Len(t, events, 1)
	assert.Equal(t, field.ChangeRemove, events[0].ElementLog(2).Flags(2))
	assert.True(t, events[0].ElementLog(1).Flags(shared.Identifier()).Has(field.ChangePartialResult))
	require.ErrorIs(t, r.RemoveElement(second), ErrInvalidArgument)

	first := r.Mesh(2).Find(1)
	require.NoError(t, r.SetElementIdentifier(first, 10))
	assert.Same(t, first, r.Mesh(2).Find(10))
	assert.True(t, events[1].ElementLog(2).Flags(10).Has(field.ChangeIdentifier))

	n := r.Nodes().Find(1)
	require.ErrorIs(t, r.SetNodeIdentifier(n, 2), ErrDuplicateIdentifier)
	require.NoError(t, r.SetNodeIdentifier(n, 100))
	assert.Same(t, n, r.Nodes().Find(100))
}

func TestFieldKinds(t *testing.T) {
	r, coords := newGrid(t, 1)
	c := r.NewCache()
	e := r.Mesh(1).Find(1)
	node := r.Nodes().Find(2)

	k, err := r.NewConstantField("k", 1, 2, 3)
	require.NoError(t, err)
	v, err := c.Evaluate(k)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, v)

	id, err := r.NewIdentifierField("cmiss_number")
	require.NoError(t, err)
	require.NoError(t, c.SetNode(node))
	s, err := c.EvaluateString(id)
	require.NoError(t, err)
	assert.Equal(t, "2", s)

	label, err := r.NewStringField("label")
	require.NoError(t, err)
	label.SetNodeString(node, "tip")
	s, err = c.EvaluateString(label)
	require.NoError(t, err)
	assert.Equal(t, "tip", s)

	loc, err := r.NewMeshLocationField("host")
	require.NoError(t, err)
	require.NoError(t, loc.SetNodeLocation(node, e, 0.3))
	got, xi, err := c.EvaluateMeshLocation(loc)
	require.NoError(t, err)
	assert.Same(t, e, got)
	assert.Equal(t, []float64{0.3}, xi)
	_, _, err = c.EvaluateMeshLocation(coords)
	require.ErrorIs(t, err, ErrInvalidArgument)

	sq, err := r.NewFunctionField("squared", 1, func(_ float64, args [][]float64) ([]float64, error) {
		return []float64{args[0][0] * args[0][0]}, nil
	}, coords)
	require.NoError(t, err)
	sq.SetNonLinear(true)
	assert.True(t, field.IsNonLinear(sq))
	assert.False(t, field.IsTimeDependent(sq))
	require.NoError(t, c.SetElement(e, []float64{0.5}))
	v, err = c.Evaluate(sq)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, v[0], 1e-12)

	_, err = r.NewNodalField("coordinates", 3)
	require.ErrorIs(t, err, ErrInvalidArgument, "duplicate name")
	assert.Equal(t, []string{"cmiss_number", "coordinates", "host", "k", "label", "squared"}, r.FieldNames())
}

func TestMemoInvalidatedByChange(t *testing.T) {
	r, coords := newGrid(t, 1)
	c := r.NewCache()
	e := r.Mesh(1).Find(1)
	require.NoError(t, c.SetElement(e, []float64{0.5}))
	before, err := c.Evaluate(coords)
	require.NoError(t, err)
	r.memo.Wait()
	again, err := c.Evaluate(coords)
	require.NoError(t, err)
	assert.Equal(t, before, again)

	require.NoError(t, coords.SetNodeValues(r.Nodes().Find(2), 3))
	after, err := c.Evaluate(coords)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, after[0], 1e-12)
}

func TestParseGrid(t *testing.T) {
	tests := []struct {
		in   string
		want []int
		ok   bool
	}{
		{"cube:4", []int{4, 4, 4}, true},
		{"square:3x2", []int{3, 2}, true},
		{"line", []int{1}, true},
		{"cube:2x2", nil, false},
		{"torus:3", nil, false},
		{"square:0", nil, false},
	}
	for _, tt := range tests {
		got, err := ParseGrid(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("ParseGrid(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}
