package change

import (
	"testing"

	"github.com/chazu/fegraphics/pkg/femesh"
	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture is a 2x2 square grid: nodes 1-9 with x fastest, 2D elements 1-4,
// 12 lines. Node 1 is used by element 1 only, node 2 by elements 1 and 2,
// node 5 by all four.
type fixture struct {
	region *femesh.Region
	coords *femesh.NodalField
	arena  *gobject.Arena
	events []*field.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r, err := femesh.NewRegion("test")
	require.NoError(t, err)
	t.Cleanup(r.Close)
	coords, err := r.Grid(2, 2)
	require.NoError(t, err)
	f := &fixture{region: r, coords: coords, arena: gobject.NewArena()}
	r.AddListener(func(ev *field.Event) { f.events = append(f.events, ev) })
	return f
}

// built returns a graphics of type typ on domain that looks fully built.
func (f *fixture) built(t *testing.T, typ graphics.Type, domain field.DomainType) *graphics.Graphics {
	t.Helper()
	g, err := graphics.New(typ, f.arena)
	require.NoError(t, err)
	require.NoError(t, g.SetDomain(domain))
	require.NoError(t, g.SetCoordinateField(f.coords))
	g.EnsureObject(gobject.KindPolyline)
	g.MarkBuilt()
	g.TakeChange()
	return g
}

// last returns the most recent event, failing if none was sent.
func (f *fixture) last(t *testing.T) *field.Event {
	t.Helper()
	require.NotEmpty(t, f.events)
	return f.events[len(f.events)-1]
}

func (f *fixture) moveNode(t *testing.T, id int) {
	t.Helper()
	n := f.region.Nodes().Find(id)
	require.NotNil(t, n)
	v, ok := f.coords.NodeValues(n)
	require.True(t, ok)
	require.NoError(t, f.coords.SetNodeValues(n, v[0]+0.01, v[1]))
}

func TestFullRebuildThenNoOpIsNone(t *testing.T) {
	f := newFixture(t)
	g := f.built(t, graphics.TypeSurfaces, field.DomainMesh2D)
	c := NewClassifier(f.region)

	g.SetExterior(true)
	require.Equal(t, graphics.ChangeFullRebuild, g.TakeChange())
	assert.Equal(t, graphics.ChangeNone, c.Classify(g, field.NewEvent()).Change)

	g.EnsureObject(gobject.KindSurface)
	assert.Equal(t, graphics.ChangeNone, c.Classify(g, field.NewEvent()).Change)
	assert.Equal(t, graphics.ChangeNone, c.Classify(g, nil).Change)
}

func TestPartialRebuildCarriesElements(t *testing.T) {
	f := newFixture(t)
	g := f.built(t, graphics.TypeSurfaces, field.DomainMesh2D)
	c := NewClassifier(f.region)

	f.moveNode(t, 1)
	res := c.Classify(g, f.last(t))
	assert.Equal(t, graphics.ChangePartialRebuild, res.Change)
	assert.Equal(t, []int{1}, res.Identifiers)

	// Exactly half of the elements is still partial.
	f.moveNode(t, 2)
	res = c.Classify(g, f.last(t))
	assert.Equal(t, graphics.ChangePartialRebuild, res.Change)
	assert.Equal(t, []int{1, 2}, res.Identifiers)
}

func TestMostElementsChangedIsFull(t *testing.T) {
	f := newFixture(t)
	g := f.built(t, graphics.TypeSurfaces, field.DomainMesh2D)
	c := NewClassifier(f.region)

	f.moveNode(t, 5)
	ev := f.last(t)
	assert.Equal(t, field.ChangePartialResult, ev.FieldChange(f.coords))
	assert.Equal(t, graphics.ChangeFullRebuild, c.Classify(g, ev).Change)
}

func TestLinesInheritParentChanges(t *testing.T) {
	f := newFixture(t)
	g := f.built(t, graphics.TypeLines, field.DomainMesh1D)
	c := NewClassifier(f.region)

	f.moveNode(t, 1)
	res := c.Classify(g, f.last(t))
	require.Equal(t, graphics.ChangePartialRebuild, res.Change)
	// Two lines touch corner node 1.
	assert.Len(t, res.Identifiers, 2)
	assert.Nil(t, f.last(t).FindElementLog(1), "classification must not write to the event")
}

func TestStreamVectorChangeAlwaysFull(t *testing.T) {
	f := newFixture(t)
	vel, err := f.region.NewNodalField("velocity", 2)
	require.NoError(t, err)
	for id := 1; id <= 9; id++ {
		require.NoError(t, vel.SetNodeValues(f.region.Nodes().Find(id), 1, 0))
	}
	g := f.built(t, graphics.TypeStreamlines, field.DomainMesh2D)
	s, err := g.Streamlines()
	require.NoError(t, err)
	require.NoError(t, s.SetStreamVectorField(vel))
	g.TakeChange()
	g.EnsureObject(gobject.KindPolyline)
	c := NewClassifier(f.region)

	require.NoError(t, vel.SetNodeValues(f.region.Nodes().Find(1), 0, 1))
	ev := f.last(t)
	assert.Equal(t, field.ChangePartialResult, ev.FieldChange(vel))
	assert.Equal(t, graphics.ChangeFullRebuild, c.Classify(g, ev).Change)
}

func TestFieldDefinitionChangeIsFull(t *testing.T) {
	f := newFixture(t)
	g := f.built(t, graphics.TypeSurfaces, field.DomainMesh2D)
	c := NewClassifier(f.region)

	f.coords.SetCoordinateSystem(field.CylindricalPolar)
	assert.Equal(t, graphics.ChangeFullRebuild, c.Classify(g, f.last(t)).Change)
}

func TestUnreferencedFieldIgnored(t *testing.T) {
	f := newFixture(t)
	g := f.built(t, graphics.TypeSurfaces, field.DomainMesh2D)
	c := NewClassifier(f.region)

	temp, err := f.region.NewNodalField("temperature", 1)
	require.NoError(t, err)
	require.NoError(t, temp.SetNodeValues(f.region.Nodes().Find(5), 37))
	assert.Equal(t, graphics.ChangeNone, c.Classify(g, f.last(t)).Change)

	require.NoError(t, g.SetDataField(temp))
	g.TakeChange()
	g.EnsureObject(gobject.KindSurface)
	require.NoError(t, temp.SetNodeValues(f.region.Nodes().Find(1), 40))
	assert.Equal(t, graphics.ChangePartialRebuild, c.Classify(g, f.last(t)).Change)
}

func TestNodeDomainsRebuildWholesale(t *testing.T) {
	f := newFixture(t)
	g := f.built(t, graphics.TypePoints, field.DomainNodes)
	c := NewClassifier(f.region)

	f.moveNode(t, 1)
	assert.Equal(t, graphics.ChangeFullRebuild, c.Classify(g, f.last(t)).Change)

	_, err := f.region.CreateNode(field.DomainNodes, 100)
	require.NoError(t, err)
	assert.Equal(t, graphics.ChangeFullRebuild, c.Classify(g, f.last(t)).Change)

	require.NoError(t, f.region.SetNodeIdentifier(f.region.Nodes().Find(100), 101))
	assert.Equal(t, graphics.ChangeFullRebuild, c.Classify(g, f.last(t)).Change)

	_, err = f.region.CreateNode(field.DomainDatapoints, 1)
	require.NoError(t, err)
	assert.Equal(t, graphics.ChangeNone, c.Classify(g, f.last(t)).Change, "datapoints are another domain")
}

func TestPointDomainAnyFieldChangeIsFull(t *testing.T) {
	f := newFixture(t)
	g := f.built(t, graphics.TypePoints, field.DomainPoint)
	c := NewClassifier(f.region)

	f.moveNode(t, 3)
	assert.Equal(t, graphics.ChangeFullRebuild, c.Classify(g, f.last(t)).Change)
}

func TestElementRemovalIsPartial(t *testing.T) {
	f := newFixture(t)
	surfaces := f.built(t, graphics.TypeSurfaces, field.DomainMesh2D)
	lines := f.built(t, graphics.TypeLines, field.DomainMesh1D)
	c := NewClassifier(f.region)

	e := f.region.Mesh(2).Find(1)
	require.NotNil(t, e)
	var faces []int
	for i := 0; i < 4; i++ {
		faces = append(faces, e.Face(i).Identifier())
	}
	require.NoError(t, f.region.RemoveElement(e))
	ev := f.last(t)

	res := c.Classify(surfaces, ev)
	assert.Equal(t, graphics.ChangePartialRebuild, res.Change)
	assert.Equal(t, []int{1}, res.Identifiers)

	res = c.Classify(lines, ev)
	assert.Equal(t, graphics.ChangePartialRebuild, res.Change)
	assert.ElementsMatch(t, faces, res.Identifiers)
}

func TestRenumberedElementIsFull(t *testing.T) {
	f := newFixture(t)
	g := f.built(t, graphics.TypeSurfaces, field.DomainMesh2D)
	c := NewClassifier(f.region)

	require.NoError(t, f.region.SetElementIdentifier(f.region.Mesh(2).Find(4), 40))
	assert.Equal(t, graphics.ChangeFullRebuild, c.Classify(g, f.last(t)).Change)
}

func TestSelectionByMode(t *testing.T) {
	f := newFixture(t)
	c := NewClassifier(f.region)
	sel := f.region.Selection()
	e := f.region.Mesh(2).Find(2)

	tests := []struct {
		mode graphics.SelectMode
		want graphics.Change
	}{
		{graphics.SelectOn, graphics.ChangeSelection},
		{graphics.SelectOff, graphics.ChangeNone},
		{graphics.SelectDrawSelected, graphics.ChangeFullRebuild},
		{graphics.SelectDrawUnselected, graphics.ChangeFullRebuild},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			g := f.built(t, graphics.TypeSurfaces, field.DomainMesh2D)
			require.NoError(t, g.SetSelectMode(tt.mode))
			g.TakeChange()
			g.EnsureObject(gobject.KindSurface)

			if sel.IsEmpty() {
				sel.AddElements(e)
			} else {
				sel.Clear()
			}
			ev := f.last(t)
			require.True(t, ev.SelectionChanged())
			assert.Equal(t, tt.want, c.Classify(g, ev).Change)
		})
	}
}

func TestSelectionSubgroupIsFull(t *testing.T) {
	f := newFixture(t)
	c := NewClassifier(f.region)
	sel := f.region.Selection()
	g := f.built(t, graphics.TypeSurfaces, field.DomainMesh2D)
	require.NoError(t, g.SetSubgroupField(sel))
	g.TakeChange()
	g.EnsureObject(gobject.KindSurface)

	sel.AddElements(f.region.Mesh(2).Find(3))
	assert.Equal(t, graphics.ChangeFullRebuild, c.Classify(g, f.last(t)).Change)
}

func TestApplyPartialDropsPrimitives(t *testing.T) {
	f := newFixture(t)
	g := f.built(t, graphics.TypeLines, field.DomainMesh1D)
	obj := g.Object()
	for name := 1; name <= 3; name++ {
		x := float64(name)
		require.NoError(t, obj.Append(name, gobject.Polyline([]gobject.Vertex{
			{Position: [3]float64{x, 0, 0}},
			{Position: [3]float64{x, 1, 0}},
		})))
	}
	g.SetResumeIndex(2)

	dropped := Apply(g, Result{Change: graphics.ChangePartialRebuild, Identifiers: []int{2, 7}})
	assert.Equal(t, 1, dropped)
	assert.Equal(t, []int{1, 3}, obj.Names())
	assert.True(t, g.GraphicsChanged())
	assert.Equal(t, 0, g.ResumeIndex())
	assert.Same(t, obj, g.Object())

	assert.Equal(t, 0, Apply(g, full("test")))
	assert.False(t, g.HasObject())
}
