package gobject

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(x0, x1 float64) Part {
	return Polyline([]Vertex{
		{Position: [3]float64{x0, 0, 0}},
		{Position: [3]float64{x1, 0, 0}},
	})
}

func TestObjectCounts(t *testing.T) {
	tests := []struct {
		name      string
		kind      Kind
		parts     []Part
		vertices  int
		triangles int
		segments  int
		empty     bool
	}{
		{name: "empty polyline", kind: KindPolyline, empty: true},
		{name: "two lines", kind: KindPolyline, parts: []Part{line(0, 1), line(1, 2)}, vertices: 4, segments: 2},
		{
			name: "one triangle",
			kind: KindSurface,
			parts: []Part{{
				Vertices: []Vertex{{}, {Position: [3]float64{1, 0, 0}}, {Position: [3]float64{0, 1, 0}}},
				Indices:  []int{0, 1, 2},
			}},
			vertices:  3,
			triangles: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New("test", tt.kind)
			for i, p := range tt.parts {
				require.NoError(t, o.Append(i+1, p))
			}
			assert.Equal(t, tt.vertices, o.VertexCount())
			assert.Equal(t, tt.triangles, o.TriangleCount())
			assert.Equal(t, tt.segments, o.SegmentCount())
			assert.Equal(t, tt.empty, o.IsEmpty())
		})
	}
}

func TestAppendRejectsBadParts(t *testing.T) {
	o := New("s", KindSurface)
	err := o.Append(1, Part{Vertices: []Vertex{{}, {}}, Indices: []int{0, 1}})
	require.Error(t, err)

	err = o.Append(1, Part{Vertices: []Vertex{{}, {}, {}}, Indices: []int{0, 1, 5}})
	require.Error(t, err)

	o.DataComponents = 1
	err = o.Append(1, Part{Vertices: []Vertex{{}, {}, {}}, Indices: []int{0, 1, 2}})
	require.Error(t, err, "missing data values")

	g := New("g", KindGlyphSet)
	require.Error(t, g.Append(1, line(0, 1)))
}

func TestInvalidateNamesCompacts(t *testing.T) {
	o := New("lines", KindPolyline)
	o.DataComponents = 1
	mk := func(x float64) Part {
		return Polyline([]Vertex{
			{Position: [3]float64{x, 0, 0}, Data: []float64{x}},
			{Position: [3]float64{x + 1, 0, 0}, Data: []float64{x + 1}},
		})
	}
	require.NoError(t, o.Append(1, mk(0)))
	require.NoError(t, o.Append(2, mk(10)))
	require.NoError(t, o.Append(3, mk(20)))
	o.Compiled = true

	removed := o.InvalidateNames([]int{2, 99})
	assert.Equal(t, 1, removed)
	assert.False(t, o.Compiled)
	assert.False(t, o.HasPrimitive(2))

	want := New("lines", KindPolyline)
	want.DataComponents = 1
	require.NoError(t, want.Append(1, mk(0)))
	require.NoError(t, want.Append(3, mk(20)))
	if diff := cmp.Diff(want.Positions, o.Positions); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Indices, o.Indices); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Data, o.Data); diff != "" {
		t.Errorf("data mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{1, 3}, o.Names())
}

func TestVisitedSurvivesUntilInvalidated(t *testing.T) {
	o := New("contours", KindSurface)
	o.MarkVisited(4)
	require.NoError(t, o.Append(5, Polyline([]Vertex{{}, {Position: [3]float64{1, 0, 0}}})))
	assert.True(t, o.Visited(4), "empty names stay visited")
	assert.True(t, o.Visited(5), "names with geometry are visited")
	assert.False(t, o.Visited(6))

	o.InvalidateNames([]int{4})
	assert.False(t, o.Visited(4))
	assert.True(t, o.Visited(5))

	o.MarkVisited(4)
	o.Reset()
	assert.False(t, o.Visited(4))
	assert.False(t, o.Visited(5))
}

func TestGlyphFinalAxes(t *testing.T) {
	o := New("points", KindGlyphSet)
	require.NoError(t, o.AppendGlyphs(7, []GlyphInstance{{
		Position: [3]float32{1, 2, 3},
		Axes:     [3][3]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Size:     [3]float32{2, 2, 2},
	}}))
	o.GlyphAttributes.BaseSize = [3]float64{1, 1, 1}
	o.GlyphAttributes.ScaleFactors = [3]float64{0.5, 0, 0}
	o.GlyphAttributes.Offset = [3]float64{1, 0, 0}

	origin, axes := o.FinalAxes(0)
	assert.Equal(t, [3]float64{2, 0, 0}, axes[0])
	assert.Equal(t, [3]float64{0, 1, 0}, axes[1])
	assert.Equal(t, [3]float64{3, 2, 3}, origin)
	assert.True(t, o.HasPrimitive(7))
}

func TestSelectedNames(t *testing.T) {
	o := New("s", KindSurface)
	o.SetSelectedNames([]int{5, 1, 3})
	assert.True(t, o.IsSelected(3))
	assert.False(t, o.IsSelected(2))
}

func TestArenaHandles(t *testing.T) {
	a := NewArena()
	var zero Handle
	assert.True(t, zero.IsZero())
	assert.Nil(t, a.Get(zero))

	h1 := a.New("one", KindSurface)
	h2 := a.New("two", KindPolyline)
	require.NotNil(t, a.Get(h1))
	assert.Equal(t, "two", a.Get(h2).Name)
	assert.Equal(t, 2, a.Live())

	a.Release(h1)
	assert.Nil(t, a.Get(h1))
	assert.Equal(t, 1, a.Live())

	h3 := a.New("three", KindGlyphSet)
	assert.Nil(t, a.Get(h1), "stale handle must not see the reused slot")
	assert.Equal(t, "three", a.Get(h3).Name)

	a.Release(h1)
	assert.Equal(t, 2, a.Live(), "releasing a stale handle is a no-op")
}
