package build

import (
	"testing"

	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// streamlines returns streamlines on the 2x2 grid following a uniform flow
// of the given velocity.
func (f *fixture) streamlines(t *testing.T, vx, vy float64) (*graphics.Graphics, graphics.Streamlines) {
	t.Helper()
	flow, err := f.region.NewConstantField("flow "+t.Name(), vx, vy)
	require.NoError(t, err)
	g := f.graphics(t, graphics.TypeStreamlines, field.DomainMesh2D)
	s, err := g.Streamlines()
	require.NoError(t, err)
	require.NoError(t, s.SetStreamVectorField(flow))
	return g, s
}

// seedAt seeds a single streamline at xi in element id.
func (f *fixture) seedAt(t *testing.T, g *graphics.Graphics, s graphics.Streamlines, id int, xi ...float64) {
	t.Helper()
	s.SetSeedElement(f.region.Mesh(2).Find(id))
	sa, err := g.SamplingAttributes()
	require.NoError(t, err)
	require.NoError(t, sa.SetLocation(xi))
}

func trace(obj *gobject.Object) (xs, ys []float64) {
	for i := 0; i < obj.VertexCount(); i++ {
		p := position(obj, i)
		xs = append(xs, p.X)
		ys = append(ys, p.Y)
	}
	return xs, ys
}

func TestStreamlineFollowsFlowAcrossElements(t *testing.T) {
	f := newFixture(t, 2, 2)
	g, s := f.streamlines(t, 1, 0)
	f.seedAt(t, g, s, 1, 0.5, 0.5)
	require.NoError(t, s.SetTrackLength(0.6))

	require.NoError(t, f.b.Build(g))
	obj := g.Object()
	assert.Equal(t, gobject.KindPolyline, obj.Kind)
	assert.Equal(t, []int{1}, obj.Names())
	require.GreaterOrEqual(t, obj.SegmentCount(), 4)

	xs, ys := trace(obj)
	assert.InDelta(t, 0.25, xs[0], 1e-6)
	for i := range ys {
		assert.InDelta(t, 0.25, ys[i], 1e-6)
		if i > 0 {
			assert.GreaterOrEqual(t, xs[i], xs[i-1])
		}
	}
	last := xs[len(xs)-1]
	assert.GreaterOrEqual(t, last, 0.85-1e-6)
	assert.LessOrEqual(t, last, 1+1e-6)
}

func TestStreamlineStopsAtBoundary(t *testing.T) {
	f := newFixture(t, 2, 2)
	g, s := f.streamlines(t, 1, 0)
	f.seedAt(t, g, s, 1, 0.5, 0.5)
	require.NoError(t, s.SetTrackLength(10))

	require.NoError(t, f.b.Build(g))
	xs, _ := trace(g.Object())
	assert.InDelta(t, 1, xs[len(xs)-1], 1e-6)
}

func TestStreamlineReverse(t *testing.T) {
	f := newFixture(t, 2, 2)
	g, s := f.streamlines(t, 1, 0)
	f.seedAt(t, g, s, 2, 0.5, 0.5)
	require.NoError(t, s.SetTrackLength(10))
	require.NoError(t, s.SetTrackDirection(graphics.TrackReverse))

	require.NoError(t, f.b.Build(g))
	xs, _ := trace(g.Object())
	assert.InDelta(t, 0.75, xs[0], 1e-6)
	assert.InDelta(t, 0, xs[len(xs)-1], 1e-6)
}

func TestStreamlineColourData(t *testing.T) {
	f := newFixture(t, 2, 2)

	t.Run("travel time", func(t *testing.T) {
		g, s := f.streamlines(t, 2, 0)
		f.seedAt(t, g, s, 1, 0.5, 0.5)
		require.NoError(t, s.SetTrackLength(10))
		require.NoError(t, s.SetColourData(graphics.ColourDataTravelTime))

		require.NoError(t, f.b.Build(g))
		obj := g.Object()
		require.Equal(t, 1, obj.DataComponents)
		require.Len(t, obj.Data, obj.VertexCount())
		assert.Zero(t, obj.Data[0])
		// 0.75 travelled at speed 2.
		assert.InDelta(t, 0.375, obj.Data[len(obj.Data)-1], 1e-5)
	})

	t.Run("magnitude", func(t *testing.T) {
		g, s := f.streamlines(t, 0, 3)
		f.seedAt(t, g, s, 1, 0.5, 0.5)
		require.NoError(t, s.SetColourData(graphics.ColourDataMagnitude))

		require.NoError(t, f.b.Build(g))
		obj := g.Object()
		require.NotEmpty(t, obj.Data)
		for _, d := range obj.Data {
			assert.InDelta(t, 3, d, 1e-6)
		}
	})
}

func TestStreamlinesFromEveryElement(t *testing.T) {
	f := newFixture(t, 2, 2)
	g, s := f.streamlines(t, 1, 0)
	require.NoError(t, s.SetTrackLength(10))

	require.NoError(t, f.b.Build(g))
	assert.Equal(t, []int{1, 2, 3, 4}, g.Object().Names())
}

func TestStreamlinesFromSeedNodes(t *testing.T) {
	f := newFixture(t, 2, 2)
	g, s := f.streamlines(t, 1, 0)
	n, err := f.region.CreateNode(field.DomainDatapoints, 7)
	require.NoError(t, err)
	loc, err := f.region.NewMeshLocationField("seed")
	require.NoError(t, err)
	require.NoError(t, loc.SetNodeLocation(n, f.region.Mesh(2).Find(3), 0.5, 0.5))
	s.SetSeedNodeset(f.region.Datapoints())
	require.NoError(t, s.SetSeedMeshLocationField(loc))

	require.NoError(t, f.b.Build(g))
	obj := g.Object()
	assert.Equal(t, []int{7}, obj.Names())
	xs, ys := trace(obj)
	assert.InDelta(t, 0.25, xs[0], 1e-6)
	assert.InDelta(t, 0.75, ys[0], 1e-6)
}

func TestStagnantFlowDrawsNothing(t *testing.T) {
	f := newFixture(t, 2, 2)
	g, s := f.streamlines(t, 0, 0)
	f.seedAt(t, g, s, 1, 0.5, 0.5)

	require.NoError(t, f.b.Build(g))
	assert.True(t, g.Object().IsEmpty())
}

func TestCrossFaces(t *testing.T) {
	f := newFixture(t, 2, 2)
	mesh := f.region.FindMeshByDimension(2)
	e1 := f.region.Mesh(2).Find(1)

	e, xi, inside := crossFaces(mesh, e1, []float64{1.2, 0.5})
	require.True(t, inside)
	assert.Equal(t, 2, e.Identifier())
	assert.InDeltaSlice(t, []float64{0.2, 0.5}, xi, 1e-12)

	e, xi, inside = crossFaces(mesh, e1, []float64{0.5, -0.1})
	assert.False(t, inside)
	assert.Equal(t, 1, e.Identifier())
	assert.InDeltaSlice(t, []float64{0.5, 0}, xi, 1e-12)
}

func TestSolve(t *testing.T) {
	x, ok := solve([][]float64{{2, 1, 5}, {1, 3, 10}})
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{1, 3}, x, 1e-12)

	_, ok = solve([][]float64{{1, 2, 1}, {2, 4, 2}})
	assert.False(t, ok)
}
