package build

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/golang/geo/r3"
)

var unitAxes = [3]r3.Vector{{X: 1}, {Y: 1}, {Z: 1}}

// orientationScale decomposes an orientation-scale value into unit axes
// and sizes. No value gives the identity axes with zero size, a scalar
// scales all axes, one vector (2 or 3 values) sets the first axis and all
// sizes, and two or three vectors (4, 6 or 9 values) set one axis each.
func orientationScale(v []float64) (axes [3]r3.Vector, size [3]float64) {
	axes = unitAxes
	var vecs []r3.Vector
	switch len(v) {
	case 0:
		return axes, size
	case 1:
		return axes, [3]float64{v[0], v[0], v[0]}
	case 2:
		vecs = []r3.Vector{{X: v[0], Y: v[1]}}
	case 3:
		vecs = []r3.Vector{{X: v[0], Y: v[1], Z: v[2]}}
	case 4:
		vecs = []r3.Vector{{X: v[0], Y: v[1]}, {X: v[2], Y: v[3]}}
	case 6:
		vecs = []r3.Vector{{X: v[0], Y: v[1], Z: v[2]}, {X: v[3], Y: v[4], Z: v[5]}}
	case 9:
		vecs = []r3.Vector{{X: v[0], Y: v[1], Z: v[2]}, {X: v[3], Y: v[4], Z: v[5]}, {X: v[6], Y: v[7], Z: v[8]}}
	default:
		return axes, size
	}
	switch len(vecs) {
	case 1:
		m := vecs[0].Norm()
		axes[0] = unitOr(vecs[0], unitAxes[0])
		if len(v) == 2 {
			axes[1] = unitOr(r3.Vector{X: -axes[0].Y, Y: axes[0].X}, unitAxes[1])
		} else {
			axes[1] = axes[0].Ortho()
		}
		axes[2] = axes[0].Cross(axes[1])
		size = [3]float64{m, m, m}
	case 2:
		third := vecs[0].Cross(vecs[1])
		axes[0] = unitOr(vecs[0], unitAxes[0])
		axes[1] = unitOr(vecs[1], unitAxes[1])
		axes[2] = unitOr(third, axes[0].Cross(axes[1]))
		size = [3]float64{vecs[0].Norm(), vecs[1].Norm(), third.Norm()}
	case 3:
		for k := range vecs {
			axes[k] = unitOr(vecs[k], unitAxes[k])
			size[k] = vecs[k].Norm()
		}
	}
	return axes, size
}

// glyph builds the glyph instance for the current cache location.
func (c *context) glyph(pa graphics.PointAttributes) (gobject.GlyphInstance, error) {
	p, err := c.position()
	if err != nil {
		return gobject.GlyphInstance{}, err
	}
	axes, size := orientationScale(c.values(pa.OrientationScaleField()))
	if f := pa.SignedScaleField(); f != nil {
		s := c.values(f)
		for k := range size {
			size[k] *= s[min(k, len(s)-1)]
		}
	}
	gi := gobject.GlyphInstance{
		Position: [3]float32{float32(p.X), float32(p.Y), float32(p.Z)},
		Size:     [3]float32{float32(size[0]), float32(size[1]), float32(size[2])},
		Data:     f32s(c.values(c.g.DataField())),
	}
	for k, a := range axes {
		gi.Axes[k] = [3]float32{float32(a.X), float32(a.Y), float32(a.Z)}
	}
	if f := pa.LabelField(); f != nil {
		if s, err := c.cache.EvaluateString(f); err == nil {
			gi.Label = s
		}
	}
	return gi, nil
}

// pointDomain places one glyph at the coordinate field's value with no
// location, or at the origin.
func (c *context) pointDomain() (StepResult, error) {
	pa, err := c.g.PointAttributes()
	if err != nil {
		return StepResult{}, err
	}
	c.cache.ClearLocation()
	gi, err := c.glyph(pa)
	if err != nil {
		return StepResult{}, err
	}
	if err := c.obj.AppendGlyphs(1, []gobject.GlyphInstance{gi}); err != nil {
		return StepResult{}, err
	}
	return StepResult{Status: Done, Elements: 1}, nil
}

// nodes builds one glyph per node in a single pass; the whole nodeset
// shares one buffer, so it is never built piecemeal.
func (c *context) nodes() (StepResult, error) {
	pa, err := c.g.PointAttributes()
	if err != nil {
		return StepResult{}, err
	}
	ns := c.b.module.FindNodeset(c.g.Domain())
	if ns == nil {
		return StepResult{Status: Done}, nil
	}
	if sg := c.g.SubgroupField(); sg != nil {
		if gn := c.b.module.NodeGroupNodeset(sg, ns); gn != nil {
			ns = gn
		}
	}
	done := 0
	for i := 0; i < ns.Size(); i++ {
		n := ns.NodeAt(i)
		if n == nil || c.obj.Visited(n.Identifier()) {
			continue
		}
		if !c.includeNode(n) {
			c.obj.MarkVisited(n.Identifier())
			continue
		}
		if err := c.cache.SetNode(n); err != nil {
			return StepResult{}, err
		}
		gi, err := c.glyph(pa)
		if errors.Is(err, field.ErrNotDefined) {
			c.obj.MarkVisited(n.Identifier())
			continue
		}
		if err != nil {
			return StepResult{}, err
		}
		if err := c.obj.AppendGlyphs(n.Identifier(), []gobject.GlyphInstance{gi}); err != nil {
			return StepResult{}, err
		}
		c.obj.MarkVisited(n.Identifier())
		done++
	}
	return StepResult{Status: Done, Elements: done}, nil
}

// elementPoints places glyphs at the sample points of e.
func (c *context) elementPoints(e field.Element) error {
	pa, err := c.g.PointAttributes()
	if err != nil {
		return err
	}
	sa, err := c.g.SamplingAttributes()
	if err != nil {
		return err
	}
	samples, err := c.samples(e, sa)
	if err != nil {
		return err
	}
	glyphs := make([]gobject.GlyphInstance, 0, len(samples))
	for _, xi := range samples {
		if err := c.cache.SetElement(e, xi); err != nil {
			return err
		}
		gi, err := c.glyph(pa)
		if err != nil {
			return err
		}
		glyphs = append(glyphs, gi)
	}
	return c.obj.AppendGlyphs(e.Identifier(), glyphs)
}

// samples returns the xi of the sample points of e: the centres or corners
// of its tessellation cells, a Poisson distribution over the cells, or a
// single fixed location.
func (c *context) samples(e field.Element, sa graphics.SamplingAttributes) ([][]float64, error) {
	dim := e.Dimension()
	div := c.divisionsFor(dim)
	switch sa.Mode() {
	case graphics.SampleSetLocation:
		loc := sa.Location()
		return [][]float64{append([]float64(nil), loc[:dim]...)}, nil
	case graphics.SampleCellCorners:
		return gridPoints(div, 0, 1), nil
	case graphics.SampleCellPoisson:
		return c.poisson(e, div, sa.DensityField())
	}
	return gridPoints(div, 0.5, 0), nil
}

// divisionsFor returns the divisions for an element of dimension dim.
func (c *context) divisionsFor(dim int) []int {
	out := make([]int, dim)
	for k := range out {
		out[k] = c.divisions[min(k, len(c.divisions)-1)]
	}
	return out
}

// gridPoints returns xi points of a regular grid over the unit element,
// x fastest: cell index plus offset, with extra points per direction.
func gridPoints(div []int, offset float64, extra int) [][]float64 {
	counts := make([]int, len(div))
	total := 1
	for k, n := range div {
		counts[k] = n + extra
		total *= counts[k]
	}
	out := make([][]float64, 0, total)
	for i := 0; i < total; i++ {
		xi := make([]float64, len(div))
		rem := i
		for k := range div {
			xi[k] = (float64(rem%counts[k]) + offset) / float64(div[k])
			rem /= counts[k]
		}
		out = append(out, xi)
	}
	return out
}

// poisson samples each tessellation cell of e with a Poisson distributed
// number of points whose mean is the density at the cell centre times the
// cell's size. The generator is seeded from the element and cell, so
// rebuilding yields the same points.
func (c *context) poisson(e field.Element, div []int, density field.Field) ([][]float64, error) {
	if density == nil {
		return nil, nil
	}
	var out [][]float64
	for cell, origin := range gridPoints(div, 0, 0) {
		size, err := c.cellMeasure(e, origin, div)
		if err != nil {
			return nil, err
		}
		mid := make([]float64, len(div))
		for k := range mid {
			mid[k] = origin[k] + 0.5/float64(div[k])
		}
		if err := c.cache.SetElement(e, mid); err != nil {
			return nil, err
		}
		rho := c.values(density)[0]
		rng := rand.New(rand.NewPCG(uint64(e.Identifier()), uint64(cell)))
		for n := poissonCount(rng, rho*size); n > 0; n-- {
			xi := make([]float64, len(div))
			for k := range xi {
				xi[k] = origin[k] + rng.Float64()/float64(div[k])
			}
			out = append(out, xi)
		}
	}
	return out, nil
}

// cellMeasure is the length, area or volume of the parallelotope spanned by
// the cell's edges at its origin corner.
func (c *context) cellMeasure(e field.Element, origin []float64, div []int) (float64, error) {
	if err := c.cache.SetElement(e, origin); err != nil {
		return 0, err
	}
	p0, err := c.position()
	if err != nil {
		return 0, err
	}
	var edges [3]r3.Vector
	for k := range div {
		xi := append([]float64(nil), origin...)
		xi[k] += 1 / float64(div[k])
		if err := c.cache.SetElement(e, xi); err != nil {
			return 0, err
		}
		p, err := c.position()
		if err != nil {
			return 0, err
		}
		edges[k] = p.Sub(p0)
	}
	switch len(div) {
	case 1:
		return edges[0].Norm(), nil
	case 2:
		return edges[0].Cross(edges[1]).Norm(), nil
	}
	return math.Abs(edges[0].Dot(edges[1].Cross(edges[2]))), nil
}

// poissonCount draws from a Poisson distribution with the given mean.
func poissonCount(rng *rand.Rand, mean float64) int {
	if mean <= 0 {
		return 0
	}
	limit := math.Exp(-mean)
	n, p := 0, rng.Float64()
	for p > limit {
		n++
		p *= rng.Float64()
	}
	return n
}
