package build

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/golang/geo/r3"
)

// maxTrackSteps bounds a single streamline.
const maxTrackSteps = 10000

// seed is where one streamline starts; name labels its primitive.
type seed struct {
	name int
	e    field.Element
	xi   []float64
}

// streamlines traces every seed in one pass. A trace may leave its seed
// element, so streamlines are never built piecemeal.
func (c *context) streamlines() (StepResult, error) {
	s, err := c.g.Streamlines()
	if err != nil {
		return StepResult{}, err
	}
	la, err := c.g.LineAttributes()
	if err != nil {
		return StepResult{}, err
	}
	seeds, err := c.seeds(s)
	if err != nil {
		return StepResult{}, err
	}
	done := 0
	for _, sd := range seeds {
		stations, err := c.track(sd, s, la)
		if errors.Is(err, field.ErrNotDefined) {
			continue
		}
		if err != nil {
			return StepResult{}, fmt.Errorf("seed %d: %w: %w", sd.name, ErrBuildFailed, err)
		}
		if len(stations) < 2 {
			continue
		}
		if err := c.obj.Append(sd.name, c.linePart(la, stations)); err != nil {
			return StepResult{}, err
		}
		done++
	}
	return StepResult{Status: Done, Elements: done}, nil
}

// seeds returns the explicit seed element at the sample location, the
// stored locations of the seed nodes, or the sample points of every
// iteration element, in that order of preference.
func (c *context) seeds(s graphics.Streamlines) ([]seed, error) {
	sa, err := c.g.SamplingAttributes()
	if err != nil {
		return nil, err
	}
	if e := s.SeedElement(); e != nil {
		loc := sa.Location()
		return []seed{{name: e.Identifier(), e: e, xi: append([]float64(nil), loc[:e.Dimension()]...)}}, nil
	}
	if ns, lf := s.SeedNodeset(), s.SeedMeshLocationField(); ns != nil && lf != nil {
		var out []seed
		for i := 0; i < ns.Size(); i++ {
			n := ns.NodeAt(i)
			if err := c.cache.SetNode(n); err != nil {
				return nil, err
			}
			e, xi, err := c.cache.EvaluateMeshLocation(lf)
			if errors.Is(err, field.ErrNotDefined) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, seed{name: n.Identifier(), e: e, xi: xi})
		}
		return out, nil
	}
	if c.mesh == nil {
		return nil, nil
	}
	var out []seed
	for i := 0; i < c.mesh.Size(); i++ {
		e := c.mesh.ElementAt(i)
		if e == nil || !c.includeElement(e) {
			continue
		}
		points, err := c.samples(e, sa)
		if err != nil {
			return nil, err
		}
		for _, xi := range points {
			out = append(out, seed{name: e.Identifier(), e: e, xi: xi})
		}
	}
	return out, nil
}

// track integrates the stream vector field from sd with fourth order
// Runge-Kutta steps in xi, moving into neighbouring elements across shared
// faces, until the track length is covered, the flow stops, or the trace
// leaves the mesh.
func (c *context) track(sd seed, s graphics.Streamlines, la graphics.LineAttributes) ([]station, error) {
	mesh := c.b.module.FindMeshByDimension(sd.e.Dimension())
	if mesh == nil {
		return nil, field.ErrNotDefined
	}
	div := c.divisionsFor(sd.e.Dimension())
	step := 1 / (4 * float64(max(div[0], div[len(div)-1], 1)))
	sign := 1.0
	if s.TrackDirection() == graphics.TrackReverse {
		sign = -1
	}
	e, xi := sd.e, append([]float64(nil), sd.xi...)
	var (
		stations []station
		length   float64
		elapsed  float64
		last     r3.Vector
		stop     bool
	)
	for n := 0; n < maxTrackSteps; n++ {
		st, speed, err := c.streamStation(e, xi, s, la, elapsed)
		if err != nil {
			return nil, err
		}
		pos := r3.Vector{X: st.vertex.Position[0], Y: st.vertex.Position[1], Z: st.vertex.Position[2]}
		if n > 0 {
			ds := pos.Sub(last).Norm()
			if ds < 1e-12 {
				break
			}
			length += ds
			if speed > 0 {
				elapsed += ds / speed
			}
			if s.ColourData() == graphics.ColourDataTravelTime {
				st.vertex.Data = []float64{elapsed}
			}
		}
		stations = append(stations, st)
		last = pos
		if stop || length >= s.TrackLength() || speed == 0 {
			break
		}
		next, err := c.rk4(e, xi, sign*step, s.StreamVectorField())
		if err != nil {
			return nil, err
		}
		var inside bool
		e, xi, inside = crossFaces(mesh, e, next)
		// The clamped exit point is the last station.
		stop = !inside
	}
	return stations, nil
}

// streamStation evaluates one point of a streamline and the flow speed.
func (c *context) streamStation(e field.Element, xi []float64, s graphics.Streamlines, la graphics.LineAttributes, elapsed float64) (station, float64, error) {
	if err := c.cache.SetElement(e, xi); err != nil {
		return station{}, 0, err
	}
	v, err := c.vertex()
	if err != nil {
		return station{}, 0, err
	}
	flow, err := c.flowVector(s.StreamVectorField())
	if err != nil {
		return station{}, 0, err
	}
	speed := flow.Norm()
	switch s.ColourData() {
	case graphics.ColourDataMagnitude:
		v.Data = []float64{speed}
	case graphics.ColourDataTravelTime:
		v.Data = []float64{elapsed}
	}
	return station{vertex: v, orientation: c.values(la.OrientationScaleField())}, speed, nil
}

// flowVector is the first vector of the stream vector field at the cache
// location: all of a 1-3 component field, or the first of two or three
// vectors packed in 4, 6 or 9 components.
func (c *context) flowVector(f field.Field) (r3.Vector, error) {
	v, err := c.cache.Evaluate(f)
	if err != nil {
		return r3.Vector{}, err
	}
	n := len(v)
	switch n {
	case 4:
		n = 2
	case 6, 9:
		n = 3
	}
	return toRC(v[:min(n, 3)], field.RectangularCartesian), nil
}

// xiVelocity maps the flow at xi in e to a unit direction in xi space by
// least squares against the coordinate Jacobian. A stagnant point returns
// nil.
func (c *context) xiVelocity(e field.Element, xi []float64, f field.Field) ([]float64, error) {
	if err := c.cache.SetElement(e, xi); err != nil {
		return nil, err
	}
	flow, err := c.flowVector(f)
	if err != nil {
		return nil, err
	}
	dim := len(xi)
	jac := make([]r3.Vector, dim)
	const h = 1e-4
	for k := 0; k < dim; k++ {
		lo, hi := append([]float64(nil), xi...), append([]float64(nil), xi...)
		lo[k], hi[k] = clamp01(xi[k]-h), clamp01(xi[k]+h)
		pl, err := c.positionAt(e, lo)
		if err != nil {
			return nil, err
		}
		ph, err := c.positionAt(e, hi)
		if err != nil {
			return nil, err
		}
		jac[k] = ph.Sub(pl).Mul(1 / (hi[k] - lo[k]))
	}
	// Normal equations (J^T J) a = J^T v.
	a := make([][]float64, dim)
	for i := range a {
		a[i] = make([]float64, dim+1)
		for j := 0; j < dim; j++ {
			a[i][j] = jac[i].Dot(jac[j])
		}
		a[i][dim] = jac[i].Dot(flow)
	}
	dxi, ok := solve(a)
	if !ok {
		return nil, nil
	}
	norm := 0.0
	for _, x := range dxi {
		norm += x * x
	}
	if norm < 1e-24 {
		return nil, nil
	}
	norm = math.Sqrt(norm)
	for i := range dxi {
		dxi[i] /= norm
	}
	return dxi, nil
}

func (c *context) positionAt(e field.Element, xi []float64) (r3.Vector, error) {
	if err := c.cache.SetElement(e, xi); err != nil {
		return r3.Vector{}, err
	}
	return c.position()
}

// rk4 advances xi by one step of length h along the xi direction field.
// Intermediate points are clamped to the element.
func (c *context) rk4(e field.Element, xi []float64, h float64, f field.Field) ([]float64, error) {
	at := func(base, k []float64, t float64) []float64 {
		out := make([]float64, len(base))
		for i := range base {
			out[i] = clamp01(base[i] + t*k[i])
		}
		return out
	}
	k1, err := c.xiVelocity(e, xi, f)
	if err != nil || k1 == nil {
		return xi, err
	}
	k2, err := c.xiVelocity(e, at(xi, k1, h/2), f)
	if err != nil || k2 == nil {
		return xi, err
	}
	k3, err := c.xiVelocity(e, at(xi, k2, h/2), f)
	if err != nil || k3 == nil {
		return xi, err
	}
	k4, err := c.xiVelocity(e, at(xi, k3, h), f)
	if err != nil || k4 == nil {
		return xi, err
	}
	out := make([]float64, len(xi))
	for i := range xi {
		out[i] = xi[i] + h/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out, nil
}

// crossFaces moves xi outside the unit element into the neighbour across
// the face it left by, carrying the overshoot. Neighbours are assumed to
// share xi orientation along the face. It reports false, with xi clamped
// onto the boundary, when there is no neighbour.
func crossFaces(mesh field.Mesh, e field.Element, xi []float64) (field.Element, []float64, bool) {
	for hop := 0; hop < len(xi); hop++ {
		k, face, over := -1, 0, 0.0
		for i, x := range xi {
			if x < 0 && -x > over {
				k, face, over = i, 2*i, -x
			}
			if x > 1 && x-1 > over {
				k, face, over = i, 2*i+1, x-1
			}
		}
		if k < 0 {
			return e, xi, true
		}
		next, nface := mesh.Neighbour(e, face)
		if next == nil {
			return e, clampAll(xi), false
		}
		out := clampAll(xi)
		if nk := nface / 2; nface%2 == 0 {
			out[nk] = over
		} else {
			out[nk] = 1 - over
		}
		e, xi = next, out
	}
	return e, clampAll(xi), true
}

func clampAll(xi []float64) []float64 {
	out := make([]float64, len(xi))
	for i, x := range xi {
		out[i] = clamp01(x)
	}
	return out
}

// solve performs Gaussian elimination with partial pivoting on an n by n+1
// augmented matrix. It reports false for a singular system.
func solve(a [][]float64) ([]float64, bool) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-14 {
			return nil, false
		}
		a[col], a[pivot] = a[pivot], a[col]
		for r := col + 1; r < n; r++ {
			f := a[r][col] / a[col][col]
			for k := col; k <= n; k++ {
				a[r][k] -= f * a[col][k]
			}
		}
	}
	x := make([]float64, n)
	for r := n - 1; r >= 0; r-- {
		s := a[r][n]
		for k := r + 1; k < n; k++ {
			s -= a[r][k] * x[k]
		}
		x[r] = s / a[r][r]
	}
	return x, true
}
