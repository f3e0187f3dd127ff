package build

import (
	"math"

	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/golang/geo/r3"
)

// station is one point of a centreline to sweep a cross-section along.
type station struct {
	vertex gobject.Vertex
	// orientation is the line orientation-scale value at the point.
	orientation []float64
}

// sweep builds the surface of a ribbon or extrusion along stations. The
// cross-section is oriented by a 3 component orientation field, or kept
// as parallel as possible along the line; its two sizes are
// base + factor * scale, where the scale is a scalar, one per axis, or the
// length of the orientation vector.
func sweep(la graphics.LineAttributes, stations []station, circleDivisions int, texture bool) gobject.Part {
	n := len(stations)
	if n < 2 {
		return gobject.Part{}
	}
	centre := make([]r3.Vector, n)
	for i, s := range stations {
		centre[i] = r3.Vector{X: s.vertex.Position[0], Y: s.vertex.Position[1], Z: s.vertex.Position[2]}
	}
	base, factor := la.BaseSize(), la.ScaleFactors()
	var ring []ringPoint
	switch la.Shape() {
	case graphics.ShapeRibbon:
		ring = ribbonSection
	case graphics.ShapeSquareExtrusion:
		ring = squareSection
	default:
		ring = circleSection(max(circleDivisions, 3))
	}

	part := gobject.Part{HasNormals: true, HasTextureCoordinates: texture}
	var prevSide r3.Vector
	for i, s := range stations {
		tangent := unitOr(centre[min(i+1, n-1)].Sub(centre[max(i-1, 0)]), unitAxes[0])
		var size [2]float64
		for k := range size {
			size[k] = base[k]
		}
		var side r3.Vector
		switch o := s.orientation; len(o) {
		case 1:
			size[0] += factor[0] * o[0]
			size[1] += factor[1] * o[0]
		case 2:
			size[0] += factor[0] * o[0]
			size[1] += factor[1] * o[1]
		case 3:
			v := r3.Vector{X: o[0], Y: o[1], Z: o[2]}
			size[0] += factor[0] * v.Norm()
			size[1] += factor[1] * v.Norm()
			side = v
		}
		if side == (r3.Vector{}) {
			side = prevSide
		}
		if side == (r3.Vector{}) {
			side = tangent.Ortho()
		}
		side = perpendicular(side, tangent)
		prevSide = side
		up := tangent.Cross(side)
		for _, rp := range ring {
			off := side.Mul(rp.x * size[0] / 2).Add(up.Mul(rp.y * size[1] / 2))
			normal := unitOr(side.Mul(rp.nx).Add(up.Mul(rp.ny)), up)
			v := s.vertex
			v.Position = vec3(centre[i].Add(off))
			v.Normal = vec3(normal)
			part.Vertices = append(part.Vertices, v)
		}
	}
	per := len(ring)
	for i := 0; i+1 < n; i++ {
		a, b := i*per, (i+1)*per
		for _, q := range ringQuads(ring) {
			part.Indices = append(part.Indices,
				a+q[0], a+q[1], b+q[1],
				a+q[0], b+q[1], b+q[0])
		}
	}
	return part
}

// ringPoint is a cross-section vertex in units of half the section size,
// with its outward normal.
type ringPoint struct {
	x, y, nx, ny float64
	// seam marks the last vertex of a facet; it is not joined to the next.
	seam bool
}

var ribbonSection = []ringPoint{
	{x: -1, ny: 1},
	{x: 1, ny: 1, seam: true},
}

// squareSection has two vertices per side, so each side is flat shaded.
var squareSection = []ringPoint{
	{x: 1, y: -1, nx: 1}, {x: 1, y: 1, nx: 1, seam: true},
	{x: 1, y: 1, ny: 1}, {x: -1, y: 1, ny: 1, seam: true},
	{x: -1, y: 1, nx: -1}, {x: -1, y: -1, nx: -1, seam: true},
	{x: -1, y: -1, ny: -1}, {x: 1, y: -1, ny: -1, seam: true},
}

func circleSection(n int) []ringPoint {
	out := make([]ringPoint, n)
	for j := range out {
		a := 2 * math.Pi * float64(j) / float64(n)
		out[j] = ringPoint{x: math.Cos(a), y: math.Sin(a), nx: math.Cos(a), ny: math.Sin(a)}
	}
	return out
}

// ringQuads lists the section edges to sweep, as vertex index pairs. A
// section without seams is closed.
func ringQuads(ring []ringPoint) [][2]int {
	var out [][2]int
	closed := true
	for _, rp := range ring {
		if rp.seam {
			closed = false
		}
	}
	for j, rp := range ring {
		if rp.seam {
			continue
		}
		next := j + 1
		if next == len(ring) {
			if !closed {
				continue
			}
			next = 0
		}
		out = append(out, [2]int{j, next})
	}
	return out
}
