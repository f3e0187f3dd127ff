package build

import (
	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
)

// contour extracts iso-lines from a 2D element or iso-surfaces from a 3D
// element at every isovalue.
func (c *context) contour(e field.Element) error {
	ct, err := c.g.Contours()
	if err != nil {
		return err
	}
	var parts []gobject.Part
	for _, iso := range ct.Isovalues() {
		var part gobject.Part
		switch e.Dimension() {
		case 2:
			part, err = c.isoline(e, ct.IsoscalarField(), iso)
		case 3:
			part, err = c.isosurface(e, ct, iso)
		}
		if err != nil {
			return err
		}
		parts = append(parts, part)
	}
	for _, p := range parts {
		start := c.obj.VertexCount()
		if err := c.obj.Append(e.Identifier(), p); err != nil {
			return err
		}
		if e.Dimension() == 3 && ct.DecimationThreshold() > 0 {
			renormalise(c.obj.Normals[3*start:])
		}
	}
	return nil
}

// squareEdges are the cell edges of marching squares as corner pairs;
// corners are numbered anticlockwise from xi (0,0).
var squareEdges = [4][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}

// squareSegments lists, per corner inside mask, the edge pairs each iso
// segment joins. Masks 5 and 10 are saddles, resolved at the cell centre.
var squareSegments = [16][][2]int{
	1:  {{3, 0}},
	2:  {{0, 1}},
	3:  {{3, 1}},
	4:  {{1, 2}},
	6:  {{0, 2}},
	7:  {{3, 2}},
	8:  {{2, 3}},
	9:  {{0, 2}},
	11: {{1, 2}},
	12: {{1, 3}},
	13: {{0, 1}},
	14: {{3, 0}},
}

// isoline runs marching squares over the tessellation grid of e.
func (c *context) isoline(e field.Element, scalar field.Field, iso float64) (gobject.Part, error) {
	div := c.divisionsFor(2)
	n0 := div[0]
	points := gridPoints(div, 0, 1)
	values := make([]float64, len(points))
	for i, xi := range points {
		if err := c.cache.SetElement(e, xi); err != nil {
			return gobject.Part{}, err
		}
		v, err := c.cache.Evaluate(scalar)
		if err != nil {
			return gobject.Part{}, err
		}
		values[i] = v[0]
	}
	part := gobject.Part{HasTextureCoordinates: c.hasTexture()}
	for j := 0; j < div[1]; j++ {
		for i := 0; i < n0; i++ {
			a := j*(n0+1) + i
			corners := [4]int{a, a + 1, a + n0 + 2, a + n0 + 1}
			mask := 0
			sum := 0.0
			for k, idx := range corners {
				sum += values[idx]
				if values[idx] >= iso {
					mask |= 1 << k
				}
			}
			segments := squareSegments[mask]
			switch centreInside := sum/4 >= iso; {
			case mask == 5 && centreInside, mask == 10 && !centreInside:
				segments = [][2]int{{0, 1}, {2, 3}}
			case mask == 5, mask == 10:
				segments = [][2]int{{3, 0}, {1, 2}}
			}
			for _, seg := range segments {
				for _, edge := range seg {
					p, q := corners[squareEdges[edge][0]], corners[squareEdges[edge][1]]
					t := (iso - values[p]) / (values[q] - values[p])
					xi := []float64{
						points[p][0] + t*(points[q][0]-points[p][0]),
						points[p][1] + t*(points[q][1]-points[p][1]),
					}
					v, err := c.vertexAt(e, xi)
					if err != nil {
						return gobject.Part{}, err
					}
					part.Indices = append(part.Indices, len(part.Vertices))
					part.Vertices = append(part.Vertices, v)
				}
			}
		}
	}
	return part, nil
}
