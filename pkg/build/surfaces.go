package build

import (
	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/golang/geo/r3"
)

// surface tessellates a 2D element into a grid of triangles. Normals come
// from differences of neighbouring grid positions.
func (c *context) surface(e field.Element) error {
	div := c.divisionsFor(2)
	n0, n1 := div[0], div[1]
	grid := make([]gobject.Vertex, 0, (n0+1)*(n1+1))
	for _, xi := range gridPoints(div, 0, 1) {
		v, err := c.vertexAt(e, xi)
		if err != nil {
			return err
		}
		grid = append(grid, v)
	}
	at := func(i, j int) r3.Vector {
		p := grid[j*(n0+1)+i].Position
		return r3.Vector{X: p[0], Y: p[1], Z: p[2]}
	}
	for j := 0; j <= n1; j++ {
		for i := 0; i <= n0; i++ {
			d0 := at(min(i+1, n0), j).Sub(at(max(i-1, 0), j))
			d1 := at(i, min(j+1, n1)).Sub(at(i, max(j-1, 0)))
			grid[j*(n0+1)+i].Normal = vec3(unitOr(d0.Cross(d1), unitAxes[2]))
		}
	}
	part := gobject.Part{
		Vertices:              grid,
		HasNormals:            true,
		HasTextureCoordinates: c.hasTexture(),
	}
	for j := 0; j < n1; j++ {
		for i := 0; i < n0; i++ {
			a := j*(n0+1) + i
			b, d := a+1, a+n0+1
			part.Indices = append(part.Indices, a, b, d+1, a, d+1, d)
		}
	}
	return c.obj.Append(e.Identifier(), part)
}
