package build

import (
	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
)

// line draws a 1D element as a polyline at its tessellation, or sweeps a
// ribbon or extrusion along it.
func (c *context) line(e field.Element) error {
	la, err := c.g.LineAttributes()
	if err != nil {
		return err
	}
	n := c.divisionsFor(1)[0]
	stations := make([]station, 0, n+1)
	for i := 0; i <= n; i++ {
		v, err := c.vertexAt(e, []float64{float64(i) / float64(n)})
		if err != nil {
			return err
		}
		stations = append(stations, station{vertex: v, orientation: c.values(la.OrientationScaleField())})
	}
	return c.obj.Append(e.Identifier(), c.linePart(la, stations))
}

// linePart is the polyline or swept surface through stations.
func (c *context) linePart(la graphics.LineAttributes, stations []station) gobject.Part {
	if la.Shape() == graphics.ShapeLine {
		vertices := make([]gobject.Vertex, len(stations))
		for i, s := range stations {
			vertices[i] = s.vertex
		}
		part := gobject.Polyline(vertices)
		part.HasTextureCoordinates = c.hasTexture()
		return part
	}
	return sweep(la, stations, c.circleDivisions, c.hasTexture())
}
