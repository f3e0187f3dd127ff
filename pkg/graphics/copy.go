package graphics

import "github.com/chazu/fegraphics/pkg/gobject"

// ApplyAppearance patches the trivial, draw-time attributes onto obj
// without touching its geometry.
func (g *Graphics) ApplyAppearance(obj *gobject.Object) {
	if obj == nil {
		return
	}
	obj.Material = g.material
	obj.SecondaryMaterial = g.secondaryMaterial
	obj.SelectedMaterial = g.selectedMaterial
	obj.Spectrum = g.spectrum
	obj.PolygonMode = g.polygonMode
	obj.LineWidth = g.lineWidth
	obj.PointSize = g.pointSize
	if pa, err := g.PointAttributes(); err == nil {
		obj.GlyphAttributes = pa.GlyphAttributes()
	}
	obj.Compiled = false
}

// Copy returns a detached graphics with the same attributes, position and
// name, but no object and no listener. Copies are edited and then committed
// back to a list, where unchanged geometry is reused.
func (g *Graphics) Copy() *Graphics {
	c := *g
	c.payload = g.payload.clone()
	c.object = gobject.Handle{}
	c.listener = nil
	c.owner = nil
	c.pending = ChangeNone
	c.graphicsChanged = true
	c.selectedGraphicsChanged = false
	c.resumeIndex = 0
	return &c
}
