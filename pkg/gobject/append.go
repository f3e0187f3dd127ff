package gobject

import (
	"fmt"
)

// Vertex is one generated vertex. Normal and TextureCoordinate are ignored
// for objects that do not store them; Data must match DataComponents.
type Vertex struct {
	Position          [3]float64
	Normal            [3]float64
	TextureCoordinate [3]float64
	Data              []float64
}

// Part is the geometry for one primitive before it is appended.
type Part struct {
	Vertices []Vertex
	// Indices are local to Vertices: segment pairs or triangles.
	Indices []int
	// HasNormals and HasTextureCoordinates decide which arrays are written.
	HasNormals            bool
	HasTextureCoordinates bool
}

// Polyline returns a part joining points with consecutive segments.
func Polyline(vertices []Vertex) Part {
	p := Part{Vertices: vertices}
	for i := 0; i+1 < len(vertices); i++ {
		p.Indices = append(p.Indices, i, i+1)
	}
	return p
}

// Append adds a part as the primitive called name.
func (o *Object) Append(name int, part Part) error {
	if len(part.Vertices) == 0 {
		return nil
	}
	stride := 2
	if o.Kind == KindSurface {
		stride = 3
	}
	if o.Kind == KindGlyphSet || o.Kind == KindPointSet {
		return fmt.Errorf("gobject: append vertices to %s", o.Kind)
	}
	if len(part.Indices)%stride != 0 {
		return fmt.Errorf("gobject: %d indices not a multiple of %d", len(part.Indices), stride)
	}
	base := o.VertexCount()
	prim := Primitive{
		Name:        name,
		VertexStart: base,
		VertexCount: len(part.Vertices),
		IndexStart:  len(o.Indices),
		IndexCount:  len(part.Indices),
	}
	for _, v := range part.Vertices {
		if len(v.Data) != o.DataComponents {
			return fmt.Errorf("gobject: vertex has %d data values, want %d", len(v.Data), o.DataComponents)
		}
	}
	for _, idx := range part.Indices {
		if idx < 0 || idx >= len(part.Vertices) {
			return fmt.Errorf("gobject: index %d out of range", idx)
		}
		o.Indices = append(o.Indices, uint32(base+idx))
	}
	for _, v := range part.Vertices {
		o.Positions = append(o.Positions, f32x3(v.Position)...)
		if part.HasNormals {
			o.Normals = append(o.Normals, f32x3(v.Normal)...)
		}
		if part.HasTextureCoordinates {
			o.TextureCoordinates = append(o.TextureCoordinates, f32x3(v.TextureCoordinate)...)
		}
		for _, d := range v.Data {
			o.Data = append(o.Data, float32(d))
		}
	}
	o.addPrimitive(prim)
	o.Compiled = false
	return nil
}

// AppendGlyphs adds glyph instances as the primitive called name.
func (o *Object) AppendGlyphs(name int, glyphs []GlyphInstance) error {
	if o.Kind != KindGlyphSet && o.Kind != KindPointSet {
		return fmt.Errorf("gobject: append glyphs to %s", o.Kind)
	}
	if len(glyphs) == 0 {
		return nil
	}
	for _, g := range glyphs {
		if len(g.Data) != o.DataComponents {
			return fmt.Errorf("gobject: glyph has %d data values, want %d", len(g.Data), o.DataComponents)
		}
	}
	o.addPrimitive(Primitive{
		Name:       name,
		GlyphStart: len(o.Glyphs),
		GlyphCount: len(glyphs),
	})
	o.Glyphs = append(o.Glyphs, glyphs...)
	o.Compiled = false
	return nil
}

// InvalidateNames removes every primitive whose name is listed and compacts
// the buffers. The names are no longer visited. It returns the number of
// primitives removed.
func (o *Object) InvalidateNames(names []int) int {
	for _, n := range names {
		delete(o.visited, n)
	}
	if len(names) == 0 || len(o.Primitives) == 0 {
		return 0
	}
	drop := make(map[int]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	old := *o
	o.Positions, o.Normals, o.TextureCoordinates, o.Data = nil, nil, nil, nil
	o.Indices, o.Glyphs, o.Primitives, o.present = nil, nil, nil, nil
	hasNormals := len(old.Normals) > 0
	hasTex := len(old.TextureCoordinates) > 0
	removed := 0
	for _, p := range old.Primitives {
		if drop[p.Name] {
			removed++
			continue
		}
		np := Primitive{
			Name:        p.Name,
			VertexStart: o.VertexCount(),
			VertexCount: p.VertexCount,
			IndexStart:  len(o.Indices),
			IndexCount:  p.IndexCount,
			GlyphStart:  len(o.Glyphs),
			GlyphCount:  p.GlyphCount,
		}
		v0, v1 := p.VertexStart, p.VertexStart+p.VertexCount
		o.Positions = append(o.Positions, old.Positions[3*v0:3*v1]...)
		if hasNormals {
			o.Normals = append(o.Normals, old.Normals[3*v0:3*v1]...)
		}
		if hasTex {
			o.TextureCoordinates = append(o.TextureCoordinates, old.TextureCoordinates[3*v0:3*v1]...)
		}
		if o.DataComponents > 0 {
			c := o.DataComponents
			o.Data = append(o.Data, old.Data[c*v0:c*v1]...)
		}
		shift := int64(np.VertexStart) - int64(p.VertexStart)
		for _, idx := range old.Indices[p.IndexStart : p.IndexStart+p.IndexCount] {
			o.Indices = append(o.Indices, uint32(int64(idx)+shift))
		}
		o.Glyphs = append(o.Glyphs, old.Glyphs[p.GlyphStart:p.GlyphStart+p.GlyphCount]...)
		o.addPrimitive(np)
	}
	if removed > 0 {
		o.Compiled = false
	}
	return removed
}

func f32x3(v [3]float64) []float32 {
	return []float32{float32(v[0]), float32(v[1]), float32(v[2])}
}
