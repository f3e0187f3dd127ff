// Package gobject holds built graphics geometry: flat vertex and index
// buffers with per-primitive object names, ready to hand to a renderer, and
// the arena that owns them.
package gobject

import (
	"fmt"
	"sort"

	"github.com/chazu/fegraphics/pkg/appearance"
)

// Kind is the primitive type stored in an object.
type Kind int

const (
	KindPolyline Kind = iota
	KindSurface
	KindGlyphSet
	KindPointSet
)

func (k Kind) String() string {
	switch k {
	case KindPolyline:
		return "polyline"
	case KindSurface:
		return "surface"
	case KindGlyphSet:
		return "glyph_set"
	case KindPointSet:
		return "point_set"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// PolygonMode controls how surfaces are rasterised.
type PolygonMode int

const (
	PolygonShaded PolygonMode = iota
	PolygonWireframe
)

func (m PolygonMode) String() string {
	if m == PolygonWireframe {
		return "wireframe"
	}
	return "shaded"
}

// Primitive is the span of buffers generated for one named domain object
// (an element, a node, or a streamline seed).
type Primitive struct {
	Name        int `json:"name"`
	VertexStart int `json:"vertexStart"`
	VertexCount int `json:"vertexCount"`
	IndexStart  int `json:"indexStart"`
	IndexCount  int `json:"indexCount"`
	GlyphStart  int `json:"glyphStart"`
	GlyphCount  int `json:"glyphCount"`
}

// Object is a built graphics. Vertex arrays are flat: 3 floats per vertex
// for positions, normals and texture coordinates, DataComponents floats per
// vertex for data. Polyline indices are segment pairs; surface indices are
// triangles.
type Object struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	Positions          []float32       `json:"positions"`
	Normals            []float32       `json:"normals,omitempty"`
	TextureCoordinates []float32       `json:"textureCoordinates,omitempty"`
	Data               []float32       `json:"data,omitempty"`
	DataComponents     int             `json:"dataComponents"`
	Indices            []uint32        `json:"indices"`
	Glyphs             []GlyphInstance `json:"glyphs,omitempty"`
	Primitives         []Primitive     `json:"primitives"`

	// SelectedNames are the primitive names currently drawn with the
	// selected material.
	SelectedNames []int `json:"selectedNames,omitempty"`

	// Compiled is owned by the renderer; rebuilds and appearance patches
	// clear it.
	Compiled bool `json:"-"`

	Material          *appearance.Material `json:"-"`
	SecondaryMaterial *appearance.Material `json:"-"`
	SelectedMaterial  *appearance.Material `json:"-"`
	Spectrum          *appearance.Spectrum `json:"-"`
	PolygonMode       PolygonMode          `json:"-"`
	LineWidth         float64              `json:"-"`
	PointSize         float64              `json:"-"`
	GlyphAttributes   GlyphAttributes      `json:"-"`

	present map[int]int // primitive count per name
	// visited holds names generated since the last invalidation, including
	// those that produced no geometry.
	visited map[int]bool
}

// New returns an empty object.
func New(name string, kind Kind) *Object {
	return &Object{Name: name, Kind: kind, LineWidth: 1, PointSize: 1}
}

// Reset discards all geometry, keeping appearance.
func (o *Object) Reset() {
	o.Positions = nil
	o.Normals = nil
	o.TextureCoordinates = nil
	o.Data = nil
	o.Indices = nil
	o.Glyphs = nil
	o.Primitives = nil
	o.SelectedNames = nil
	o.present = nil
	o.visited = nil
	o.Compiled = false
}

// VertexCount returns the number of vertices.
func (o *Object) VertexCount() int {
	return len(o.Positions) / 3
}

// TriangleCount returns the number of triangles of a surface.
func (o *Object) TriangleCount() int {
	if o.Kind != KindSurface {
		return 0
	}
	return len(o.Indices) / 3
}

// SegmentCount returns the number of line segments of a polyline.
func (o *Object) SegmentCount() int {
	if o.Kind != KindPolyline {
		return 0
	}
	return len(o.Indices) / 2
}

// IsEmpty returns true if the object has no geometry.
func (o *Object) IsEmpty() bool {
	return len(o.Positions) == 0 && len(o.Glyphs) == 0
}

// HasPrimitive reports whether geometry named name is present.
func (o *Object) HasPrimitive(name int) bool {
	return o.present[name] > 0
}

// MarkVisited records that name has been generated, whether or not it
// produced geometry.
func (o *Object) MarkVisited(name int) {
	if o.visited == nil {
		o.visited = make(map[int]bool)
	}
	o.visited[name] = true
}

// Visited reports whether name was generated since it was last
// invalidated.
func (o *Object) Visited(name int) bool {
	return o.visited[name] || o.present[name] > 0
}

func (o *Object) addPrimitive(p Primitive) {
	if o.present == nil {
		o.present = make(map[int]int)
	}
	o.present[p.Name]++
	o.Primitives = append(o.Primitives, p)
}

// Names returns the distinct primitive names in build order.
func (o *Object) Names() []int {
	seen := make(map[int]bool, len(o.Primitives))
	var names []int
	for _, p := range o.Primitives {
		if !seen[p.Name] {
			seen[p.Name] = true
			names = append(names, p.Name)
		}
	}
	return names
}

// SetSelectedNames replaces the selected set.
func (o *Object) SetSelectedNames(names []int) {
	o.SelectedNames = append([]int(nil), names...)
	sort.Ints(o.SelectedNames)
	o.Compiled = false
}

// IsSelected reports whether name is in the selected set.
func (o *Object) IsSelected(name int) bool {
	i := sort.SearchInts(o.SelectedNames, name)
	return i < len(o.SelectedNames) && o.SelectedNames[i] == name
}
