package appearance

import (
	"fmt"
	"sort"
)

// Registry is a named lookup of shared resources with the defaults new
// graphics pick up.
type Registry struct {
	materials     map[string]*Material
	spectrums     map[string]*Spectrum
	fonts         map[string]*Font
	glyphs        map[string]*Glyph
	tessellations map[string]*Tessellation
}

// NewRegistry returns a registry seeded with the default material, font,
// tessellations and the built-in glyphs.
func NewRegistry() *Registry {
	r := &Registry{
		materials:     make(map[string]*Material),
		spectrums:     make(map[string]*Spectrum),
		fonts:         make(map[string]*Font),
		glyphs:        make(map[string]*Glyph),
		tessellations: make(map[string]*Tessellation),
	}
	r.AddMaterial(NewMaterial("default"))
	selected := NewMaterial("default_selected")
	selected.Diffuse = [3]float64{1, 0, 0}
	r.AddMaterial(selected)
	r.AddFont(NewFont("default"))
	r.AddSpectrum(NewSpectrum("default"))
	r.AddTessellation(NewTessellation("default"))
	points := NewTessellation("default_points")
	r.AddTessellation(points)
	for i, name := range glyphShapeNames {
		r.AddGlyph(NewGlyph(name, GlyphShape(i)))
	}
	return r
}

func (r *Registry) AddMaterial(m *Material)         { r.materials[m.name] = m }
func (r *Registry) AddSpectrum(s *Spectrum)         { r.spectrums[s.name] = s }
func (r *Registry) AddFont(f *Font)                 { r.fonts[f.name] = f }
func (r *Registry) AddGlyph(g *Glyph)               { r.glyphs[g.name] = g }
func (r *Registry) AddTessellation(t *Tessellation) { r.tessellations[t.name] = t }

// Material finds a material by name.
func (r *Registry) Material(name string) (*Material, error) {
	return find(r.materials, "material", name)
}

// Spectrum finds a spectrum by name.
func (r *Registry) Spectrum(name string) (*Spectrum, error) {
	return find(r.spectrums, "spectrum", name)
}

// Font finds a font by name.
func (r *Registry) Font(name string) (*Font, error) {
	return find(r.fonts, "font", name)
}

// Glyph finds a glyph by name.
func (r *Registry) Glyph(name string) (*Glyph, error) {
	return find(r.glyphs, "glyph", name)
}

// Tessellation finds a tessellation by name.
func (r *Registry) Tessellation(name string) (*Tessellation, error) {
	return find(r.tessellations, "tessellation", name)
}

func (r *Registry) DefaultMaterial() *Material         { return r.materials["default"] }
func (r *Registry) DefaultSelectedMaterial() *Material { return r.materials["default_selected"] }
func (r *Registry) DefaultFont() *Font                 { return r.fonts["default"] }
func (r *Registry) DefaultTessellation() *Tessellation { return r.tessellations["default"] }

// DefaultPointsTessellation is used by graphics sampling points, so that
// cell-centre counts do not change when the default tessellation is refined.
func (r *Registry) DefaultPointsTessellation() *Tessellation {
	return r.tessellations["default_points"]
}

// MaterialNames lists registered materials in name order.
func (r *Registry) MaterialNames() []string {
	names := make([]string, 0, len(r.materials))
	for n := range r.materials {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func find[T any](m map[string]*T, kind, name string) (*T, error) {
	if v, ok := m[name]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%s %q not found: %w", kind, name, ErrInvalidArgument)
}
