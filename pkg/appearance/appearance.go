// Package appearance holds the shared, externally managed resources a
// graphics refers to by handle: materials, spectrums, fonts, glyphs and
// tessellations. Handles are compared by pointer identity.
package appearance

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned by setters that reject their input.
var ErrInvalidArgument = errors.New("appearance: invalid argument")

// Material is a named surface appearance.
type Material struct {
	name      string
	Ambient   [3]float64
	Diffuse   [3]float64
	Emission  [3]float64
	Specular  [3]float64
	Alpha     float64
	Shininess float64
}

// NewMaterial returns an opaque white material.
func NewMaterial(name string) *Material {
	return &Material{
		name:    name,
		Ambient: [3]float64{1, 1, 1},
		Diffuse: [3]float64{1, 1, 1},
		Alpha:   1,
	}
}

func (m *Material) Name() string { return m.name }

// Spectrum maps data values to colours over [Minimum, Maximum].
type Spectrum struct {
	name     string
	Minimum  float64
	Maximum  float64
	ColorMap string
}

// NewSpectrum returns a rainbow spectrum over [0, 1].
func NewSpectrum(name string) *Spectrum {
	return &Spectrum{name: name, Maximum: 1, ColorMap: "rainbow"}
}

func (s *Spectrum) Name() string { return s.name }

// SetRange sets the data range; min must not exceed max.
func (s *Spectrum) SetRange(min, max float64) error {
	if min > max {
		return fmt.Errorf("spectrum %q: range [%g, %g]: %w", s.name, min, max, ErrInvalidArgument)
	}
	s.Minimum, s.Maximum = min, max
	return nil
}

// Font is used for graphics labels.
type Font struct {
	name   string
	Size   int
	Bold   bool
	Italic bool
}

// NewFont returns a 12 point font.
func NewFont(name string) *Font {
	return &Font{name: name, Size: 12}
}

func (f *Font) Name() string { return f.name }

// GlyphShape enumerates the built-in glyph geometries.
type GlyphShape int

const (
	GlyphPoint GlyphShape = iota
	GlyphLine
	GlyphArrow
	GlyphCone
	GlyphCube
	GlyphSphere
	GlyphCylinder
	GlyphAxes
)

var glyphShapeNames = []string{"point", "line", "arrow", "cone", "cube", "sphere", "cylinder", "axes"}

func (s GlyphShape) String() string {
	if int(s) >= 0 && int(s) < len(glyphShapeNames) {
		return glyphShapeNames[s]
	}
	return fmt.Sprintf("GlyphShape(%d)", int(s))
}

// ParseGlyphShape is the inverse of GlyphShape.String.
func ParseGlyphShape(s string) (GlyphShape, error) {
	for i, n := range glyphShapeNames {
		if n == s {
			return GlyphShape(i), nil
		}
	}
	return 0, fmt.Errorf("glyph shape %q: %w", s, ErrInvalidArgument)
}

// Glyph is a named glyph geometry drawn at each point of a glyph set.
type Glyph struct {
	name  string
	Shape GlyphShape
}

// NewGlyph returns a glyph of the given shape.
func NewGlyph(name string, shape GlyphShape) *Glyph {
	return &Glyph{name: name, Shape: shape}
}

func (g *Glyph) Name() string { return g.name }
