package graphics

import (
	"fmt"

	"github.com/chazu/fegraphics/pkg/appearance"
	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
)

type lineData struct {
	shape                 LineShape
	baseSize              [2]float64
	scaleFactors          [2]float64
	orientationScaleField field.Field
}

type pointData struct {
	glyph                 *appearance.Glyph
	repeatMode            gobject.GlyphRepeatMode
	baseSize              [3]float64
	offset                [3]float64
	scaleFactors          [3]float64
	labelOffset           [3]float64
	labelText             [3]string
	orientationScaleField field.Field
	signedScaleField      field.Field
	labelField            field.Field
	labelDensityField     field.Field
}

type samplingData struct {
	mode         SamplingMode
	location     [3]float64
	densityField field.Field
}

// fill expands values to n entries, repeating the last one. Empty input is
// rejected.
func fill(values []float64, n int, what string) ([]float64, error) {
	if len(values) == 0 || len(values) > n {
		return nil, fmt.Errorf("graphics: %s needs 1-%d values, got %d: %w", what, n, len(values), ErrInvalidArgument)
	}
	out := make([]float64, n)
	for i := range out {
		if i < len(values) {
			out[i] = values[i]
		} else {
			out[i] = values[len(values)-1]
		}
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Line attributes: lines and streamlines
// ---------------------------------------------------------------------------

// LineAttributes is a view of the line settings of lines and streamlines.
type LineAttributes struct {
	g *Graphics
	d *lineData
}

// LineAttributes returns the line settings; ErrWrongType unless the
// graphics is lines or streamlines.
func (g *Graphics) LineAttributes() (LineAttributes, error) {
	switch p := g.payload.(type) {
	case *linesPayload:
		return LineAttributes{g: g, d: &p.line}, nil
	case *streamlinesPayload:
		return LineAttributes{g: g, d: &p.line}, nil
	}
	return LineAttributes{}, fmt.Errorf("graphics: line attributes on %s: %w", g.typ, ErrWrongType)
}

func (a LineAttributes) Shape() LineShape                    { return a.d.shape }
func (a LineAttributes) BaseSize() [2]float64                { return a.d.baseSize }
func (a LineAttributes) ScaleFactors() [2]float64            { return a.d.scaleFactors }
func (a LineAttributes) OrientationScaleField() field.Field { return a.d.orientationScaleField }

// SetShape changes the cross-section; geometry is regenerated.
func (a LineAttributes) SetShape(s LineShape) error {
	if s < ShapeLine || s > ShapeSquareExtrusion {
		return fmt.Errorf("graphics: line shape %d: %w", int(s), ErrInvalidArgument)
	}
	if s == a.d.shape {
		return nil
	}
	a.d.shape = s
	a.g.changed(ChangeFullRebuild)
	return nil
}

// SetBaseSize sets the extrusion diameter (or ribbon width) before scaling.
func (a LineAttributes) SetBaseSize(v []float64) error {
	return a.set2(&a.d.baseSize, v, "line base size")
}

// SetScaleFactors sets the multipliers of the orientation-scale field.
func (a LineAttributes) SetScaleFactors(v []float64) error {
	return a.set2(&a.d.scaleFactors, v, "line scale factors")
}

func (a LineAttributes) set2(dst *[2]float64, v []float64, what string) error {
	vals, err := fill(v, 2, what)
	if err != nil {
		return err
	}
	next := [2]float64{vals[0], vals[1]}
	if next == *dst {
		return nil
	}
	*dst = next
	a.g.changed(ChangeFullRebuild)
	return nil
}

// SetOrientationScaleField scales (and for 3 components, orients) the
// extrusion; real, 1-3 components.
func (a LineAttributes) SetOrientationScaleField(f field.Field) error {
	return a.g.setField(&a.d.orientationScaleField, f, upTo(3), "line orientation scale field", ChangeFullRebuild)
}

// ---------------------------------------------------------------------------
// Point attributes: points only
// ---------------------------------------------------------------------------

// PointAttributes is a view of the glyph and label settings of points.
type PointAttributes struct {
	g *Graphics
	d *pointData
}

// PointAttributes returns the glyph settings; ErrWrongType unless points.
func (g *Graphics) PointAttributes() (PointAttributes, error) {
	if p, ok := g.payload.(*pointsPayload); ok {
		return PointAttributes{g: g, d: &p.point}, nil
	}
	return PointAttributes{}, fmt.Errorf("graphics: point attributes on %s: %w", g.typ, ErrWrongType)
}

func (a PointAttributes) Glyph() *appearance.Glyph                 { return a.d.glyph }
func (a PointAttributes) RepeatMode() gobject.GlyphRepeatMode      { return a.d.repeatMode }
func (a PointAttributes) BaseSize() [3]float64                     { return a.d.baseSize }
func (a PointAttributes) Offset() [3]float64                       { return a.d.offset }
func (a PointAttributes) ScaleFactors() [3]float64                 { return a.d.scaleFactors }
func (a PointAttributes) LabelOffset() [3]float64                  { return a.d.labelOffset }
func (a PointAttributes) OrientationScaleField() field.Field       { return a.d.orientationScaleField }
func (a PointAttributes) SignedScaleField() field.Field            { return a.d.signedScaleField }
func (a PointAttributes) LabelField() field.Field                  { return a.d.labelField }
func (a PointAttributes) LabelDensityField() field.Field           { return a.d.labelDensityField }
func (a PointAttributes) setGlyphAttribute(c func() bool) {
	if c() {
		a.g.changed(ChangeRecompile)
	}
}

// LabelText returns static label number i, 1-3.
func (a PointAttributes) LabelText(i int) (string, error) {
	if i < 1 || i > 3 {
		return "", fmt.Errorf("graphics: label text %d: %w", i, ErrInvalidArgument)
	}
	return a.d.labelText[i-1], nil
}

// SetGlyph chooses the glyph; nil draws plain points.
func (a PointAttributes) SetGlyph(gl *appearance.Glyph) {
	a.setGlyphAttribute(func() bool {
		if gl == a.d.glyph {
			return false
		}
		a.d.glyph = gl
		return true
	})
}

func (a PointAttributes) SetRepeatMode(m gobject.GlyphRepeatMode) error {
	if m < gobject.RepeatNone || m > gobject.RepeatMirror {
		return fmt.Errorf("graphics: glyph repeat mode %d: %w", int(m), ErrInvalidArgument)
	}
	a.setGlyphAttribute(func() bool {
		if m == a.d.repeatMode {
			return false
		}
		a.d.repeatMode = m
		return true
	})
	return nil
}

func (a PointAttributes) set3(dst *[3]float64, v []float64, what string) error {
	vals, err := fill(v, 3, what)
	if err != nil {
		return err
	}
	next := [3]float64{vals[0], vals[1], vals[2]}
	a.setGlyphAttribute(func() bool {
		if next == *dst {
			return false
		}
		*dst = next
		return true
	})
	return nil
}

// SetBaseSize sets the glyph size before field scaling.
func (a PointAttributes) SetBaseSize(v []float64) error {
	return a.set3(&a.d.baseSize, v, "glyph base size")
}

// SetOffset moves the glyph origin in units of its scaled axes.
func (a PointAttributes) SetOffset(v []float64) error {
	return a.set3(&a.d.offset, v, "glyph offset")
}

// SetScaleFactors multiplies the orientation-scale sizes.
func (a PointAttributes) SetScaleFactors(v []float64) error {
	return a.set3(&a.d.scaleFactors, v, "glyph scale factors")
}

// SetLabelOffset moves labels in units of the scaled axes.
func (a PointAttributes) SetLabelOffset(v []float64) error {
	return a.set3(&a.d.labelOffset, v, "label offset")
}

// SetLabelText sets static label number i, 1-3.
func (a PointAttributes) SetLabelText(i int, text string) error {
	if i < 1 || i > 3 {
		return fmt.Errorf("graphics: label text %d: %w", i, ErrInvalidArgument)
	}
	a.setGlyphAttribute(func() bool {
		if a.d.labelText[i-1] == text {
			return false
		}
		a.d.labelText[i-1] = text
		return true
	})
	return nil
}

func orientationScaleCapable(f field.Field) bool {
	if f.ValueType() != field.ValueTypeReal {
		return false
	}
	switch f.NumberOfComponents() {
	case 1, 2, 3, 4, 6, 9:
		return true
	}
	return false
}

// SetOrientationScaleField orients and sizes glyphs: a scalar, or 1, 2 or 3
// vectors (1, 2, 3, 4, 6 or 9 components).
func (a PointAttributes) SetOrientationScaleField(f field.Field) error {
	return a.g.setField(&a.d.orientationScaleField, f, orientationScaleCapable, "orientation scale field", ChangeFullRebuild)
}

// SetSignedScaleField multiplies glyph sizes per axis; real, 1-3 components.
func (a PointAttributes) SetSignedScaleField(f field.Field) error {
	return a.g.setField(&a.d.signedScaleField, f, upTo(3), "signed scale field", ChangeFullRebuild)
}

// SetLabelField labels each glyph with the field's value.
func (a PointAttributes) SetLabelField(f field.Field) error {
	return a.g.setField(&a.d.labelField, f, anyField, "label field", ChangeFullRebuild)
}

// SetLabelDensityField sets label density per axis; real, 1-3 components.
func (a PointAttributes) SetLabelDensityField(f field.Field) error {
	return a.g.setField(&a.d.labelDensityField, f, upTo(3), "label density field", ChangeFullRebuild)
}

// GlyphAttributes returns the draw-time settings copied to built objects.
func (a PointAttributes) GlyphAttributes() gobject.GlyphAttributes {
	return gobject.GlyphAttributes{
		Glyph:        a.d.glyph,
		Font:         a.g.font,
		RepeatMode:   a.d.repeatMode,
		BaseSize:     a.d.baseSize,
		ScaleFactors: a.d.scaleFactors,
		Offset:       a.d.offset,
		LabelOffset:  a.d.labelOffset,
		LabelText:    a.d.labelText,
	}
}

// ---------------------------------------------------------------------------
// Sampling attributes: points and streamlines
// ---------------------------------------------------------------------------

// SamplingAttributes is a view of how elements are sampled.
type SamplingAttributes struct {
	g *Graphics
	d *samplingData
}

// SamplingAttributes returns the sampling settings; ErrWrongType unless the
// graphics is points or streamlines.
func (g *Graphics) SamplingAttributes() (SamplingAttributes, error) {
	switch p := g.payload.(type) {
	case *pointsPayload:
		return SamplingAttributes{g: g, d: &p.sampling}, nil
	case *streamlinesPayload:
		return SamplingAttributes{g: g, d: &p.sampling}, nil
	}
	return SamplingAttributes{}, fmt.Errorf("graphics: sampling attributes on %s: %w", g.typ, ErrWrongType)
}

func (a SamplingAttributes) Mode() SamplingMode         { return a.d.mode }
func (a SamplingAttributes) Location() [3]float64       { return a.d.location }
func (a SamplingAttributes) DensityField() field.Field { return a.d.densityField }

func (a SamplingAttributes) SetMode(m SamplingMode) error {
	if m < SampleCellCentres || m > SampleSetLocation {
		return fmt.Errorf("graphics: sampling mode %d: %w", int(m), ErrInvalidArgument)
	}
	if m == a.d.mode {
		return nil
	}
	a.d.mode = m
	a.g.changed(ChangeFullRebuild)
	return nil
}

// SetLocation sets the xi used by the set-location mode; missing values
// repeat the last.
func (a SamplingAttributes) SetLocation(xi []float64) error {
	vals, err := fill(xi, 3, "sample location")
	if err != nil {
		return err
	}
	next := [3]float64{vals[0], vals[1], vals[2]}
	if next == a.d.location {
		return nil
	}
	a.d.location = next
	a.g.changed(ChangeFullRebuild)
	return nil
}

// SetDensityField sets the scalar points-per-unit-volume field for Poisson
// sampling.
func (a SamplingAttributes) SetDensityField(f field.Field) error {
	return a.g.setField(&a.d.densityField, f, field.IsScalar, "sample density field", ChangeFullRebuild)
}
