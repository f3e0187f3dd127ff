package gobject

import (
	"fmt"

	"github.com/chazu/fegraphics/pkg/appearance"
	"github.com/golang/geo/r3"
)

// GlyphRepeatMode controls how many times a glyph is drawn per point.
type GlyphRepeatMode int

const (
	RepeatNone GlyphRepeatMode = iota
	RepeatAxesTwo
	RepeatAxesThree
	RepeatMirror
)

var repeatNames = []string{"none", "axes_2d", "axes_3d", "mirror"}

func (m GlyphRepeatMode) String() string {
	if int(m) >= 0 && int(m) < len(repeatNames) {
		return repeatNames[m]
	}
	return fmt.Sprintf("GlyphRepeatMode(%d)", int(m))
}

// ParseGlyphRepeatMode is the inverse of GlyphRepeatMode.String.
func ParseGlyphRepeatMode(s string) (GlyphRepeatMode, error) {
	for i, n := range repeatNames {
		if n == s {
			return GlyphRepeatMode(i), nil
		}
	}
	return 0, fmt.Errorf("gobject: unknown glyph repeat mode %q", s)
}

// GlyphInstance is one glyph placed at a sample point. Axes and Size come
// from the orientation-scale and signed-scale fields; base size, scale
// factors and offset are applied at draw time from GlyphAttributes.
type GlyphInstance struct {
	Position [3]float32    `json:"position"`
	Axes     [3][3]float32 `json:"axes"`
	Size     [3]float32    `json:"size"`
	Data     []float32     `json:"data,omitempty"`
	Label    string        `json:"label,omitempty"`
}

// GlyphAttributes are the draw-time glyph settings patched in place when
// only appearance changes.
type GlyphAttributes struct {
	Glyph        *appearance.Glyph
	Font         *appearance.Font
	RepeatMode   GlyphRepeatMode
	BaseSize     [3]float64
	ScaleFactors [3]float64
	Offset       [3]float64
	LabelOffset  [3]float64
	LabelText    [3]string
}

// FinalAxes returns the scaled axes and the offset origin of glyph i:
// axis k is scaled by BaseSize[k] + ScaleFactors[k]*Size[k] and the origin
// is moved by Offset in units of the scaled axes.
func (o *Object) FinalAxes(i int) (origin [3]float64, axes [3][3]float64) {
	g := o.Glyphs[i]
	a := o.GlyphAttributes
	pos := r3.Vector{X: float64(g.Position[0]), Y: float64(g.Position[1]), Z: float64(g.Position[2])}
	for k := 0; k < 3; k++ {
		scale := a.BaseSize[k] + a.ScaleFactors[k]*float64(g.Size[k])
		axis := r3.Vector{X: float64(g.Axes[k][0]), Y: float64(g.Axes[k][1]), Z: float64(g.Axes[k][2])}.Mul(scale)
		axes[k] = [3]float64{axis.X, axis.Y, axis.Z}
		pos = pos.Add(axis.Mul(a.Offset[k]))
	}
	return [3]float64{pos.X, pos.Y, pos.Z}, axes
}
