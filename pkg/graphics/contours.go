package graphics

import (
	"fmt"
	"slices"

	"github.com/chazu/fegraphics/pkg/field"
)

// contourData holds either an explicit isovalue list or a range of count
// values evenly spaced from first to last.
type contourData struct {
	explicit            bool
	isovalues           []float64
	count               int
	first, last         float64
	isoscalarField      field.Field
	decimationThreshold float64
}

// Contours is a view of the contour settings.
type Contours struct {
	g *Graphics
	d *contourData
}

// Contours returns the contour settings; ErrWrongType unless contours.
func (g *Graphics) Contours() (Contours, error) {
	if p, ok := g.payload.(*contoursPayload); ok {
		return Contours{g: g, d: &p.contours}, nil
	}
	return Contours{}, fmt.Errorf("graphics: contours on %s: %w", g.typ, ErrWrongType)
}

func (c Contours) IsoscalarField() field.Field    { return c.d.isoscalarField }
func (c Contours) DecimationThreshold() float64   { return c.d.decimationThreshold }
func (c Contours) NumberOfIsovalues() int         { return c.d.count }
func (c Contours) HasExplicitIsovalues() bool     { return c.d.explicit }
func (c Contours) RangeFirst() float64            { return c.d.first }
func (c Contours) RangeLast() float64             { return c.d.last }
func (c Contours) ListIsovalues() []float64       { return slices.Clone(c.d.isovalues) }

// SetIsoscalarField sets the scalar field contoured.
func (c Contours) SetIsoscalarField(f field.Field) error {
	return c.g.setField(&c.d.isoscalarField, f, field.IsScalar, "isoscalar field", ChangeFullRebuild)
}

// SetDecimationThreshold merges near-coplanar facets of iso-surfaces;
// 0 disables.
func (c Contours) SetDecimationThreshold(t float64) error {
	if t < 0 {
		return fmt.Errorf("graphics: decimation threshold %g: %w", t, ErrInvalidArgument)
	}
	if t == c.d.decimationThreshold {
		return nil
	}
	c.d.decimationThreshold = t
	c.g.changed(ChangeFullRebuild)
	return nil
}

// SetListIsovalues switches to an explicit isovalue list, clearing any
// range.
func (c Contours) SetListIsovalues(values []float64) error {
	if c.d.explicit && slices.Equal(values, c.d.isovalues) {
		return nil
	}
	if !c.d.explicit && len(values) == 0 && c.d.count == 0 {
		return nil
	}
	c.d.explicit = len(values) > 0
	c.d.isovalues = slices.Clone(values)
	c.d.count = len(values)
	c.d.first, c.d.last = 0, 0
	c.g.changed(ChangeFullRebuild)
	return nil
}

// SetRangeIsovalues switches to count values evenly spaced from first to
// last, clearing any explicit list.
func (c Contours) SetRangeIsovalues(count int, first, last float64) error {
	if count < 0 {
		return fmt.Errorf("graphics: isovalue count %d: %w", count, ErrInvalidArgument)
	}
	if !c.d.explicit && count == c.d.count && first == c.d.first && last == c.d.last {
		return nil
	}
	c.d.explicit = false
	c.d.isovalues = nil
	c.d.count = count
	c.d.first, c.d.last = first, last
	c.g.changed(ChangeFullRebuild)
	return nil
}

// Isovalue returns value i of the list or range.
func (c Contours) Isovalue(i int) (float64, error) {
	if i < 0 || i >= c.d.count {
		return 0, fmt.Errorf("graphics: isovalue %d of %d: %w", i, c.d.count, ErrInvalidArgument)
	}
	if c.d.explicit {
		return c.d.isovalues[i], nil
	}
	step := 0.0
	if c.d.count > 1 {
		step = (c.d.last - c.d.first) / float64(c.d.count-1)
	}
	return c.d.first + float64(i)*step, nil
}

// Isovalues returns every value of the list or range in order.
func (c Contours) Isovalues() []float64 {
	out := make([]float64, c.d.count)
	for i := range out {
		out[i], _ = c.Isovalue(i)
	}
	return out
}
