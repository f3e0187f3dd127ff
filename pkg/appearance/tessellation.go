package appearance

import "fmt"

// Tessellation controls how many linear segments approximate each element:
// minimum divisions always apply, refinement factors multiply them when the
// coordinate or tessellation field is non-linear, and circle divisions set
// the facet count of circular extrusions.
type Tessellation struct {
	name              string
	minimumDivisions  []int
	refinementFactors []int
	circleDivisions   int
}

// NewTessellation returns a tessellation with 1 division, refinement 1 and
// 12 circle divisions.
func NewTessellation(name string) *Tessellation {
	return &Tessellation{
		name:              name,
		minimumDivisions:  []int{1},
		refinementFactors: []int{1},
		circleDivisions:   12,
	}
}

func (t *Tessellation) Name() string { return t.name }

// SetMinimumDivisions sets per-xi minimum divisions. Missing trailing values
// repeat the last one.
func (t *Tessellation) SetMinimumDivisions(divisions []int) error {
	if err := checkPositive("minimum divisions", divisions); err != nil {
		return fmt.Errorf("tessellation %q: %w", t.name, err)
	}
	t.minimumDivisions = append([]int(nil), divisions...)
	return nil
}

// SetRefinementFactors sets per-xi refinement factors.
func (t *Tessellation) SetRefinementFactors(factors []int) error {
	if err := checkPositive("refinement factors", factors); err != nil {
		return fmt.Errorf("tessellation %q: %w", t.name, err)
	}
	t.refinementFactors = append([]int(nil), factors...)
	return nil
}

// SetCircleDivisions sets the number of facets around circle extrusions;
// at least 3.
func (t *Tessellation) SetCircleDivisions(n int) error {
	if n < 3 {
		return fmt.Errorf("tessellation %q: circle divisions %d: %w", t.name, n, ErrInvalidArgument)
	}
	t.circleDivisions = n
	return nil
}

func (t *Tessellation) CircleDivisions() int { return t.circleDivisions }

// MinimumDivisions returns n values, repeating the last stored value.
func (t *Tessellation) MinimumDivisions(n int) []int {
	return expand(t.minimumDivisions, n)
}

// RefinementFactors returns n values, repeating the last stored value.
func (t *Tessellation) RefinementFactors(n int) []int {
	return expand(t.refinementFactors, n)
}

// Divisions returns the number of segments per xi direction for an element
// of the given dimension, refined when nonLinear is set.
func (t *Tessellation) Divisions(dimension int, nonLinear bool) []int {
	div := t.MinimumDivisions(dimension)
	if nonLinear {
		for i, f := range t.RefinementFactors(dimension) {
			div[i] *= f
		}
	}
	return div
}

func expand(values []int, n int) []int {
	out := make([]int, n)
	for i := range out {
		switch {
		case i < len(values):
			out[i] = values[i]
		case len(values) > 0:
			out[i] = values[len(values)-1]
		default:
			out[i] = 1
		}
	}
	return out
}

func checkPositive(what string, values []int) error {
	if len(values) == 0 {
		return fmt.Errorf("%s: empty: %w", what, ErrInvalidArgument)
	}
	for _, v := range values {
		if v < 1 {
			return fmt.Errorf("%s: %d: %w", what, v, ErrInvalidArgument)
		}
	}
	return nil
}
