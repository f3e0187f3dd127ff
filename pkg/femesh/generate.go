package femesh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/fegraphics/pkg/field"
)

// Grid creates a regular grid of linear elements over the unit line, square
// or cube, one count per dimension, with node and element identifiers from
// 1 in lexicographic order (x fastest). It defines a nodal "coordinates"
// field with one component per dimension and generates faces.
func (r *Region) Grid(counts ...int) (*NodalField, error) {
	dim := len(counts)
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("femesh: grid of dimension %d: %w", dim, ErrInvalidArgument)
	}
	for _, n := range counts {
		if n < 1 {
			return nil, fmt.Errorf("femesh: grid counts %v: %w", counts, ErrInvalidArgument)
		}
	}
	r.BeginChange()
	defer r.EndChange()

	coords, err := r.NewNodalField("coordinates", dim)
	if err != nil {
		return nil, err
	}
	// Node strides along each xi.
	strides := make([]int, dim)
	total := 1
	for k := 0; k < dim; k++ {
		strides[k] = total
		total *= counts[k] + 1
	}
	first := r.nodes.Size() + 1
	for i := 0; i < total; i++ {
		n, err := r.CreateNode(field.DomainNodes, first+i)
		if err != nil {
			return nil, err
		}
		pos := make([]float64, dim)
		for k := 0; k < dim; k++ {
			pos[k] = float64((i/strides[k])%(counts[k]+1)) / float64(counts[k])
		}
		if err := coords.SetNodeValues(n, pos...); err != nil {
			return nil, err
		}
	}

	elements := 1
	for _, n := range counts {
		elements *= n
	}
	for i := 0; i < elements; i++ {
		// Element grid position along each xi.
		cell := make([]int, dim)
		rem := i
		for k := 0; k < dim; k++ {
			cell[k] = rem % counts[k]
			rem /= counts[k]
		}
		nodeIDs := make([]int, 1<<dim)
		for local := range nodeIDs {
			offset := 0
			for k := 0; k < dim; k++ {
				offset += (cell[k] + (local>>k)&1) * strides[k]
			}
			nodeIDs[local] = first + offset
		}
		if _, err := r.CreateElement(dim, i+1, nodeIDs...); err != nil {
			return nil, err
		}
	}
	if err := r.DefineFaces(); err != nil {
		return nil, err
	}
	return coords, nil
}

// ParseGrid reads a grid description such as "cube:4", "square:3x2" or
// "line:5" into per-dimension element counts.
func ParseGrid(s string) ([]int, error) {
	shape, sizes, ok := strings.Cut(s, ":")
	if !ok {
		sizes = "1"
	}
	var dim int
	switch shape {
	case "line":
		dim = 1
	case "square":
		dim = 2
	case "cube":
		dim = 3
	default:
		return nil, fmt.Errorf("femesh: grid %q: unknown shape %q: %w", s, shape, ErrInvalidArgument)
	}
	parts := strings.Split(sizes, "x")
	if len(parts) != 1 && len(parts) != dim {
		return nil, fmt.Errorf("femesh: grid %q: want 1 or %d sizes: %w", s, dim, ErrInvalidArgument)
	}
	counts := make([]int, dim)
	for k := range counts {
		p := parts[0]
		if len(parts) == dim {
			p = parts[k]
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("femesh: grid %q: size %q: %w", s, p, ErrInvalidArgument)
		}
		counts[k] = n
	}
	return counts, nil
}
