package femesh

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/fegraphics/pkg/field"
)

// Cache evaluates the fields of one region at a location. It is not safe
// for concurrent use; create one per goroutine.
type Cache struct {
	region  *Region
	time    float64
	element *Element
	xi      []float64
	node    *Node
}

var _ field.Cache = (*Cache)(nil)

func (c *Cache) SetTime(t float64) { c.time = t }
func (c *Cache) Time() float64     { return c.time }

func (c *Cache) ClearLocation() {
	c.element, c.xi, c.node = nil, nil, nil
}

func (c *Cache) SetElement(e field.Element, xi []float64) error {
	el, ok := e.(*Element)
	if !ok || el.mesh.region != c.region {
		return fmt.Errorf("femesh: cache: element from another region: %w", ErrInvalidArgument)
	}
	if len(xi) != el.Dimension() {
		return fmt.Errorf("femesh: cache: %dD element given %d xi: %w", el.Dimension(), len(xi), ErrInvalidArgument)
	}
	c.element = el
	c.xi = append(c.xi[:0], xi...)
	c.node = nil
	return nil
}

func (c *Cache) SetNode(n field.Node) error {
	nd, ok := n.(*Node)
	if !ok || nd.nodeset.region != c.region {
		return fmt.Errorf("femesh: cache: node from another region: %w", ErrInvalidArgument)
	}
	c.node = nd
	c.element, c.xi = nil, nil
	return nil
}

// Evaluate returns the real values of f at the current location.
func (c *Cache) Evaluate(f field.Field) ([]float64, error) {
	switch f := f.(type) {
	case *ConstantField:
		return append([]float64(nil), f.values...), nil
	case *NodalField:
		switch {
		case c.node != nil:
			return f.evaluateNode(c.node)
		case c.element != nil:
			return c.memoised(f, func() ([]float64, error) { return f.evaluateElement(c.element, c.xi) })
		}
		return nil, field.ErrNotDefined
	case *FunctionField:
		if c.element != nil {
			return c.memoised(f, func() ([]float64, error) { return c.evaluateFunction(f) })
		}
		return c.evaluateFunction(f)
	case *GroupField:
		switch {
		case c.node != nil:
			return boolValue(f.hasNode(c.node)), nil
		case c.element != nil:
			return boolValue(f.hasElement(c.element)), nil
		}
		return nil, field.ErrNotDefined
	case *IdentifierField:
		switch {
		case c.node != nil:
			return []float64{float64(c.node.id)}, nil
		case c.element != nil:
			return []float64{float64(c.element.id)}, nil
		}
		return nil, field.ErrNotDefined
	case *MeshLocationField, *StringField:
		return nil, fmt.Errorf("femesh: field %q is not real valued: %w", f.Name(), ErrInvalidArgument)
	case nil:
		return nil, fmt.Errorf("femesh: evaluate nil field: %w", ErrInvalidArgument)
	}
	return nil, fmt.Errorf("femesh: field %q: %w", f.Name(), ErrUnknownField)
}

func (c *Cache) evaluateFunction(f *FunctionField) ([]float64, error) {
	args := make([][]float64, len(f.sources))
	for i, s := range f.sources {
		v, err := c.Evaluate(s)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	out, err := f.fn(c.time, args)
	if err != nil {
		return nil, fmt.Errorf("femesh: field %q: %w", f.name, err)
	}
	if len(out) != f.components {
		return nil, fmt.Errorf("femesh: field %q returned %d values: %w", f.name, len(out), ErrInvalidArgument)
	}
	return out, nil
}

// memoised looks the element evaluation of f up in the region cache. Keys
// carry the region generation, so any change invalidates every entry.
func (c *Cache) memoised(f field.Field, eval func() ([]float64, error)) ([]float64, error) {
	memo := c.region.memo
	if memo == nil {
		return eval()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%p|%p|%g", c.region.generation, f, c.element, c.time)
	for _, x := range c.xi {
		b.WriteByte('|')
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	}
	key := b.String()
	if v, ok := memo.Get(key); ok {
		return append([]float64(nil), v...), nil
	}
	v, err := eval()
	if err != nil {
		return nil, err
	}
	memo.Set(key, append([]float64(nil), v...), 1)
	return v, nil
}

// EvaluateString formats f at the current location. String fields return
// their stored text; real fields their components separated by commas.
func (c *Cache) EvaluateString(f field.Field) (string, error) {
	if sf, ok := f.(*StringField); ok {
		if c.node == nil {
			return "", field.ErrNotDefined
		}
		s, ok := sf.values[c.node]
		if !ok {
			return "", field.ErrNotDefined
		}
		return s, nil
	}
	v, err := c.Evaluate(f)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatFloat(x, 'g', 6, 64)
	}
	return strings.Join(parts, ","), nil
}

// EvaluateMeshLocation returns the stored element and xi of f at the
// current node.
func (c *Cache) EvaluateMeshLocation(f field.Field) (field.Element, []float64, error) {
	mf, ok := f.(*MeshLocationField)
	if !ok {
		return nil, nil, fmt.Errorf("femesh: field %q is not a mesh location field: %w", f.Name(), ErrInvalidArgument)
	}
	if c.node == nil {
		return nil, nil, field.ErrNotDefined
	}
	loc, ok := mf.locations[c.node]
	if !ok || loc.element.mesh.byID[loc.element.id] != loc.element {
		return nil, nil, field.ErrNotDefined
	}
	return loc.element, append([]float64(nil), loc.xi...), nil
}

func boolValue(b bool) []float64 {
	if b {
		return []float64{1}
	}
	return []float64{0}
}
