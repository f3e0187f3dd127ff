package femesh

import (
	"fmt"

	"github.com/chazu/fegraphics/pkg/field"
	"github.com/viterin/vek"
)

type fieldBase struct {
	name       string
	components int
	valueType  field.ValueType
	system     field.CoordinateSystem
	region     *Region
	outer      field.Field
}

func (f *fieldBase) Name() string                             { return f.name }
func (f *fieldBase) NumberOfComponents() int                  { return f.components }
func (f *fieldBase) ValueType() field.ValueType               { return f.valueType }
func (f *fieldBase) CoordinateSystem() field.CoordinateSystem { return f.system }

// SetCoordinateSystem changes how the components are interpreted as a
// position. It is a definition change.
func (f *fieldBase) SetCoordinateSystem(cs field.CoordinateSystem) {
	if cs == f.system {
		return
	}
	f.system = cs
	f.region.fieldChanged(f.outer, field.ChangeDefinition)
}

// NodalField stores values at nodes and interpolates them linearly over
// elements.
type NodalField struct {
	fieldBase
	values map[*Node][]float64
}

// NodeValues returns the values stored at n.
func (f *NodalField) NodeValues(n *Node) ([]float64, bool) {
	v, ok := f.values[n]
	return v, ok
}

// SetNodeValues stores values at n, one per component.
func (f *NodalField) SetNodeValues(n *Node, values ...float64) error {
	if len(values) != f.components {
		return fmt.Errorf("femesh: field %q needs %d values, got %d: %w", f.name, f.components, len(values), ErrInvalidArgument)
	}
	if n == nil || n.nodeset.region != f.region {
		return fmt.Errorf("femesh: field %q: node from another region: %w", f.name, ErrInvalidArgument)
	}
	f.values[n] = append([]float64(nil), values...)
	f.region.nodeValueChanged(f, n)
	return nil
}

// Transform replaces every stored value with fn of itself, as one full
// result change.
func (f *NodalField) Transform(fn func(n *Node, values []float64) []float64) error {
	r := f.region
	r.BeginChange()
	defer r.EndChange()
	for n, v := range f.values {
		out := fn(n, append([]float64(nil), v...))
		if len(out) != f.components {
			return fmt.Errorf("femesh: field %q: transform returned %d values: %w", f.name, len(out), ErrInvalidArgument)
		}
		f.values[n] = out
	}
	r.fieldChanged(f, field.ChangeFullResult)
	return nil
}

func (f *NodalField) evaluateNode(n *Node) ([]float64, error) {
	v, ok := f.values[n]
	if !ok {
		return nil, field.ErrNotDefined
	}
	return append([]float64(nil), v...), nil
}

func (f *NodalField) evaluateElement(e *Element, xi []float64) ([]float64, error) {
	w := basis(e.Dimension(), xi)
	out := make([]float64, f.components)
	for local, n := range e.nodes {
		v, ok := f.values[n]
		if !ok {
			return nil, field.ErrNotDefined
		}
		if w[local] != 0 {
			vek.Add_Inplace(out, vek.MulNumber(v, w[local]))
		}
	}
	return out, nil
}

// ConstantField has the same value everywhere.
type ConstantField struct {
	fieldBase
	values []float64
}

// SetValues changes the constant; the length must not change.
func (f *ConstantField) SetValues(values ...float64) error {
	if len(values) != f.components {
		return fmt.Errorf("femesh: field %q needs %d values, got %d: %w", f.name, f.components, len(values), ErrInvalidArgument)
	}
	f.values = append([]float64(nil), values...)
	f.region.fieldChanged(f, field.ChangeFullResult)
	return nil
}

// Function computes a field value from its source values at the same
// location and the cache time.
type Function func(time float64, sources [][]float64) ([]float64, error)

// FunctionField is a real field computed from other fields.
type FunctionField struct {
	fieldBase
	sources       []field.Field
	fn            Function
	nonLinear     bool
	timeDependent bool
}

// IsNonLinear reports whether the function is non-linear in its sources,
// which refines tessellation.
func (f *FunctionField) IsNonLinear() bool { return f.nonLinear }

// SetNonLinear marks the function as curving straight element edges.
func (f *FunctionField) SetNonLinear(v bool) { f.nonLinear = v }

// IsTimeDependent reports whether the function reads the cache time.
func (f *FunctionField) IsTimeDependent() bool {
	if f.timeDependent {
		return true
	}
	for _, s := range f.sources {
		if field.IsTimeDependent(s) {
			return true
		}
	}
	return false
}

// SetTimeDependent marks the function as reading the cache time.
func (f *FunctionField) SetTimeDependent(v bool) { f.timeDependent = v }

// Sources returns the fields the function reads.
func (f *FunctionField) Sources() []field.Field { return f.sources }

// GroupField is a scalar predicate true on its member nodes and elements.
// Adding an element also adds its faces.
type GroupField struct {
	fieldBase
	nodes    map[*Node]struct{}
	elements map[*Element]struct{}
}

func (g *GroupField) hasNode(n *Node) bool {
	_, ok := g.nodes[n]
	return ok
}

func (g *GroupField) hasElement(e *Element) bool {
	_, ok := g.elements[e]
	return ok
}

// IsEmpty reports whether the group has no members.
func (g *GroupField) IsEmpty() bool { return len(g.nodes) == 0 && len(g.elements) == 0 }

// AddNodes adds nodes to the group.
func (g *GroupField) AddNodes(nodes ...*Node) {
	g.edit(func() bool {
		changed := false
		for _, n := range nodes {
			if !g.hasNode(n) {
				g.nodes[n] = struct{}{}
				changed = true
			}
		}
		return changed
	})
}

// RemoveNodes removes nodes from the group.
func (g *GroupField) RemoveNodes(nodes ...*Node) {
	g.edit(func() bool {
		changed := false
		for _, n := range nodes {
			if g.hasNode(n) {
				delete(g.nodes, n)
				changed = true
			}
		}
		return changed
	})
}

// AddElements adds elements and all their faces to the group.
func (g *GroupField) AddElements(elements ...*Element) {
	g.edit(func() bool {
		changed := false
		var add func(e *Element)
		add = func(e *Element) {
			if e == nil || g.hasElement(e) {
				return
			}
			g.elements[e] = struct{}{}
			changed = true
			for _, f := range e.faces {
				add(f)
			}
		}
		for _, e := range elements {
			add(e)
		}
		return changed
	})
}

// RemoveElements removes elements, leaving their faces.
func (g *GroupField) RemoveElements(elements ...*Element) {
	g.edit(func() bool {
		changed := false
		for _, e := range elements {
			if g.hasElement(e) {
				delete(g.elements, e)
				changed = true
			}
		}
		return changed
	})
}

// Clear removes every member.
func (g *GroupField) Clear() {
	g.edit(func() bool {
		if g.IsEmpty() {
			return false
		}
		clear(g.nodes)
		clear(g.elements)
		return true
	})
}

// edit applies a membership change and reports it. Membership changes are
// full result changes of the group field; the selection group reports a
// selection change instead.
func (g *GroupField) edit(fn func() bool) {
	r := g.region
	r.BeginChange()
	defer r.EndChange()
	if !fn() {
		return
	}
	if g == r.selection {
		r.event.SetSelectionChanged()
		return
	}
	r.fieldChanged(g, field.ChangeFullResult)
}

// MeshLocationField stores an element and xi per node.
type MeshLocationField struct {
	fieldBase
	locations map[*Node]meshLocation
}

type meshLocation struct {
	element *Element
	xi      []float64
}

// SetNodeLocation stores the location of n.
func (f *MeshLocationField) SetNodeLocation(n *Node, e *Element, xi ...float64) error {
	if e == nil || e.mesh.region != f.region {
		return fmt.Errorf("femesh: field %q: element from another region: %w", f.name, ErrInvalidArgument)
	}
	if len(xi) != e.Dimension() {
		return fmt.Errorf("femesh: field %q: location needs %d xi: %w", f.name, e.Dimension(), ErrInvalidArgument)
	}
	f.locations[n] = meshLocation{element: e, xi: append([]float64(nil), xi...)}
	f.region.nodeValueChanged(f, n)
	return nil
}

// StringField stores a string per node.
type StringField struct {
	fieldBase
	values map[*Node]string
}

// SetNodeString stores s at n.
func (f *StringField) SetNodeString(n *Node, s string) {
	f.values[n] = s
	f.region.nodeValueChanged(f, n)
}

// IdentifierField evaluates to the identifier of the current element or
// node.
type IdentifierField struct {
	fieldBase
}
