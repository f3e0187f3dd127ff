// Package femesh is a small in-memory finite element region: linear
// Lagrange line, square and cube elements with generated faces, nodes and
// datapoints, a handful of field kinds and change events. It implements
// the field package interfaces for tests and the fegfx binary.
package femesh

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/logging"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/samber/lo"
	"github.com/viterin/vek"
	"go.uber.org/zap"
)

var (
	ErrInvalidArgument     = errors.New("femesh: invalid argument")
	ErrDuplicateIdentifier = errors.New("femesh: duplicate identifier")
	ErrUnknownField        = errors.New("femesh: unknown field")
)

// Listener is told of the changes made between the outermost BeginChange
// and EndChange.
type Listener func(ev *field.Event)

// Option configures a Region.
type Option func(*Region)

// WithEvaluationCache memoises element evaluations of interpolated and
// function fields, bounded to maxEntries values. Zero disables it.
func WithEvaluationCache(maxEntries int64) Option {
	return func(r *Region) { r.memoSize = maxEntries }
}

// Region owns the nodes, datapoints, meshes and fields of one model.
type Region struct {
	name       string
	nodes      *Nodeset
	datapoints *Nodeset
	meshes     [4]*Mesh
	fields     map[string]field.Field
	selection  *GroupField

	memoSize   int64
	memo       *ristretto.Cache[string, []float64]
	generation uint64

	changeDepth int
	event       *field.Event
	listeners   []Listener
}

var _ field.Module = (*Region)(nil)

// NewRegion returns an empty region.
func NewRegion(name string, opts ...Option) (*Region, error) {
	r := &Region{
		name:   name,
		fields: make(map[string]field.Field),
		event:  field.NewEvent(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.nodes = newNodeset(r, field.DomainNodes)
	r.datapoints = newNodeset(r, field.DomainDatapoints)
	for d := 1; d <= 3; d++ {
		r.meshes[d] = newMesh(r, d)
	}
	if r.memoSize > 0 {
		memo, err := ristretto.NewCache(&ristretto.Config[string, []float64]{
			NumCounters: r.memoSize * 10,
			MaxCost:     r.memoSize,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("femesh: evaluation cache: %w", err)
		}
		r.memo = memo
	}
	return r, nil
}

// Close releases the evaluation cache.
func (r *Region) Close() {
	if r.memo != nil {
		r.memo.Close()
		r.memo = nil
	}
}

func (r *Region) Name() string { return r.name }

// HighestDimension is the largest dimension with any elements, or 0.
func (r *Region) HighestDimension() int {
	for d := 3; d >= 1; d-- {
		if r.meshes[d].Size() > 0 {
			return d
		}
	}
	return 0
}

// Mesh returns the mesh of dimension 1 to 3.
func (r *Region) Mesh(dimension int) *Mesh {
	if dimension < 1 || dimension > 3 {
		return nil
	}
	return r.meshes[dimension]
}

func (r *Region) FindMeshByDimension(dimension int) field.Mesh {
	if m := r.Mesh(dimension); m != nil {
		return m
	}
	return nil
}

func (r *Region) Nodes() *Nodeset      { return r.nodes }
func (r *Region) Datapoints() *Nodeset { return r.datapoints }

func (r *Region) FindNodeset(domain field.DomainType) field.Nodeset {
	switch domain {
	case field.DomainNodes:
		return r.nodes
	case field.DomainDatapoints:
		return r.datapoints
	}
	return nil
}

func (r *Region) NewCache() field.Cache {
	return &Cache{region: r}
}

func (r *Region) ElementGroupMesh(subgroup field.Field, master field.Mesh) field.Mesh {
	g, ok := subgroup.(*GroupField)
	if !ok || g.region != r {
		return nil
	}
	m, ok := master.(*Mesh)
	if !ok || m.region != r {
		return nil
	}
	if !lo.SomeBy(lo.Keys(g.elements), func(e *Element) bool { return e.mesh == m }) {
		return nil
	}
	return newGroupMesh(g, m)
}

func (r *Region) NodeGroupNodeset(subgroup field.Field, master field.Nodeset) field.Nodeset {
	g, ok := subgroup.(*GroupField)
	if !ok || g.region != r {
		return nil
	}
	ns, ok := master.(*Nodeset)
	if !ok || ns.region != r {
		return nil
	}
	if !lo.SomeBy(lo.Keys(g.nodes), func(n *Node) bool { return n.nodeset == ns }) {
		return nil
	}
	return newGroupNodeset(g, ns)
}

func (r *Region) SelectionGroup() field.Field {
	if r.selection == nil {
		return nil
	}
	return r.selection
}

// Selection returns the selection group, creating it on first use.
func (r *Region) Selection() *GroupField {
	if r.selection == nil {
		r.selection = r.newGroup("cmiss_selection")
	}
	return r.selection
}

// ---------------------------------------------------------------------------
// Fields
// ---------------------------------------------------------------------------

// FindField returns the field called name, or nil.
func (r *Region) FindField(name string) field.Field {
	return r.fields[name]
}

// FieldNames lists the fields in name order.
func (r *Region) FieldNames() []string {
	names := lo.Keys(r.fields)
	sort.Strings(names)
	return names
}

func (r *Region) register(name string, f field.Field) error {
	if name == "" {
		return fmt.Errorf("femesh: empty field name: %w", ErrInvalidArgument)
	}
	if _, dup := r.fields[name]; dup {
		return fmt.Errorf("femesh: field %q exists: %w", name, ErrInvalidArgument)
	}
	r.fields[name] = f
	return nil
}

func registered[F field.Field](r *Region, f F) (F, error) {
	if err := r.register(f.Name(), f); err != nil {
		var zero F
		return zero, err
	}
	return f, nil
}

func (r *Region) base(name string, components int, vt field.ValueType) fieldBase {
	return fieldBase{name: name, components: components, valueType: vt, region: r}
}

// NewNodalField defines a real field interpolated from node values.
func (r *Region) NewNodalField(name string, components int) (*NodalField, error) {
	if components < 1 {
		return nil, fmt.Errorf("femesh: field %q: %d components: %w", name, components, ErrInvalidArgument)
	}
	f := &NodalField{fieldBase: r.base(name, components, field.ValueTypeReal), values: make(map[*Node][]float64)}
	f.outer = f
	return registered(r, f)
}

// NewConstantField defines a real field with the same value everywhere.
func (r *Region) NewConstantField(name string, values ...float64) (*ConstantField, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("femesh: field %q: no values: %w", name, ErrInvalidArgument)
	}
	f := &ConstantField{fieldBase: r.base(name, len(values), field.ValueTypeReal), values: append([]float64(nil), values...)}
	f.outer = f
	return registered(r, f)
}

// NewFunctionField defines a real field computed by fn from sources.
func (r *Region) NewFunctionField(name string, components int, fn Function, sources ...field.Field) (*FunctionField, error) {
	if components < 1 || fn == nil {
		return nil, fmt.Errorf("femesh: field %q: %w", name, ErrInvalidArgument)
	}
	for _, s := range sources {
		if s == nil || s.ValueType() != field.ValueTypeReal {
			return nil, fmt.Errorf("femesh: field %q: sources must be real: %w", name, ErrInvalidArgument)
		}
	}
	f := &FunctionField{fieldBase: r.base(name, components, field.ValueTypeReal), sources: sources, fn: fn}
	f.outer = f
	return registered(r, f)
}

// NewMagnitudeField defines the vector length of source.
func (r *Region) NewMagnitudeField(name string, source field.Field) (*FunctionField, error) {
	return r.NewFunctionField(name, 1, func(_ float64, args [][]float64) ([]float64, error) {
		return []float64{vek.Norm(args[0])}, nil
	}, source)
}

// NewComponentField defines component i (0-based) of source.
func (r *Region) NewComponentField(name string, source field.Field, i int) (*FunctionField, error) {
	if source == nil || i < 0 || i >= source.NumberOfComponents() {
		return nil, fmt.Errorf("femesh: field %q: component %d: %w", name, i, ErrInvalidArgument)
	}
	return r.NewFunctionField(name, 1, func(_ float64, args [][]float64) ([]float64, error) {
		return []float64{args[0][i]}, nil
	}, source)
}

// NewGroup defines an empty group.
func (r *Region) NewGroup(name string) (*GroupField, error) {
	g := r.newGroup(name)
	return registered(r, g)
}

func (r *Region) newGroup(name string) *GroupField {
	g := &GroupField{
		fieldBase: r.base(name, 1, field.ValueTypeReal),
		nodes:     make(map[*Node]struct{}),
		elements:  make(map[*Element]struct{}),
	}
	g.outer = g
	return g
}

// NewMeshLocationField defines a stored element and xi per node.
func (r *Region) NewMeshLocationField(name string) (*MeshLocationField, error) {
	f := &MeshLocationField{fieldBase: r.base(name, 1, field.ValueTypeMeshLocation), locations: make(map[*Node]meshLocation)}
	f.outer = f
	return registered(r, f)
}

// NewStringField defines a stored string per node.
func (r *Region) NewStringField(name string) (*StringField, error) {
	f := &StringField{fieldBase: r.base(name, 1, field.ValueTypeString), values: make(map[*Node]string)}
	f.outer = f
	return registered(r, f)
}

// NewIdentifierField defines the element or node identifier as a field.
func (r *Region) NewIdentifierField(name string) (*IdentifierField, error) {
	f := &IdentifierField{fieldBase: r.base(name, 1, field.ValueTypeReal)}
	f.outer = f
	return registered(r, f)
}

// ---------------------------------------------------------------------------
// Nodes and elements
// ---------------------------------------------------------------------------

// CreateNode adds a node or datapoint.
func (r *Region) CreateNode(domain field.DomainType, id int) (*Node, error) {
	ns, ok := r.FindNodeset(domain).(*Nodeset)
	if !ok {
		return nil, fmt.Errorf("femesh: create node in %s: %w", domain, ErrInvalidArgument)
	}
	n, err := ns.add(id)
	if err != nil {
		return nil, err
	}
	r.record(func(ev *field.Event) { ev.NodeLog(domain).Record(id, field.ChangeAdd) })
	return n, nil
}

// CreateElement adds an element of the given dimension over 2^dimension
// nodes listed in lexicographic xi order.
func (r *Region) CreateElement(dimension, id int, nodeIDs ...int) (*Element, error) {
	m := r.Mesh(dimension)
	if m == nil {
		return nil, fmt.Errorf("femesh: element dimension %d: %w", dimension, ErrInvalidArgument)
	}
	if len(nodeIDs) != 1<<dimension {
		return nil, fmt.Errorf("femesh: %dD element needs %d nodes, got %d: %w", dimension, 1<<dimension, len(nodeIDs), ErrInvalidArgument)
	}
	nodes := make([]*Node, len(nodeIDs))
	for i, nid := range nodeIDs {
		if nodes[i] = r.nodes.Find(nid); nodes[i] == nil {
			return nil, fmt.Errorf("femesh: element %d: node %d: %w", id, nid, ErrInvalidArgument)
		}
	}
	e, err := m.add(id, nodes)
	if err != nil {
		return nil, err
	}
	r.record(func(ev *field.Event) { ev.ElementLog(dimension).Record(id, field.ChangeAdd) })
	return e, nil
}

// DefineFaces creates the faces of every element of the highest dimension,
// and their faces in turn, sharing faces between neighbours.
func (r *Region) DefineFaces() error {
	r.BeginChange()
	defer r.EndChange()
	for d := r.HighestDimension(); d >= 2; d-- {
		faces := r.meshes[d-1]
		byNodes := make(map[string]*Element, faces.Size())
		for _, f := range faces.elements {
			byNodes[nodeKey(f.nodes)] = f
		}
		for _, e := range r.meshes[d].elements {
			if e.faces != nil {
				continue
			}
			e.faces = make([]*Element, 2*d)
			for fn := range e.faces {
				locals := faceLocalNodes(d, fn)
				nodes := lo.Map(locals, func(l int, _ int) *Node { return e.nodes[l] })
				key := nodeKey(nodes)
				f, ok := byNodes[key]
				if !ok {
					id := len(faces.elements) + 1
					for faces.byID[id] != nil {
						id++
					}
					var err error
					if f, err = faces.add(id, nodes); err != nil {
						return err
					}
					byNodes[key] = f
					r.event.ElementLog(d-1).Record(id, field.ChangeAdd)
				}
				f.parents = append(f.parents, faceRef{parent: e, face: fn})
				e.faces[fn] = f
			}
		}
	}
	return nil
}

func nodeKey(nodes []*Node) string {
	ids := lo.Map(nodes, func(n *Node, _ int) int { return n.id })
	sort.Ints(ids)
	return strings.Join(lo.Map(ids, func(id int, _ int) string { return strconv.Itoa(id) }), ",")
}

// RemoveElement deletes e. Its faces stay but lose e as a parent and are
// logged as changed, since their exterior state may flip.
func (r *Region) RemoveElement(e *Element) error {
	if e == nil || e.mesh.region != r || !e.mesh.Contains(e) {
		return fmt.Errorf("femesh: remove element: %w", ErrInvalidArgument)
	}
	r.BeginChange()
	defer r.EndChange()
	dim := e.Dimension()
	r.event.ElementLog(dim).Record(e.id, field.ChangeRemove)
	for _, f := range e.faces {
		if f == nil {
			continue
		}
		f.parents = lo.Reject(f.parents, func(p faceRef, _ int) bool { return p.parent == e })
		r.logFaces(f, field.ChangePartialResult)
	}
	for _, p := range e.parents {
		p.parent.faces[p.face] = nil
	}
	e.mesh.remove(e)
	for _, g := range r.groups() {
		delete(g.elements, e)
	}
	return nil
}

// logFaces records f and every face below it.
func (r *Region) logFaces(f *Element, flags field.ChangeFlags) {
	r.event.ElementLog(f.Dimension()).Record(f.id, flags)
	for _, sub := range f.faces {
		if sub != nil {
			r.logFaces(sub, flags)
		}
	}
}

// SetElementIdentifier renumbers e.
func (r *Region) SetElementIdentifier(e *Element, id int) error {
	if e == nil || e.mesh.region != r {
		return fmt.Errorf("femesh: renumber element: %w", ErrInvalidArgument)
	}
	if id == e.id {
		return nil
	}
	if e.mesh.byID[id] != nil {
		return fmt.Errorf("femesh: renumber element %d to %d: %w", e.id, id, ErrDuplicateIdentifier)
	}
	delete(e.mesh.byID, e.id)
	e.id = id
	e.mesh.byID[id] = e
	r.record(func(ev *field.Event) { ev.ElementLog(e.Dimension()).Record(id, field.ChangeIdentifier) })
	return nil
}

// SetNodeIdentifier renumbers n.
func (r *Region) SetNodeIdentifier(n *Node, id int) error {
	if n == nil || n.nodeset.region != r {
		return fmt.Errorf("femesh: renumber node: %w", ErrInvalidArgument)
	}
	if id == n.id {
		return nil
	}
	ns := n.nodeset
	if ns.byID[id] != nil {
		return fmt.Errorf("femesh: renumber node %d to %d: %w", n.id, id, ErrDuplicateIdentifier)
	}
	delete(ns.byID, n.id)
	n.id = id
	ns.byID[id] = n
	r.record(func(ev *field.Event) { ev.NodeLog(ns.domain).Record(id, field.ChangeIdentifier) })
	return nil
}

func (r *Region) groups() []*GroupField {
	var out []*GroupField
	for _, f := range r.fields {
		if g, ok := f.(*GroupField); ok {
			out = append(out, g)
		}
	}
	if r.selection != nil {
		out = append(out, r.selection)
	}
	return out
}

// ---------------------------------------------------------------------------
// Topology
// ---------------------------------------------------------------------------

// ElementsUsingNodes returns the identifiers of elements of dimension that
// reference any of the nodes.
func (r *Region) ElementsUsingNodes(dimension int, nodeIDs []int) []int {
	m := r.Mesh(dimension)
	if m == nil || len(nodeIDs) == 0 {
		return nil
	}
	want := lo.SliceToMap(nodeIDs, func(id int) (int, struct{}) { return id, struct{}{} })
	var out []int
	for _, e := range m.elements {
		if lo.SomeBy(e.nodes, func(n *Node) bool { _, ok := want[n.id]; return ok }) {
			out = append(out, e.id)
		}
	}
	return out
}

// FacesOf returns the identifiers of all faceDimension elements below the
// given parents.
func (r *Region) FacesOf(faceDimension, parentDimension int, parentIDs []int) []int {
	m := r.Mesh(parentDimension)
	if m == nil || faceDimension >= parentDimension {
		return nil
	}
	seen := make(map[*Element]struct{})
	var walk func(e *Element)
	walk = func(e *Element) {
		for _, f := range e.faces {
			if f == nil {
				continue
			}
			if f.Dimension() == faceDimension {
				seen[f] = struct{}{}
				continue
			}
			walk(f)
		}
	}
	for _, id := range parentIDs {
		if e := m.byID[id]; e != nil {
			walk(e)
		}
	}
	out := lo.Map(lo.Keys(seen), func(e *Element, _ int) int { return e.id })
	sort.Ints(out)
	return out
}

// ---------------------------------------------------------------------------
// Changes
// ---------------------------------------------------------------------------

// AddListener registers fn for change events.
func (r *Region) AddListener(fn Listener) {
	r.listeners = append(r.listeners, fn)
}

// BeginChange defers change notification until the matching EndChange.
// Calls nest.
func (r *Region) BeginChange() {
	r.changeDepth++
}

// EndChange closes a BeginChange. The outermost one sends the accumulated
// event to listeners, if anything changed.
func (r *Region) EndChange() {
	if r.changeDepth == 0 {
		return
	}
	r.changeDepth--
	if r.changeDepth > 0 {
		return
	}
	ev := r.event
	if !ev.HasFieldOrMeshChanges() && !ev.SelectionChanged() {
		return
	}
	r.event = field.NewEvent()
	r.generation++
	logging.L().Named("femesh").Debug("region changed",
		zap.String("region", r.name),
		zap.Uint64("generation", r.generation),
		zap.Bool("selection", ev.SelectionChanged()))
	for _, fn := range r.listeners {
		fn(ev)
	}
}

func (r *Region) record(fn func(ev *field.Event)) {
	r.BeginChange()
	fn(r.event)
	r.EndChange()
}

// fieldChanged records flags for f and every function field reading it.
func (r *Region) fieldChanged(f field.Field, flags field.ChangeFlags) {
	r.record(func(ev *field.Event) {
		ev.SetFieldChange(f, flags)
		for _, dep := range r.dependents(f) {
			ev.SetFieldChange(dep, flags)
		}
	})
}

// nodeValueChanged records a stored value change at one node.
func (r *Region) nodeValueChanged(f field.Field, n *Node) {
	r.BeginChange()
	defer r.EndChange()
	r.fieldChanged(f, field.ChangePartialResult)
	r.event.NodeLog(n.nodeset.domain).Record(n.id, field.ChangePartialResult)
}

// dependents returns the function fields reading f, directly or not.
func (r *Region) dependents(f field.Field) []field.Field {
	var out []field.Field
	seen := map[field.Field]bool{f: true}
	queue := []field.Field{f}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, other := range r.fields {
			ff, ok := other.(*FunctionField)
			if !ok || seen[ff] {
				continue
			}
			if lo.Contains(ff.sources, cur) {
				seen[ff] = true
				out = append(out, ff)
				queue = append(queue, ff)
			}
		}
	}
	return out
}
