package femesh

import (
	"fmt"
	"sort"

	"github.com/chazu/fegraphics/pkg/field"
)

// Mesh holds the elements of one dimension of a region, in index order.
type Mesh struct {
	name      string
	dimension int
	region    *Region
	elements  []*Element
	byID      map[int]*Element
}

var _ field.Mesh = (*Mesh)(nil)

func newMesh(r *Region, dim int) *Mesh {
	return &Mesh{
		name:      fmt.Sprintf("mesh%dd", dim),
		dimension: dim,
		region:    r,
		byID:      make(map[int]*Element),
	}
}

func (m *Mesh) Name() string       { return m.name }
func (m *Mesh) Dimension() int     { return m.dimension }
func (m *Mesh) Size() int          { return len(m.elements) }
func (m *Mesh) Master() field.Mesh { return m }

func (m *Mesh) ElementAt(index int) field.Element {
	if index < 0 || index >= len(m.elements) {
		return nil
	}
	return m.elements[index]
}

// Element is ElementAt without the interface conversion.
func (m *Mesh) Element(index int) *Element {
	if index < 0 || index >= len(m.elements) {
		return nil
	}
	return m.elements[index]
}

func (m *Mesh) FindElementByIdentifier(id int) field.Element {
	if e, ok := m.byID[id]; ok {
		return e
	}
	return nil
}

// Find is FindElementByIdentifier returning the concrete element.
func (m *Mesh) Find(id int) *Element { return m.byID[id] }

func (m *Mesh) Contains(e field.Element) bool {
	el, ok := e.(*Element)
	return ok && el.mesh == m && m.byID[el.id] == el
}

// Neighbour returns the other parent of e's face number face.
func (m *Mesh) Neighbour(e field.Element, face int) (field.Element, int) {
	el, ok := e.(*Element)
	if !ok || el.mesh != m {
		return nil, -1
	}
	f := el.Face(face)
	if f == nil {
		return nil, -1
	}
	for _, p := range f.parents {
		if p.parent != el {
			return p.parent, p.face
		}
	}
	return nil, -1
}

// add appends a new element, failing on a duplicate identifier.
func (m *Mesh) add(id int, nodes []*Node) (*Element, error) {
	if _, dup := m.byID[id]; dup {
		return nil, fmt.Errorf("femesh: %s element %d: %w", m.name, id, ErrDuplicateIdentifier)
	}
	e := &Element{id: id, index: len(m.elements), mesh: m, nodes: nodes}
	m.elements = append(m.elements, e)
	m.byID[id] = e
	return e, nil
}

func (m *Mesh) remove(e *Element) {
	m.elements = append(m.elements[:e.index], m.elements[e.index+1:]...)
	for i := e.index; i < len(m.elements); i++ {
		m.elements[i].index = i
	}
	delete(m.byID, e.id)
}

// groupMesh is the subset of a master mesh belonging to an element group,
// ordered by master index.
type groupMesh struct {
	group    *GroupField
	master   *Mesh
	elements []*Element
}

func newGroupMesh(g *GroupField, master *Mesh) *groupMesh {
	gm := &groupMesh{group: g, master: master}
	for e := range g.elements {
		if e.mesh == master && master.byID[e.id] == e {
			gm.elements = append(gm.elements, e)
		}
	}
	sort.Slice(gm.elements, func(i, j int) bool { return gm.elements[i].index < gm.elements[j].index })
	return gm
}

func (m *groupMesh) Name() string       { return m.group.name + "." + m.master.name }
func (m *groupMesh) Dimension() int     { return m.master.dimension }
func (m *groupMesh) Size() int          { return len(m.elements) }
func (m *groupMesh) Master() field.Mesh { return m.master }

func (m *groupMesh) ElementAt(index int) field.Element {
	if index < 0 || index >= len(m.elements) {
		return nil
	}
	return m.elements[index]
}

func (m *groupMesh) FindElementByIdentifier(id int) field.Element {
	e := m.master.byID[id]
	if e == nil || !m.group.hasElement(e) {
		return nil
	}
	return e
}

func (m *groupMesh) Contains(e field.Element) bool {
	el, ok := e.(*Element)
	return ok && m.master.Contains(el) && m.group.hasElement(el)
}

func (m *groupMesh) Neighbour(e field.Element, face int) (field.Element, int) {
	return m.master.Neighbour(e, face)
}

// Node is a node or datapoint.
type Node struct {
	id      int
	index   int
	nodeset *Nodeset
}

var _ field.Node = (*Node)(nil)

func (n *Node) Identifier() int { return n.id }

// Nodeset holds the nodes or the datapoints of a region.
type Nodeset struct {
	region *Region
	domain field.DomainType
	nodes  []*Node
	byID   map[int]*Node
}

var _ field.Nodeset = (*Nodeset)(nil)

func newNodeset(r *Region, domain field.DomainType) *Nodeset {
	return &Nodeset{region: r, domain: domain, byID: make(map[int]*Node)}
}

func (ns *Nodeset) Name() string                 { return ns.domain.String() }
func (ns *Nodeset) DomainType() field.DomainType { return ns.domain }
func (ns *Nodeset) Size() int                    { return len(ns.nodes) }
func (ns *Nodeset) Master() field.Nodeset        { return ns }

func (ns *Nodeset) NodeAt(index int) field.Node {
	if index < 0 || index >= len(ns.nodes) {
		return nil
	}
	return ns.nodes[index]
}

func (ns *Nodeset) FindNodeByIdentifier(id int) field.Node {
	if n, ok := ns.byID[id]; ok {
		return n
	}
	return nil
}

// Find is FindNodeByIdentifier returning the concrete node.
func (ns *Nodeset) Find(id int) *Node { return ns.byID[id] }

func (ns *Nodeset) Contains(n field.Node) bool {
	nd, ok := n.(*Node)
	return ok && nd.nodeset == ns && ns.byID[nd.id] == nd
}

func (ns *Nodeset) add(id int) (*Node, error) {
	if _, dup := ns.byID[id]; dup {
		return nil, fmt.Errorf("femesh: %s %d: %w", ns.domain, id, ErrDuplicateIdentifier)
	}
	n := &Node{id: id, index: len(ns.nodes), nodeset: ns}
	ns.nodes = append(ns.nodes, n)
	ns.byID[id] = n
	return n, nil
}

// groupNodeset is the subset of a nodeset belonging to a node group.
type groupNodeset struct {
	group  *GroupField
	master *Nodeset
	nodes  []*Node
}

func newGroupNodeset(g *GroupField, master *Nodeset) *groupNodeset {
	gn := &groupNodeset{group: g, master: master}
	for n := range g.nodes {
		if n.nodeset == master && master.byID[n.id] == n {
			gn.nodes = append(gn.nodes, n)
		}
	}
	sort.Slice(gn.nodes, func(i, j int) bool { return gn.nodes[i].index < gn.nodes[j].index })
	return gn
}

func (ns *groupNodeset) Name() string                 { return ns.group.name + "." + ns.master.Name() }
func (ns *groupNodeset) DomainType() field.DomainType { return ns.master.domain }
func (ns *groupNodeset) Size() int                    { return len(ns.nodes) }
func (ns *groupNodeset) Master() field.Nodeset        { return ns.master }

func (ns *groupNodeset) NodeAt(index int) field.Node {
	if index < 0 || index >= len(ns.nodes) {
		return nil
	}
	return ns.nodes[index]
}

func (ns *groupNodeset) FindNodeByIdentifier(id int) field.Node {
	n := ns.master.byID[id]
	if n == nil || !ns.group.hasNode(n) {
		return nil
	}
	return n
}

func (ns *groupNodeset) Contains(n field.Node) bool {
	nd, ok := n.(*Node)
	return ok && ns.master.Contains(nd) && ns.group.hasNode(nd)
}
