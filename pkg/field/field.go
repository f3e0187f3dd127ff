// Package field declares the finite-element collaborator surface that the
// graphics packages consume: fields, meshes, nodesets, evaluation caches and
// the change events a field module emits. Nothing here evaluates anything;
// implementations live elsewhere (see package femesh).
package field

import "errors"

// ErrNotDefined is returned by a Cache when a field has no value at the
// current location.
var ErrNotDefined = errors.New("field: not defined at location")

// ValueType is the kind of value a field produces.
type ValueType int

const (
	ValueTypeReal ValueType = iota
	ValueTypeString
	ValueTypeMeshLocation
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeReal:
		return "real"
	case ValueTypeString:
		return "string"
	case ValueTypeMeshLocation:
		return "mesh_location"
	default:
		return "unknown"
	}
}

// CoordinateSystem describes how the components of a coordinate-like field
// are interpreted.
type CoordinateSystem int

const (
	RectangularCartesian CoordinateSystem = iota
	CylindricalPolar
	SphericalPolar
)

func (c CoordinateSystem) String() string {
	switch c {
	case RectangularCartesian:
		return "rectangular_cartesian"
	case CylindricalPolar:
		return "cylindrical_polar"
	case SphericalPolar:
		return "spherical_polar"
	default:
		return "unknown"
	}
}

// IsNonLinear reports whether positions in this system need refinement to be
// represented by straight segments.
func (c CoordinateSystem) IsNonLinear() bool {
	return c != RectangularCartesian
}

// Field is a handle to an externally owned field. Handles are compared by
// identity.
type Field interface {
	Name() string
	NumberOfComponents() int
	ValueType() ValueType
	CoordinateSystem() CoordinateSystem
}

// nonLinear is implemented by fields whose interpolation is not linear in xi.
type nonLinear interface {
	IsNonLinear() bool
}

// IsNonLinear reports whether f varies non-linearly over an element, either
// through its own interpolation or through its coordinate system.
func IsNonLinear(f Field) bool {
	if f == nil {
		return false
	}
	if nl, ok := f.(nonLinear); ok && nl.IsNonLinear() {
		return true
	}
	return f.CoordinateSystem().IsNonLinear()
}

type timeDependent interface {
	IsTimeDependent() bool
}

// IsTimeDependent reports whether f's values change with the cache time.
func IsTimeDependent(f Field) bool {
	td, ok := f.(timeDependent)
	return ok && td.IsTimeDependent()
}

// IsScalar reports whether f is a single-component real field.
func IsScalar(f Field) bool {
	return f != nil && f.ValueType() == ValueTypeReal && f.NumberOfComponents() == 1
}

// HasUpToComponents reports whether f is real valued with 1..n components.
func HasUpToComponents(f Field, n int) bool {
	if f == nil || f.ValueType() != ValueTypeReal {
		return false
	}
	c := f.NumberOfComponents()
	return c >= 1 && c <= n
}

// Element is a single finite element of some dimension.
type Element interface {
	Identifier() int
	Dimension() int
	// IsExterior reports whether the element lies on the boundary of the
	// highest dimensional mesh. Elements with no parents are never exterior.
	IsExterior() bool
	// IsOnFace reports whether the element satisfies the face restriction.
	IsOnFace(face FaceType) bool
}

// Mesh is an ordered set of elements of one dimension. Index order is
// stable between changes and is used to resume interrupted iteration.
type Mesh interface {
	Name() string
	Dimension() int
	Size() int
	ElementAt(index int) Element
	FindElementByIdentifier(id int) Element
	Contains(e Element) bool
	// Master returns the full mesh this mesh is a subset of, or itself.
	Master() Mesh
	// Neighbour returns the element sharing face number face (xi_k=0 is
	// 2k, xi_k=1 is 2k+1) of e, along with the face number on the
	// neighbour's side. It returns nil when e is on the boundary.
	Neighbour(e Element, face int) (Element, int)
}

// Node is a single node or datapoint.
type Node interface {
	Identifier() int
}

// Nodeset is an ordered set of nodes.
type Nodeset interface {
	Name() string
	DomainType() DomainType
	Size() int
	NodeAt(index int) Node
	FindNodeByIdentifier(id int) Node
	Contains(n Node) bool
	Master() Nodeset
}

// Cache evaluates fields at a location: an element with xi coordinates, a
// node, or nowhere (for constant fields).
type Cache interface {
	SetTime(t float64)
	Time() float64
	ClearLocation()
	SetElement(e Element, xi []float64) error
	SetNode(n Node) error
	Evaluate(f Field) ([]float64, error)
	EvaluateString(f Field) (string, error)
	EvaluateMeshLocation(f Field) (Element, []float64, error)
}

// EvaluateBool evaluates a scalar field as a predicate: any non-zero first
// component is true. Undefined values are false.
func EvaluateBool(c Cache, f Field) bool {
	v, err := c.Evaluate(f)
	if err != nil || len(v) == 0 {
		return false
	}
	return v[0] != 0
}

// Topology answers the connectivity questions needed to propagate changes
// from nodes and parent elements down to a given dimension.
type Topology interface {
	ElementsUsingNodes(dimension int, nodeIdentifiers []int) []int
	FacesOf(faceDimension, parentDimension int, parentIdentifiers []int) []int
}

// Module groups the meshes, nodesets and evaluation caches of one region.
type Module interface {
	Topology
	HighestDimension() int
	FindMeshByDimension(dimension int) Mesh
	FindNodeset(domain DomainType) Nodeset
	NewCache() Cache
	// ElementGroupMesh returns the subset of master selected by subgroup when
	// subgroup is a group with elements on master, otherwise nil.
	ElementGroupMesh(subgroup Field, master Mesh) Mesh
	// NodeGroupNodeset is the nodeset analogue of ElementGroupMesh.
	NodeGroupNodeset(subgroup Field, master Nodeset) Nodeset
	// SelectionGroup returns the field whose truth marks selected objects,
	// or nil if nothing has ever been selected.
	SelectionGroup() Field
}
