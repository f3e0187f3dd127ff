package field

import "fmt"

// DomainType identifies what a graphics iterates over.
type DomainType int

const (
	DomainInvalid DomainType = iota
	DomainPoint
	DomainNodes
	DomainDatapoints
	DomainMesh1D
	DomainMesh2D
	DomainMesh3D
	DomainMeshHighestDimension
)

var domainNames = map[DomainType]string{
	DomainPoint:                "point",
	DomainNodes:                "nodes",
	DomainDatapoints:           "datapoints",
	DomainMesh1D:               "mesh1d",
	DomainMesh2D:               "mesh2d",
	DomainMesh3D:               "mesh3d",
	DomainMeshHighestDimension: "mesh_highest_dimension",
}

func (d DomainType) String() string {
	if s, ok := domainNames[d]; ok {
		return s
	}
	return fmt.Sprintf("DomainType(%d)", int(d))
}

// ParseDomainType is the inverse of DomainType.String.
func ParseDomainType(s string) (DomainType, error) {
	for d, name := range domainNames {
		if name == s {
			return d, nil
		}
	}
	return DomainInvalid, fmt.Errorf("field: unknown domain type %q", s)
}

// IsNodeset reports whether the domain is a set of nodes rather than a mesh.
func (d DomainType) IsNodeset() bool {
	return d == DomainNodes || d == DomainDatapoints
}

// Dimension returns the xi dimension of the domain. The highest-dimension
// domain resolves against highest; point and nodeset domains are 0.
func (d DomainType) Dimension(highest int) int {
	switch d {
	case DomainMesh1D:
		return 1
	case DomainMesh2D:
		return 2
	case DomainMesh3D:
		return 3
	case DomainMeshHighestDimension:
		return highest
	default:
		return 0
	}
}

// FaceType restricts 1D and 2D elements to those on a given face of their
// parent elements.
type FaceType int

const (
	FaceInvalid FaceType = iota
	FaceAll
	FaceAny
	FaceNone
	FaceXi1_0
	FaceXi1_1
	FaceXi2_0
	FaceXi2_1
	FaceXi3_0
	FaceXi3_1
)

var faceNames = map[FaceType]string{
	FaceAll:   "all",
	FaceAny:   "any_face",
	FaceNone:  "no_face",
	FaceXi1_0: "xi1_0",
	FaceXi1_1: "xi1_1",
	FaceXi2_0: "xi2_0",
	FaceXi2_1: "xi2_1",
	FaceXi3_0: "xi3_0",
	FaceXi3_1: "xi3_1",
}

func (f FaceType) String() string {
	if s, ok := faceNames[f]; ok {
		return s
	}
	return fmt.Sprintf("FaceType(%d)", int(f))
}

// ParseFaceType is the inverse of FaceType.String.
func ParseFaceType(s string) (FaceType, error) {
	for f, name := range faceNames {
		if name == s {
			return f, nil
		}
	}
	return FaceInvalid, fmt.Errorf("field: unknown face type %q", s)
}

// FaceNumber returns the parent face number (xi_k=0 is 2k, xi_k=1 is 2k+1)
// for the specific xi faces, or -1 for the aggregate face types.
func (f FaceType) FaceNumber() int {
	if f >= FaceXi1_0 && f <= FaceXi3_1 {
		return int(f - FaceXi1_0)
	}
	return -1
}
