package femesh

import (
	"github.com/chazu/fegraphics/pkg/field"
)

// faceRef records that an element is face number face of parent.
type faceRef struct {
	parent *Element
	face   int
}

// Element is a linear Lagrange line, square or cube. Local nodes are ordered
// lexicographically: bit k of the local index is the node's xi_k.
type Element struct {
	id      int
	index   int
	mesh    *Mesh
	nodes   []*Node
	faces   []*Element // by face number, nil when faces are not defined
	parents []faceRef
}

var _ field.Element = (*Element)(nil)

func (e *Element) Identifier() int { return e.id }
func (e *Element) Dimension() int  { return e.mesh.dimension }

// Index is the element's position in its mesh.
func (e *Element) Index() int { return e.index }

// Nodes returns the local nodes in lexicographic order.
func (e *Element) Nodes() []*Node { return e.nodes }

// Face returns face number f, or nil.
func (e *Element) Face(f int) *Element {
	if f < 0 || f >= len(e.faces) {
		return nil
	}
	return e.faces[f]
}

// IsExterior reports whether the element lies on the boundary of the highest
// dimensional mesh: a face with a single parent, or a face of such a face.
func (e *Element) IsExterior() bool {
	if len(e.parents) == 0 {
		return false
	}
	top := e.mesh.region.HighestDimension()
	if e.Dimension() == top-1 {
		return len(e.parents) == 1
	}
	for _, p := range e.parents {
		if p.parent.IsExterior() {
			return true
		}
	}
	return false
}

// IsOnFace reports whether the element satisfies the face restriction. A
// specific xi face matches when the element is, or lies within, that face
// of a top-level parent.
func (e *Element) IsOnFace(face field.FaceType) bool {
	switch face {
	case field.FaceAll:
		return true
	case field.FaceAny:
		return len(e.parents) > 0
	case field.FaceNone:
		return len(e.parents) == 0
	}
	n := face.FaceNumber()
	if n < 0 {
		return false
	}
	for _, p := range e.parents {
		if len(p.parent.parents) == 0 {
			if p.face == n {
				return true
			}
			continue
		}
		if p.parent.IsOnFace(face) {
			return true
		}
	}
	return false
}

// faceLocalNodes returns the local node indexes of face f of an element of
// dimension dim, in the lexicographic order of the remaining xi.
func faceLocalNodes(dim, f int) []int {
	k, side := f/2, f%2
	var out []int
	for local := 0; local < 1<<dim; local++ {
		if (local>>k)&1 == side {
			out = append(out, local)
		}
	}
	return out
}

// faceXi maps xi on face f of a dim-dimensional element to parent xi.
func faceXi(dim, f int, xi []float64) []float64 {
	k, side := f/2, f%2
	out := make([]float64, 0, dim)
	j := 0
	for i := 0; i < dim; i++ {
		if i == k {
			out = append(out, float64(side))
			continue
		}
		out = append(out, xi[j])
		j++
	}
	return out
}

// basis returns the linear Lagrange weights of every local node at xi.
func basis(dim int, xi []float64) []float64 {
	w := make([]float64, 1<<dim)
	for local := range w {
		v := 1.0
		for k := 0; k < dim; k++ {
			if (local>>k)&1 == 1 {
				v *= xi[k]
			} else {
				v *= 1 - xi[k]
			}
		}
		w[local] = v
	}
	return w
}
