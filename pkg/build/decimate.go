package build

import (
	"math"

	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chewxy/math32"
	"github.com/golang/geo/r3"
)

// triMesh is an indexed triangle mesh with shared vertices.
type triMesh struct {
	vertices []gobject.Vertex
	tris     [][3]int
}

// weld merges vertices at the same position, keeping the first one's
// attributes.
func weld(vertices []gobject.Vertex, tris [][3]int) *triMesh {
	const q = 1e9
	type key [3]int64
	index := make(map[key]int)
	remap := make([]int, len(vertices))
	m := &triMesh{}
	for i, v := range vertices {
		k := key{
			int64(math.Round(v.Position[0] * q)),
			int64(math.Round(v.Position[1] * q)),
			int64(math.Round(v.Position[2] * q)),
		}
		j, ok := index[k]
		if !ok {
			j = len(m.vertices)
			index[k] = j
			m.vertices = append(m.vertices, v)
		}
		remap[i] = j
	}
	for _, t := range tris {
		m.tris = append(m.tris, [3]int{remap[t[0]], remap[t[1]], remap[t[2]]})
	}
	m.dropDegenerate()
	return m
}

func (m *triMesh) dropDegenerate() {
	kept := m.tris[:0]
	for _, t := range m.tris {
		if t[0] != t[1] && t[1] != t[2] && t[2] != t[0] {
			kept = append(kept, t)
		}
	}
	m.tris = kept
}

func (m *triMesh) normal(t [3]int) r3.Vector {
	return faceNormal(m.vertices[t[0]].Position, m.vertices[t[1]].Position, m.vertices[t[2]].Position)
}

// decimate collapses interior vertices whose surrounding facets are
// coplanar to within threshold, measured as one minus the cosine between
// each facet normal and their mean. One pass; a collapsed vertex and its
// neighbours are not touched again in the same pass.
func (m *triMesh) decimate(threshold float64) {
	around := make([][]int, len(m.vertices))
	edges := make(map[[2]int]int)
	for ti, t := range m.tris {
		for j := 0; j < 3; j++ {
			around[t[j]] = append(around[t[j]], ti)
			a, b := t[j], t[(j+1)%3]
			edges[[2]int{min(a, b), max(a, b)}]++
		}
	}
	boundary := make([]bool, len(m.vertices))
	for e, n := range edges {
		if n == 1 {
			boundary[e[0]], boundary[e[1]] = true, true
		}
	}
	flat := func(v int) bool {
		var mean r3.Vector
		normals := make([]r3.Vector, 0, len(around[v]))
		for _, ti := range around[v] {
			n := unitOr(m.normal(m.tris[ti]), r3.Vector{})
			normals = append(normals, n)
			mean = mean.Add(n)
		}
		mean = unitOr(mean, r3.Vector{})
		for _, n := range normals {
			if 1-n.Dot(mean) > threshold {
				return false
			}
		}
		return len(normals) > 0
	}

	remap := make([]int, len(m.vertices))
	for i := range remap {
		remap[i] = i
	}
	locked := make([]bool, len(m.vertices))
	for _, t := range m.tris {
		for j := 0; j < 3; j++ {
			u, v := t[j], t[(j+1)%3]
			if locked[u] || locked[v] || boundary[u] || !flat(u) {
				continue
			}
			remap[u] = v
			for _, ti := range around[u] {
				for _, w := range m.tris[ti] {
					locked[w] = true
				}
			}
		}
	}
	for i, t := range m.tris {
		m.tris[i] = [3]int{remap[t[0]], remap[t[1]], remap[t[2]]}
	}
	m.dropDegenerate()
}

// part returns the mesh with smooth normals averaged from its facets.
// Unused vertices are dropped.
func (m *triMesh) part(texture bool) gobject.Part {
	sum := make([]r3.Vector, len(m.vertices))
	for _, t := range m.tris {
		n := m.normal(t)
		for _, v := range t {
			sum[v] = sum[v].Add(n)
		}
	}
	part := gobject.Part{HasNormals: true, HasTextureCoordinates: texture}
	index := make(map[int]int)
	for _, t := range m.tris {
		for _, v := range t {
			j, ok := index[v]
			if !ok {
				j = len(part.Vertices)
				index[v] = j
				vert := m.vertices[v]
				vert.Normal = vec3(unitOr(sum[v], unitAxes[2]))
				part.Vertices = append(part.Vertices, vert)
			}
			part.Indices = append(part.Indices, j)
		}
	}
	return part
}

// renormalise rescales packed float32 normals to unit length after their
// conversion from double precision.
func renormalise(normals []float32) {
	for i := 0; i+2 < len(normals); i += 3 {
		x, y, z := normals[i], normals[i+1], normals[i+2]
		n := math32.Sqrt(x*x + y*y + z*z)
		if n == 0 {
			continue
		}
		normals[i], normals[i+1], normals[i+2] = x/n, y/n, z/n
	}
}
