package build

import (
	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/golang/geo/r3"
)

// isoVolume presents a scalar field over one 3D element as a signed
// distance in xi space: negative where the field is at or above the
// isovalue. Samples outside the unit cube are clamped onto it.
type isoVolume struct {
	c      *context
	e      field.Element
	scalar field.Field
	iso    float64
	err    error
}

var _ sdf.SDF3 = (*isoVolume)(nil)

func (v *isoVolume) Evaluate(p v3.Vec) float64 {
	if v.err != nil {
		return 1
	}
	if err := v.c.cache.SetElement(v.e, clampXi(p)); err != nil {
		v.err = err
		return 1
	}
	val, err := v.c.cache.Evaluate(v.scalar)
	if err != nil {
		v.err = err
		return 1
	}
	return v.iso - val[0]
}

func (v *isoVolume) BoundingBox() sdf.Box3 {
	return sdf.Box3{Min: v3.Vec{}, Max: v3.Vec{X: 1, Y: 1, Z: 1}}
}

func clamp01(x float64) float64 { return min(max(x, 0), 1) }

func clampXi(p v3.Vec) []float64 {
	return []float64{clamp01(p.X), clamp01(p.Y), clamp01(p.Z)}
}

// isosurface runs marching cubes over the xi cube of e at the finest
// tessellation division, then maps each triangle through the coordinate
// field. Triangles collapsed by the clamping at the element boundary are
// dropped.
func (c *context) isosurface(e field.Element, ct graphics.Contours, iso float64) (gobject.Part, error) {
	div := c.divisionsFor(3)
	cells := max(div[0], div[1], div[2], 1)
	vol := &isoVolume{c: c, e: e, scalar: ct.IsoscalarField(), iso: iso}
	triangles := render.ToTriangles(vol, render.NewMarchingCubesUniform(cells))
	if vol.err != nil {
		return gobject.Part{}, vol.err
	}
	var vertices []gobject.Vertex
	var tris [][3]int
	for _, tri := range triangles {
		var corner [3]gobject.Vertex
		for j := 0; j < 3; j++ {
			v, err := c.vertexAt(e, clampXi(tri[j]))
			if err != nil {
				return gobject.Part{}, err
			}
			corner[j] = v
		}
		normal := faceNormal(corner[0].Position, corner[1].Position, corner[2].Position)
		if normal.Norm() < 1e-14 {
			continue
		}
		n := vec3(normal.Normalize())
		base := len(vertices)
		for j := range corner {
			corner[j].Normal = n
			vertices = append(vertices, corner[j])
		}
		tris = append(tris, [3]int{base, base + 1, base + 2})
	}
	if t := ct.DecimationThreshold(); t > 0 && len(tris) > 0 {
		m := weld(vertices, tris)
		m.decimate(t)
		return m.part(c.hasTexture()), nil
	}
	part := gobject.Part{Vertices: vertices, HasNormals: true, HasTextureCoordinates: c.hasTexture()}
	for _, t := range tris {
		part.Indices = append(part.Indices, t[0], t[1], t[2])
	}
	return part, nil
}

// faceNormal is the unnormalised normal of triangle abc; its length is
// twice the area.
func faceNormal(a, b, c [3]float64) r3.Vector {
	pa := r3.Vector{X: a[0], Y: a[1], Z: a[2]}
	pb := r3.Vector{X: b[0], Y: b[1], Z: b[2]}
	pc := r3.Vector{X: c[0], Y: c[1], Z: c[2]}
	return pb.Sub(pa).Cross(pc.Sub(pa))
}
