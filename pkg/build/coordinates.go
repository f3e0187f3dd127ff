package build

import (
	"math"

	"github.com/chazu/fegraphics/pkg/field"
	"github.com/golang/geo/r3"
)

// toRC converts coordinate field values to a rectangular cartesian
// position. Missing components are zero; polar systems take (r, theta, z)
// and (r, theta, phi) with phi the elevation.
func toRC(values []float64, cs field.CoordinateSystem) r3.Vector {
	var c [3]float64
	copy(c[:], values)
	switch cs {
	case field.CylindricalPolar:
		r, theta, z := c[0], c[1], c[2]
		return r3.Vector{X: r * math.Cos(theta), Y: r * math.Sin(theta), Z: z}
	case field.SphericalPolar:
		r, theta, phi := c[0], c[1], c[2]
		return r3.Vector{
			X: r * math.Cos(theta) * math.Cos(phi),
			Y: r * math.Sin(theta) * math.Cos(phi),
			Z: r * math.Sin(phi),
		}
	}
	return r3.Vector{X: c[0], Y: c[1], Z: c[2]}
}

func vec3(v r3.Vector) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

func pad3(values []float64) [3]float64 {
	var c [3]float64
	copy(c[:], values)
	return c
}

func f32s(values []float64) []float32 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float32, len(values))
	for i, v := range values {
		out[i] = float32(v)
	}
	return out
}

// unitOr normalises v, or returns fallback when v has no length.
func unitOr(v, fallback r3.Vector) r3.Vector {
	if n := v.Norm(); n > 1e-12 {
		return v.Mul(1 / n)
	}
	return fallback
}

// perpendicular returns the component of v normal to unit vector t,
// normalised, falling back to any vector normal to t.
func perpendicular(v, t r3.Vector) r3.Vector {
	return unitOr(v.Sub(t.Mul(v.Dot(t))), t.Ortho())
}
