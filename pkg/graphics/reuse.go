package graphics

import (
	"fmt"
	"slices"
	"strings"

	"github.com/chazu/fegraphics/pkg/field"
	farm "github.com/dgryski/go-farm"
)

// SameNonTrivial reports whether a and b would build identical geometry.
// Materials, spectrum, font, glyph and the draw-time glyph sizes, offsets
// and repeat mode are not compared; they are patched onto a reused object.
func SameNonTrivial(a, b *Graphics) bool {
	if a == nil || b == nil {
		return false
	}
	if a.typ != b.typ ||
		a.domain != b.domain ||
		a.coordinateField != b.coordinateField ||
		a.subgroupField != b.subgroupField ||
		a.name != b.name ||
		a.selectMode != b.selectMode {
		return false
	}
	if isFaceDomain(a.domain) {
		if a.exterior != b.exterior || a.faceType != b.faceType {
			return false
		}
	}
	if a.tessellation != b.tessellation || a.tessellationField != b.tessellationField {
		return false
	}
	if a.dataField != b.dataField || a.textureCoordinateField != b.textureCoordinateField {
		return false
	}
	switch pa := a.payload.(type) {
	case *pointsPayload:
		pb := b.payload.(*pointsPayload)
		if pa.point.orientationScaleField != pb.point.orientationScaleField ||
			pa.point.signedScaleField != pb.point.signedScaleField ||
			pa.point.labelField != pb.point.labelField ||
			pa.point.labelDensityField != pb.point.labelDensityField {
			return false
		}
		if isElementDomain(a.domain) && !sameSampling(pa.sampling, pb.sampling) {
			return false
		}
	case *linesPayload:
		pb := b.payload.(*linesPayload)
		if pa.line != pb.line {
			return false
		}
	case *contoursPayload:
		pb := b.payload.(*contoursPayload)
		ca, cb := pa.contours, pb.contours
		if ca.count != cb.count ||
			ca.decimationThreshold != cb.decimationThreshold ||
			ca.isoscalarField != cb.isoscalarField ||
			ca.explicit != cb.explicit {
			return false
		}
		if ca.explicit {
			if !slices.Equal(ca.isovalues, cb.isovalues) {
				return false
			}
		} else if ca.first != cb.first || ca.last != cb.last {
			return false
		}
	case *streamlinesPayload:
		pb := b.payload.(*streamlinesPayload)
		if pa.line != pb.line || pa.stream != pb.stream || !sameSampling(pa.sampling, pb.sampling) {
			return false
		}
	}
	return true
}

// isFaceDomain reports whether exterior and face type can apply.
func isFaceDomain(d field.DomainType) bool {
	return d == field.DomainMesh1D || d == field.DomainMesh2D || d == field.DomainMeshHighestDimension
}

func isElementDomain(d field.DomainType) bool {
	return d >= field.DomainMesh1D && d <= field.DomainMeshHighestDimension
}

func sameSampling(a, b samplingData) bool {
	if a.mode != b.mode {
		return false
	}
	switch a.mode {
	case SampleCellPoisson:
		return a.densityField == b.densityField
	case SampleSetLocation:
		return a.location == b.location
	}
	return true
}

// Signature fingerprints the attributes SameNonTrivial compares by type,
// domain, name, coordinate and subgroup field, for cheap rejection when
// searching many candidates. Equal graphics have equal signatures.
func (g *Graphics) Signature() uint64 {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d|%s|%d|%p|%p", g.typ, g.domain, g.name, g.selectMode, g.coordinateField, g.subgroupField)
	return farm.Fingerprint64([]byte(b.String()))
}

// ReuseObject looks through candidates for one equivalent to g that owns a
// completely built object and moves that object to g, patching appearance.
// It reports whether an object was reused. g must not own an object.
func ReuseObject(g *Graphics, candidates []*Graphics) (bool, error) {
	if g.HasObject() {
		return false, nil
	}
	sig := g.Signature()
	for _, c := range candidates {
		if c == g || !c.HasObject() || c.GraphicsChanged() {
			continue
		}
		if c.Signature() != sig || !SameNonTrivial(g, c) {
			continue
		}
		if err := g.TransferObjectFrom(c); err != nil {
			return false, err
		}
		g.ApplyAppearance(g.Object())
		return true, nil
	}
	return false, nil
}
