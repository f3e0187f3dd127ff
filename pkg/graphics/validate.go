package graphics

import (
	"fmt"

	"github.com/chazu/fegraphics/pkg/field"
)

// ValidationSeverity indicates whether a finding prevents building a
// graphics or is merely advisory.
type ValidationSeverity int

const (
	SeverityError   ValidationSeverity = iota // graphics cannot build
	SeverityWarning                           // informational
)

func (s ValidationSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("ValidationSeverity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	Position int                // graphics position (zero if list-level)
	Message  string             // human-readable description
	Severity ValidationSeverity // error or warning
}

func (e ValidationError) Error() string {
	if e.Position == 0 {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] graphics %d: %s", e.Severity, e.Position, e.Message)
}

// Validate runs every check on every graphics of l. It never mutates.
func Validate(l *List) []ValidationError {
	var errs []ValidationError
	for _, g := range l.items {
		errs = append(errs, ValidateGraphics(g)...)
	}
	errs = append(errs, validateNames(l)...)
	return errs
}

// ValidateGraphics checks that g has what it needs to build.
func ValidateGraphics(g *Graphics) []ValidationError {
	var errs []ValidationError
	add := func(sev ValidationSeverity, format string, args ...any) {
		errs = append(errs, ValidationError{
			Position: g.position,
			Message:  fmt.Sprintf(format, args...),
			Severity: sev,
		})
	}

	if g.coordinateField == nil && g.domain != field.DomainPoint {
		add(SeverityError, "%s on %s has no coordinate field", g.typ, g.domain)
	}
	switch p := g.payload.(type) {
	case *pointsPayload:
		if p.point.labelDensityField != nil && p.point.labelField == nil {
			add(SeverityWarning, "label density field without label field")
		}
		if isElementDomain(g.domain) {
			errs = append(errs, validateSampling(g, p.sampling)...)
		}
	case *contoursPayload:
		if p.contours.isoscalarField == nil {
			add(SeverityError, "contours have no isoscalar field")
		}
		if p.contours.count == 0 {
			add(SeverityWarning, "contours have no isovalues")
		}
		if p.contours.decimationThreshold > 0 && g.domain == field.DomainMesh2D {
			add(SeverityWarning, "decimation only applies to iso-surfaces")
		}
	case *streamlinesPayload:
		s := p.stream
		if s.streamVectorField == nil {
			add(SeverityError, "streamlines have no stream vector field")
		}
		if s.seedNodeset != nil && s.seedMeshLocationField == nil {
			add(SeverityError, "seed nodeset without seed mesh location field")
		}
		if s.seedNodeset == nil && s.seedMeshLocationField != nil {
			add(SeverityWarning, "seed mesh location field without seed nodeset")
		}
		if s.seedElement == nil && s.seedNodeset == nil {
			errs = append(errs, validateSampling(g, p.sampling)...)
		}
	}
	return errs
}

func validateSampling(g *Graphics, s samplingData) []ValidationError {
	if s.mode == SampleCellPoisson && s.densityField == nil {
		return []ValidationError{{
			Position: g.position,
			Message:  "poisson sampling has no density field",
			Severity: SeverityError,
		}}
	}
	return nil
}

// validateNames warns about graphics sharing a name, which makes lookup by
// name ambiguous.
func validateNames(l *List) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]int)
	for _, g := range l.items {
		if g.name == "" {
			continue
		}
		if first, ok := seen[g.name]; ok {
			errs = append(errs, ValidationError{
				Position: g.position,
				Message:  fmt.Sprintf("name %q already used by graphics %d", g.name, first),
				Severity: SeverityWarning,
			})
			continue
		}
		seen[g.name] = g.position
	}
	return errs
}

// HasErrors reports whether any finding is an error.
func HasErrors(errs []ValidationError) bool {
	for _, e := range errs {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}
