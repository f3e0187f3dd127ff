// Package build generates graphics objects from graphics specifications:
// glyphs at sample points, lines, surfaces, contours and streamlines, all
// evaluated through a field cache. Builds over element domains are
// resumable, so a large mesh can be built a slice at a time.
package build

import (
	"errors"
	"fmt"

	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/chazu/fegraphics/pkg/logging"
	"go.uber.org/zap"
)

var (
	// ErrMissingCoordinateField aborts the build of one graphics.
	ErrMissingCoordinateField = errors.New("build: no coordinate field")
	// ErrBuildFailed wraps evaluation failures and unsupported domains.
	ErrBuildFailed = errors.New("build: failed")
)

// Builder builds graphics over one field module at one time.
type Builder struct {
	module field.Module
	time   float64
	log    *zap.Logger
}

// NewBuilder returns a builder for graphics whose fields live in module.
func NewBuilder(module field.Module) *Builder {
	return &Builder{module: module, log: logging.L().Named("build")}
}

// SetTime sets the time fields are evaluated at.
func (b *Builder) SetTime(t float64) { b.time = t }

// Time returns the evaluation time.
func (b *Builder) Time() float64 { return b.time }

// Task returns the resumable build of g.
func (b *Builder) Task(g *graphics.Graphics) *Task {
	return &Task{b: b, g: g}
}

// Build runs g's build to completion.
func (b *Builder) Build(g *graphics.Graphics) error {
	t := b.Task(g)
	for {
		res, err := t.Step(Unlimited())
		if err != nil {
			return err
		}
		if res.Status == Done {
			return nil
		}
	}
}

// Task is the build of one graphics. All progress is held by the graphics
// itself (its object and resume index), so a task may be recreated between
// steps, and any change raised on the graphics restarts it.
type Task struct {
	b *Builder
	g *graphics.Graphics
}

// Step builds until the budget runs out or the object is complete.
// Elements the object has already visited are skipped, which is how partial
// rebuilds regenerate only what was invalidated.
func (t *Task) Step(budget Budget) (StepResult, error) {
	g := t.g
	if !g.GraphicsChanged() && g.HasObject() {
		return StepResult{Status: Done}, nil
	}
	c, err := t.b.prepare(g)
	if err != nil {
		return StepResult{}, err
	}
	var res StepResult
	switch {
	case c.skip:
		res = StepResult{Status: Done}
	case g.Type() == graphics.TypeStreamlines:
		res, err = c.streamlines()
	case g.Domain() == field.DomainPoint:
		res, err = c.pointDomain()
	case g.Domain().IsNodeset():
		res, err = c.nodes()
	default:
		res, err = c.elements(budget)
	}
	if err != nil {
		return StepResult{}, fmt.Errorf("build: %s %s: %w", g.Type(), g.Label(), err)
	}
	if res.Status == Done {
		g.MarkBuilt()
	} else {
		g.SetResumeIndex(res.Token.Index)
	}
	t.b.log.Debug("build step",
		zap.String("graphics", g.Label()),
		zap.Stringer("status", res.Status),
		zap.Int("elements", res.Elements),
		zap.Int("vertices", c.obj.VertexCount()),
		zap.Int("glyphs", len(c.obj.Glyphs)))
	return res, nil
}

// elementGenerator produces the primitives of one element.
type elementGenerator func(e field.Element) error

// elements walks the iteration mesh from the resume index.
func (c *context) elements(budget Budget) (StepResult, error) {
	var gen elementGenerator
	switch c.g.Type() {
	case graphics.TypePoints:
		gen = c.elementPoints
	case graphics.TypeLines:
		gen = c.line
	case graphics.TypeSurfaces:
		gen = c.surface
	case graphics.TypeContours:
		gen = c.contour
	default:
		return StepResult{}, fmt.Errorf("type %s: %w", c.g.Type(), ErrBuildFailed)
	}
	m := budget.start()
	for i := c.g.ResumeIndex(); i < c.mesh.Size(); i++ {
		if m.exhausted() {
			return StepResult{Status: Continue, Token: Token{Index: i}, Elements: m.n}, nil
		}
		e := c.mesh.ElementAt(i)
		if e == nil || c.obj.Visited(e.Identifier()) {
			continue
		}
		if !c.includeElement(e) {
			c.obj.MarkVisited(e.Identifier())
			continue
		}
		if err := gen(e); err != nil {
			if errors.Is(err, field.ErrNotDefined) {
				c.obj.MarkVisited(e.Identifier())
				continue
			}
			return StepResult{}, fmt.Errorf("element %d: %w: %w", e.Identifier(), ErrBuildFailed, err)
		}
		c.obj.MarkVisited(e.Identifier())
		m.tick()
	}
	return StepResult{Status: Done, Elements: m.n}, nil
}

// objectKind is the primitive type g builds into.
func objectKind(g *graphics.Graphics, dim int) gobject.Kind {
	switch g.Type() {
	case graphics.TypePoints:
		return gobject.KindGlyphSet
	case graphics.TypeSurfaces:
		return gobject.KindSurface
	case graphics.TypeContours:
		if dim == 3 {
			return gobject.KindSurface
		}
		return gobject.KindPolyline
	}
	if la, err := g.LineAttributes(); err == nil && la.Shape() != graphics.ShapeLine {
		return gobject.KindSurface
	}
	return gobject.KindPolyline
}

// dataComponents is the per-vertex data width g produces.
func dataComponents(g *graphics.Graphics) int {
	if s, err := g.Streamlines(); err == nil && s.ColourData() != graphics.ColourDataField {
		return 1
	}
	if f := g.DataField(); f != nil {
		return f.NumberOfComponents()
	}
	return 0
}
