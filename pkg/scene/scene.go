// Package scene keeps the graphics of one region up to date. Each Update
// classifies the region's latest change for every graphics, carries the
// decision out, then builds under a time budget, continuing on the next
// Update where it stopped.
package scene

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/chazu/fegraphics/pkg/build"
	"github.com/chazu/fegraphics/pkg/change"
	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/chazu/fegraphics/pkg/logging"
	"github.com/chazu/fegraphics/pkg/metrics"
	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Option configures a Scene.
type Option func(*Scene)

// WithBudget bounds the building done by one Update.
func WithBudget(b build.Budget) Option {
	return func(s *Scene) { s.budget = b }
}

// WithMetrics records builds, changes and reuse on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scene) { s.metrics = m }
}

// Scene drives the graphics list of one field module.
type Scene struct {
	list       *graphics.List
	module     field.Module
	classifier *change.Classifier
	builder    *build.Builder
	metrics    *metrics.Metrics
	budget     build.Budget
	log        *zap.Logger

	// failed holds graphics whose last build failed; they are left alone
	// until they change again.
	failed map[*graphics.Graphics]error
}

// New returns a scene over list, whose fields live in module. The scene
// takes over the list's listener.
func New(list *graphics.List, module field.Module, opts ...Option) *Scene {
	s := &Scene{
		list:       list,
		module:     module,
		classifier: change.NewClassifier(module),
		builder:    build.NewBuilder(module),
		budget:     build.DefaultBudget(),
		log:        logging.L().Named("scene"),
		failed:     make(map[*graphics.Graphics]error),
	}
	for _, opt := range opts {
		opt(s)
	}
	list.SetListener(s.changed)
	return s
}

// List returns the scene's graphics list.
func (s *Scene) List() *graphics.List { return s.list }

// Builder returns the builder, for its evaluation time.
func (s *Scene) Builder() *build.Builder { return s.builder }

func (s *Scene) changed(g *graphics.Graphics, c graphics.Change) {
	s.metrics.ObserveChange(c)
	if c >= graphics.ChangePartialRebuild {
		delete(s.failed, g)
	}
}

// SetTime moves evaluation to time t. Graphics built from time dependent
// fields are rebuilt.
func (s *Scene) SetTime(t float64) {
	if t == s.builder.Time() {
		return
	}
	s.builder.SetTime(t)
	for _, g := range s.list.Graphics() {
		if g.TimeDependent() {
			g.RaiseChange(graphics.ChangeFullRebuild)
		}
	}
}

// Commit replaces the list's graphics with edited ones, moving built
// objects across wherever the geometry would be the same.
func (s *Scene) Commit(edited *graphics.List) error {
	reused, err := s.list.Commit(edited)
	for range reused {
		s.metrics.ObserveReuse()
	}
	if err != nil {
		return fmt.Errorf("scene: commit: %w", err)
	}
	s.log.Debug("committed graphics", zap.Int("graphics", s.list.Len()), zap.Int("reused", reused))
	return nil
}

// Update applies ev, which may be nil, and builds every visible graphics
// until all are up to date or the budget is spent. It returns
// build.Continue when another Update is needed. A graphics that fails to build is logged and skipped;
// the others still build.
func (s *Scene) Update(ev *field.Event) build.Status {
	for _, g := range s.list.Graphics() {
		if r := s.classifier.Classify(g, ev); r.Change != graphics.ChangeNone {
			dropped := change.Apply(g, r)
			s.log.Debug("applied change",
				zap.String("graphics", g.Label()),
				zap.Stringer("change", r.Change),
				zap.Int("dropped", dropped))
		}
	}

	now := s.budget.Now
	if now == nil {
		now = time.Now
	}
	start := now()
	for _, g := range s.list.Graphics() {
		if _, ok := s.failed[g]; ok || !g.Visible() {
			continue
		}
		if g.GraphicsChanged() || !g.HasObject() {
			budget := s.budget
			if budget.Limit > 0 {
				budget.Limit -= now().Sub(start)
				if budget.Limit <= 0 {
					return build.Continue
				}
			}
			fresh := !g.HasObject()
			t0 := time.Now()
			res, err := s.builder.Task(g).Step(budget)
			s.metrics.ObserveStep(g.Type(), time.Since(t0), res.Status == build.Done, err)
			if err != nil {
				if fresh {
					g.ReleaseObject()
				}
				s.failed[g] = err
				s.log.Warn("graphics build failed",
					zap.String("graphics", g.Label()),
					zap.Int("position", g.Position()),
					zap.Error(err))
				continue
			}
			if res.Status == build.Continue {
				return build.Continue
			}
			s.log.Debug("graphics built",
				zap.String("graphics", g.Label()),
				zap.String("vertices", humanize.Comma(int64(g.Object().VertexCount()))),
				zap.String("glyphs", humanize.Comma(int64(len(g.Object().Glyphs)))))
			s.refresh(g)
			continue
		}
		if g.SelectedGraphicsChanged() {
			s.refresh(g)
		}
	}
	return build.Done
}

// refresh re-applies appearance and highlighted names to g's object.
func (s *Scene) refresh(g *graphics.Graphics) {
	obj := g.Object()
	if obj == nil {
		return
	}
	g.ApplyAppearance(obj)
	obj.SetSelectedNames(s.builder.SelectedNames(g))
	g.MarkAppearanceApplied()
}

// Failures returns the graphics whose last build failed, with the errors.
func (s *Scene) Failures() map[*graphics.Graphics]error {
	out := make(map[*graphics.Graphics]error, len(s.failed))
	for g, err := range s.failed {
		out[g] = err
	}
	return out
}

// Err joins the errors of every failed graphics, or returns nil.
func (s *Scene) Err() error {
	var errs []error
	for _, g := range s.list.Graphics() {
		if err, ok := s.failed[g]; ok {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Objects returns the objects of visible graphics in draw order. Graphics
// whose last build failed are left out.
func (s *Scene) Objects() []*gobject.Object {
	var out []*gobject.Object
	for _, g := range s.list.Graphics() {
		if _, failed := s.failed[g]; failed || !g.Visible() {
			continue
		}
		if obj := g.Object(); obj != nil {
			out = append(out, obj)
		}
	}
	return out
}

// WriteStats prints one line per graphics: position, label, object kind
// and buffer sizes.
func (s *Scene) WriteStats(w io.Writer) error {
	for _, g := range s.list.Graphics() {
		obj := g.Object()
		status := "built"
		switch {
		case s.failed[g] != nil:
			status = "failed"
		case obj == nil || g.GraphicsChanged():
			status = "pending"
		}
		line := fmt.Sprintf("%2d %-24s %-8s", g.Position(), g.Label(), status)
		if obj != nil {
			line += fmt.Sprintf(" %-10s %s vertices %s triangles %s segments %s glyphs",
				obj.Kind,
				humanize.Comma(int64(obj.VertexCount())),
				humanize.Comma(int64(obj.TriangleCount())),
				humanize.Comma(int64(obj.SegmentCount())),
				humanize.Comma(int64(len(obj.Glyphs))))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
