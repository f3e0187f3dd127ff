package main

import (
	"fmt"

	"github.com/chazu/fegraphics/pkg/appearance"
	"github.com/chazu/fegraphics/pkg/build"
	"github.com/chazu/fegraphics/pkg/config"
	"github.com/chazu/fegraphics/pkg/femesh"
	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/chazu/fegraphics/pkg/logging"
	"github.com/chazu/fegraphics/pkg/metrics"
	"github.com/chazu/fegraphics/pkg/scene"
	"github.com/chazu/fegraphics/pkg/script"
	"go.uber.org/zap"
)

// colorPalette colours objects whose material is missing.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App ties a region, a script engine and a scene together. Scripts replace
// the scene's graphics; region changes are queued and applied by Sync.
type App struct {
	region   *femesh.Region
	registry *appearance.Registry
	engine   *script.Engine
	scene    *scene.Scene
	metrics  *metrics.Metrics
	log      *zap.Logger

	pending []*field.Event
}

// MeshData is the JSON form of one built graphics object.
type MeshData struct {
	Name     string    `json:"name"`
	Kind     string    `json:"kind"`
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals,omitempty"`
	Indices  []uint32  `json:"indices"`
	Glyphs   int       `json:"glyphs,omitempty"`
	Color    string    `json:"color"`
}

// EvalErrorData is the JSON form of a script error or build warning.
type EvalErrorData struct {
	Line     int    `json:"line,omitempty"`
	Position int    `json:"position,omitempty"`
	Message  string `json:"message"`
}

// EvalResult is everything one evaluation produced.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp returns an app drawing region under cfg. m may be nil.
func NewApp(cfg *config.Config, region *femesh.Region, m *metrics.Metrics) (*App, error) {
	registry := appearance.NewRegistry()
	if err := cfg.Tessellation.Apply(registry); err != nil {
		return nil, err
	}
	arena := gobject.NewArena()
	a := &App{
		region:   region,
		registry: registry,
		engine:   script.NewEngine(region, arena, registry),
		scene: scene.New(graphics.NewList(arena, registry), region,
			scene.WithBudget(cfg.Build.Budget()),
			scene.WithMetrics(m)),
		metrics: m,
		log:     logging.L().Named("app"),
	}
	region.AddListener(func(ev *field.Event) {
		a.pending = append(a.pending, ev)
	})
	return a, nil
}

// Scene returns the app's scene.
func (a *App) Scene() *scene.Scene { return a.scene }

// Evaluate runs source, commits the graphics it describes and builds them.
// Script errors leave the current graphics in place.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}

	list, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	for _, e := range evalErrs {
		result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Message: e.Message})
	}
	if len(result.Errors) > 0 {
		return result
	}
	// Findings do not block the commit: a graphics that cannot build is
	// skipped by the scene and reported below.
	for _, v := range graphics.Validate(list) {
		if v.Severity == graphics.SeverityWarning {
			result.Warnings = append(result.Warnings, EvalErrorData{Position: v.Position, Message: v.Message})
		}
	}

	if err := a.scene.Commit(list); err != nil {
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	a.Sync()

	for _, g := range a.scene.List().Graphics() {
		if err, ok := a.scene.Failures()[g]; ok {
			result.Warnings = append(result.Warnings, EvalErrorData{
				Position: g.Position(),
				Message:  fmt.Sprintf("%s: %v", g.Label(), err),
			})
		}
	}
	result.Meshes = a.Meshes()
	return result
}

// Sync applies queued region changes and builds until the scene is up to
// date. It returns the number of Updates run.
func (a *App) Sync() int {
	events := a.pending
	a.pending = nil
	updates := 0
	for _, ev := range events {
		updates += a.settle(ev)
	}
	if len(events) == 0 {
		updates += a.settle(nil)
	}
	a.log.Debug("scene synced", zap.Int("events", len(events)), zap.Int("updates", updates))
	return updates
}

// settle sends ev to the scene once, then updates until building is done.
func (a *App) settle(ev *field.Event) int {
	n := 1
	for a.scene.Update(ev) == build.Continue {
		ev = nil
		n++
	}
	return n
}

// SetTime moves the scene to time t and rebuilds what depends on it.
func (a *App) SetTime(t float64) {
	a.scene.SetTime(t)
	a.Sync()
}

// Meshes returns the built objects of visible graphics in draw order.
func (a *App) Meshes() []MeshData {
	objs := a.scene.Objects()
	out := make([]MeshData, 0, len(objs))
	for i, obj := range objs {
		color := colorPalette[i%len(colorPalette)]
		if obj.Material != nil {
			color = hexColor(obj.Material.Diffuse)
		}
		out = append(out, MeshData{
			Name:     obj.Name,
			Kind:     obj.Kind.String(),
			Vertices: obj.Positions,
			Normals:  obj.Normals,
			Indices:  obj.Indices,
			Glyphs:   len(obj.Glyphs),
			Color:    color,
		})
	}
	return out
}

func hexColor(rgb [3]float64) string {
	var c [3]uint8
	for i, v := range rgb {
		c[i] = uint8(min(max(v, 0), 1)*255 + 0.5)
	}
	return fmt.Sprintf("#%02X%02X%02X", c[0], c[1], c[2])
}
