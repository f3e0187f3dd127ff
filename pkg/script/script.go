// Package script evaluates graphics scripts: zygomys Lisp programs whose
// builtins describe an ordered graphics list against a field module.
//
//	(material "gold" :diffuse (vec3 1 0.8 0))
//	(surfaces :coordinate "coordinates" :material "gold" :exterior true)
//	(contours :isoscalar "temperature" :range (list 5 0 100))
package script

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/fegraphics/pkg/appearance"
	"github.com/chazu/fegraphics/pkg/field"
	"github.com/chazu/fegraphics/pkg/gobject"
	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/chazu/fegraphics/pkg/logging"
	zygo "github.com/glycerine/zygomys/zygo"
	"go.uber.org/zap"
)

// Module is the field module scripts refer to by field name.
type Module interface {
	field.Module
	FindField(name string) field.Field
}

// EvalError is a problem in the script itself, such as a parse error or a
// builtin rejecting its arguments.
type EvalError struct {
	Line    int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Engine evaluates scripts into graphics lists sharing one arena, so a new
// list can be committed over the previous one. Each evaluation runs in a
// fresh sandbox.
type Engine struct {
	module   Module
	arena    *gobject.Arena
	registry *appearance.Registry
	timeout  time.Duration
	log      *zap.Logger

	mu         sync.Mutex
	generation uint64
}

// NewEngine returns an engine creating graphics in arena with appearance
// from registry. Scripts may add materials, spectrums, tessellations and
// glyphs to registry.
func NewEngine(module Module, arena *gobject.Arena, registry *appearance.Registry) *Engine {
	return &Engine{
		module:   module,
		arena:    arena,
		registry: registry,
		timeout:  EvalTimeout,
		log:      logging.L().Named("script"),
	}
}

// SetTimeout replaces EvalTimeout for this engine.
func (e *Engine) SetTimeout(d time.Duration) { e.timeout = d }

// Evaluate runs source and returns the graphics list it describes.
//
// On success it returns the list and no errors. Problems in the script come
// back as EvalErrors with a nil list. Timeouts, panics and evaluations
// overtaken by a newer one return an error.
func (e *Engine) Evaluate(source string) (*graphics.List, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("script: panic during evaluation: %v", r)}
			}
		}()
		list, errs := e.evaluate(source)
		ch <- evalResult{list: list, errors: errs}
	}()

	res := waitWithTimeout(ch, e.timeout, gen, &e.mu, &e.generation)
	if res.err != nil {
		e.log.Warn("script evaluation failed", zap.Error(res.err))
	} else if len(res.errors) > 0 {
		e.log.Debug("script has errors", zap.Int("errors", len(res.errors)), zap.Error(res.errors[0]))
	} else {
		e.log.Debug("script evaluated", zap.Int("graphics", res.list.Len()))
	}
	return res.list, res.errors, res.err
}

func (e *Engine) evaluate(source string) (*graphics.List, []EvalError) {
	list := graphics.NewList(e.arena, e.registry)
	if strings.TrimSpace(source) == "" {
		return list, nil
	}

	env := zygo.NewZlispSandbox()
	defer env.Stop()
	registerBuiltins(env, &builder{module: e.module, registry: e.registry, list: list})

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err)
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err)
	}
	return list, nil
}

var (
	// linePattern matches "Error on line N: ..." from the zygomys parser.
	linePattern      = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)
	linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)
)

// parseZygomysError turns a zygomys error into an EvalError. The line
// number is lifted out of the message when present; the rest is kept.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if loc := p.FindStringSubmatchIndex(msg); loc != nil {
			line, _ := strconv.Atoi(msg[loc[2]:loc[3]])
			rest := strings.TrimSpace(msg[:loc[0]] + msg[loc[4]:])
			return []EvalError{{Line: line, Message: rest}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
