// Package config loads the fegfx configuration file. The file is HCL with
// four optional blocks:
//
//	build {
//	  time_limit   = "250ms"
//	  incremental  = true
//	  max_elements = 0
//	}
//	tessellation {
//	  minimum_divisions  = [2]
//	  refinement_factors = [1]
//	  circle_divisions   = 12
//	}
//	cache { max_entries = 65536 }
//	log   { level = "debug" }
//
// Environment variables are available as attributes of env, so
// time_limit = env.FEGFX_TIME_LIMIT reads $FEGFX_TIME_LIMIT.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/chazu/fegraphics/pkg/appearance"
	"github.com/chazu/fegraphics/pkg/build"
	"github.com/chazu/fegraphics/pkg/femesh"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/zap/zapcore"
)

// Config is the decoded configuration with defaults filled in.
type Config struct {
	Build        Build
	Tessellation Tessellation
	Cache        Cache
	Log          Log
}

// Build controls incremental building.
type Build struct {
	TimeLimit   time.Duration
	Incremental bool
	MaxElements int
}

// Tessellation replaces the registry's default tessellation.
type Tessellation struct {
	MinimumDivisions  []int
	RefinementFactors []int
	CircleDivisions   int
}

// Cache sizes the field evaluation memo; zero disables it.
type Cache struct {
	MaxEntries int64
}

// Log selects the logger level and encoding.
type Log struct {
	Level       string
	Development bool
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Build: Build{TimeLimit: build.DefaultLimit, Incremental: true},
		Tessellation: Tessellation{
			MinimumDivisions:  []int{1},
			RefinementFactors: []int{1},
			CircleDivisions:   12,
		},
		Cache: Cache{MaxEntries: 1 << 16},
		Log:   Log{Level: "info"},
	}
}

type hclFile struct {
	Build        *hclBuild        `hcl:"build,block"`
	Tessellation *hclTessellation `hcl:"tessellation,block"`
	Cache        *hclCache        `hcl:"cache,block"`
	Log          *hclLog          `hcl:"log,block"`
}

type hclBuild struct {
	TimeLimit   *string `hcl:"time_limit,optional"`
	Incremental *bool   `hcl:"incremental,optional"`
	MaxElements *int    `hcl:"max_elements,optional"`
}

type hclTessellation struct {
	MinimumDivisions  []int `hcl:"minimum_divisions,optional"`
	RefinementFactors []int `hcl:"refinement_factors,optional"`
	CircleDivisions   *int  `hcl:"circle_divisions,optional"`
}

type hclCache struct {
	MaxEntries *int64 `hcl:"max_entries,optional"`
}

type hclLog struct {
	Level       *string `hcl:"level,optional"`
	Development *bool   `hcl:"development,optional"`
}

// Load reads the file at path. A missing file yields Default.
func Load(path string) (*Config, error) {
	src, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(src, path)
}

// Parse decodes src; filename is used in diagnostics.
func Parse(src []byte, filename string) (*Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: failed to parse %s: %w", filename, diags)
	}
	var raw hclFile
	if diags := gohcl.DecodeBody(file.Body, evalContext(os.Environ()), &raw); diags.HasErrors() {
		return nil, fmt.Errorf("config: failed to decode %s: %w", filename, diags)
	}
	c := Default()
	if err := c.merge(&raw); err != nil {
		return nil, fmt.Errorf("config: %s: %w", filename, err)
	}
	return c, nil
}

// evalContext exposes environ as the env object.
func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

func (c *Config) merge(raw *hclFile) error {
	if b := raw.Build; b != nil {
		if b.TimeLimit != nil {
			d, err := time.ParseDuration(*b.TimeLimit)
			if err != nil {
				return fmt.Errorf("build: time_limit: %w", err)
			}
			if d < 0 {
				return fmt.Errorf("build: time_limit %s is negative", d)
			}
			c.Build.TimeLimit = d
		}
		if b.Incremental != nil {
			c.Build.Incremental = *b.Incremental
		}
		if b.MaxElements != nil {
			if *b.MaxElements < 0 {
				return fmt.Errorf("build: max_elements %d is negative", *b.MaxElements)
			}
			c.Build.MaxElements = *b.MaxElements
		}
	}
	if t := raw.Tessellation; t != nil {
		if t.MinimumDivisions != nil {
			c.Tessellation.MinimumDivisions = t.MinimumDivisions
		}
		if t.RefinementFactors != nil {
			c.Tessellation.RefinementFactors = t.RefinementFactors
		}
		if t.CircleDivisions != nil {
			c.Tessellation.CircleDivisions = *t.CircleDivisions
		}
		if _, err := c.Tessellation.New("default"); err != nil {
			return err
		}
	}
	if ca := raw.Cache; ca != nil && ca.MaxEntries != nil {
		if *ca.MaxEntries < 0 {
			return fmt.Errorf("cache: max_entries %d is negative", *ca.MaxEntries)
		}
		c.Cache.MaxEntries = *ca.MaxEntries
	}
	if l := raw.Log; l != nil {
		if l.Level != nil {
			if _, err := zapcore.ParseLevel(*l.Level); err != nil {
				return fmt.Errorf("log: %w", err)
			}
			c.Log.Level = *l.Level
		}
		if l.Development != nil {
			c.Log.Development = *l.Development
		}
	}
	return nil
}

// Budget is the per-Update build budget. Without incremental building
// every Update runs to completion.
func (b Build) Budget() build.Budget {
	if !b.Incremental {
		return build.Unlimited()
	}
	return build.Budget{Limit: b.TimeLimit, MaxElements: b.MaxElements}
}

// New returns a tessellation called name with these settings.
func (t Tessellation) New(name string) (*appearance.Tessellation, error) {
	tess := appearance.NewTessellation(name)
	if err := tess.SetMinimumDivisions(t.MinimumDivisions); err != nil {
		return nil, err
	}
	if err := tess.SetRefinementFactors(t.RefinementFactors); err != nil {
		return nil, err
	}
	if err := tess.SetCircleDivisions(t.CircleDivisions); err != nil {
		return nil, err
	}
	return tess, nil
}

// Apply installs the configured default tessellation in r.
func (t Tessellation) Apply(r *appearance.Registry) error {
	tess, err := t.New("default")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	r.AddTessellation(tess)
	return nil
}

// RegionOptions returns the femesh options for a region built under c.
func (c *Config) RegionOptions() []femesh.Option {
	return []femesh.Option{femesh.WithEvaluationCache(c.Cache.MaxEntries)}
}
