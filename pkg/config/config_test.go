package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/chazu/fegraphics/pkg/appearance"
	"github.com/chazu/fegraphics/pkg/build"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIsDefault(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestParseFull(t *testing.T) {
	src := `
build {
  time_limit   = "250ms"
  incremental  = true
  max_elements = 100
}
tessellation {
  minimum_divisions  = [2, 3]
  refinement_factors = [4]
  circle_divisions   = 8
}
cache { max_entries = 0 }
log {
  level       = "debug"
  development = true
}
`
	c, err := Parse([]byte(src), "full.hcl")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, c.Build.TimeLimit)
	assert.Equal(t, 100, c.Build.MaxElements)
	assert.Equal(t, []int{2, 3}, c.Tessellation.MinimumDivisions)
	assert.Equal(t, []int{4}, c.Tessellation.RefinementFactors)
	assert.Equal(t, 8, c.Tessellation.CircleDivisions)
	assert.Zero(t, c.Cache.MaxEntries)
	assert.Equal(t, "debug", c.Log.Level)
	assert.True(t, c.Log.Development)

	assert.Equal(t, build.Budget{Limit: 250 * time.Millisecond, MaxElements: 100}, c.Build.Budget())
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	c, err := Parse([]byte(`log { level = "warn" }`), "partial.hcl")
	require.NoError(t, err)
	want := Default()
	want.Log.Level = "warn"
	assert.Equal(t, want, c)
}

func TestParseReadsEnvironment(t *testing.T) {
	t.Setenv("FEGFX_TEST_LIMIT", "2s")
	t.Setenv("FEGFX_TEST_CIRCLE", "6")
	src := `
build        { time_limit = env.FEGFX_TEST_LIMIT }
tessellation { circle_divisions = env.FEGFX_TEST_CIRCLE }
`
	c, err := Parse([]byte(src), "env.hcl")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, c.Build.TimeLimit)
	assert.Equal(t, 6, c.Tessellation.CircleDivisions)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `build {`, "failed to parse"},
		{"unknown block", `render {}`, "failed to decode"},
		{"unknown attribute", `build { speed = 1 }`, "failed to decode"},
		{"bad duration", `build { time_limit = "soon" }`, "time_limit"},
		{"negative duration", `build { time_limit = "-1s" }`, "negative"},
		{"negative elements", `build { max_elements = -1 }`, "negative"},
		{"zero divisions", `tessellation { minimum_divisions = [0] }`, "minimum divisions"},
		{"few circle divisions", `tessellation { circle_divisions = 2 }`, "circle divisions"},
		{"negative cache", `cache { max_entries = -5 }`, "negative"},
		{"bad level", `log { level = "loud" }`, "log"},
		{"missing env", `build { time_limit = env.FEGFX_TEST_UNSET_VARIABLE }`, "failed to decode"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.src), tc.name+".hcl")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fegfx.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`build { incremental = false }`), 0o644))
	c, err := Load(path)
	require.NoError(t, err)
	assert.False(t, c.Build.Incremental)
	assert.Equal(t, build.Unlimited(), c.Build.Budget())
}

func TestTessellationApply(t *testing.T) {
	r := appearance.NewRegistry()
	tc := Tessellation{MinimumDivisions: []int{3}, RefinementFactors: []int{2}, CircleDivisions: 5}
	require.NoError(t, tc.Apply(r))

	tess := r.DefaultTessellation()
	assert.Equal(t, []int{3, 3}, tess.MinimumDivisions(2))
	assert.Equal(t, []int{6, 6}, tess.Divisions(2, true))
	assert.Equal(t, 5, tess.CircleDivisions())
}

func TestRegionOptions(t *testing.T) {
	assert.Len(t, Default().RegionOptions(), 1)
}
