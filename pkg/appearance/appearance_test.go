package appearance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTessellationDivisions(t *testing.T) {
	tess := NewTessellation("fine")
	require.NoError(t, tess.SetMinimumDivisions([]int{2, 3}))
	require.NoError(t, tess.SetRefinementFactors([]int{4}))

	assert.Equal(t, []int{2, 3, 3}, tess.Divisions(3, false))
	assert.Equal(t, []int{8, 12, 12}, tess.Divisions(3, true))
	assert.Equal(t, []int{2}, tess.Divisions(1, false))
	assert.Equal(t, 12, tess.CircleDivisions())
}

func TestTessellationRejects(t *testing.T) {
	tess := NewTessellation("t")
	require.ErrorIs(t, tess.SetMinimumDivisions(nil), ErrInvalidArgument)
	require.ErrorIs(t, tess.SetMinimumDivisions([]int{1, 0}), ErrInvalidArgument)
	require.ErrorIs(t, tess.SetRefinementFactors([]int{-1}), ErrInvalidArgument)
	require.ErrorIs(t, tess.SetCircleDivisions(2), ErrInvalidArgument)
	assert.Equal(t, []int{1, 1}, tess.MinimumDivisions(2), "unchanged after rejection")
}

func TestRegistryDefaults(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r.DefaultMaterial())
	require.NotNil(t, r.DefaultSelectedMaterial())
	assert.Equal(t, [3]float64{1, 0, 0}, r.DefaultSelectedMaterial().Diffuse)
	assert.NotSame(t, r.DefaultTessellation(), r.DefaultPointsTessellation())

	sphere, err := r.Glyph("sphere")
	require.NoError(t, err)
	assert.Equal(t, GlyphSphere, sphere.Shape)

	_, err = r.Material("missing")
	require.Error(t, err)

	gold := NewMaterial("gold")
	r.AddMaterial(gold)
	got, err := r.Material("gold")
	require.NoError(t, err)
	assert.Same(t, gold, got)
	assert.Contains(t, r.MaterialNames(), "gold")
}

func TestSpectrumRange(t *testing.T) {
	s := NewSpectrum("s")
	require.NoError(t, s.SetRange(-1, 2))
	assert.Equal(t, -1.0, s.Minimum)
	require.ErrorIs(t, s.SetRange(3, 2), ErrInvalidArgument)
	assert.Equal(t, 2.0, s.Maximum)
}

func TestGlyphShapeParse(t *testing.T) {
	for s := GlyphPoint; s <= GlyphAxes; s++ {
		got, err := ParseGlyphShape(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := ParseGlyphShape("teapot")
	require.ErrorIs(t, err, ErrInvalidArgument)
}
