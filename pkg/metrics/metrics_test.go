package metrics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveStep(t *testing.T) {
	m := New()
	m.ObserveStep(graphics.TypeSurfaces, time.Millisecond, false, nil)
	m.ObserveStep(graphics.TypeSurfaces, time.Millisecond, true, nil)
	m.ObserveStep(graphics.TypeLines, time.Millisecond, false, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.slices))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.builds.WithLabelValues("surfaces", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.builds.WithLabelValues("lines", "failed")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.buildSeconds))
}

func TestObserveChangeIgnoresNone(t *testing.T) {
	m := New()
	m.ObserveChange(graphics.ChangeNone)
	m.ObserveChange(graphics.ChangeFullRebuild)
	m.ObserveChange(graphics.ChangeFullRebuild)
	m.ObserveReuse()

	assert.Equal(t, 1, testutil.CollectAndCount(m.changes))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.changes.WithLabelValues(graphics.ChangeFullRebuild.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reuse))
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	m.ObserveChange(graphics.ChangeRedraw)
	m.ObserveStep(graphics.TypePoints, time.Second, true, nil)
	m.ObserveReuse()
	assert.Nil(t, m.Registry())
	assert.NoError(t, m.WriteSummary(&strings.Builder{}))
}

func TestWriteSummary(t *testing.T) {
	m := New()
	m.ObserveReuse()
	m.ObserveStep(graphics.TypeContours, 2*time.Millisecond, true, nil)

	var b strings.Builder
	require.NoError(t, m.WriteSummary(&b))
	out := b.String()
	assert.Contains(t, out, "fegfx_object_reuse_total 1\n")
	assert.Contains(t, out, `fegfx_builds_total{status="ok",type="contours"} 1`)
	assert.Contains(t, out, `fegfx_build_step_seconds{type="contours"} count=1`)
}
