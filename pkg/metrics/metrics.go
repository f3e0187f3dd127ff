// Package metrics counts graphics builds, change severities, object reuse
// and incremental build slices on a private Prometheus registry.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/chazu/fegraphics/pkg/graphics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "fegfx"

// Metrics holds the collectors of one scene. A nil *Metrics records
// nothing.
type Metrics struct {
	reg *prometheus.Registry

	builds       *prometheus.CounterVec
	changes      *prometheus.CounterVec
	reuse        prometheus.Counter
	slices       prometheus.Counter
	buildSeconds *prometheus.HistogramVec
}

// New registers a fresh set of collectors on their own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		builds: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Completed or failed graphics builds.",
		}, []string{"type", "status"}),
		changes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_total",
			Help:      "Changes applied to graphics, by severity.",
		}, []string{"change"}),
		reuse: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "object_reuse_total",
			Help:      "Graphics objects transferred to an edited graphics.",
		}),
		slices: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "build_slices_total",
			Help:      "Build steps stopped by the budget before finishing.",
		}),
		buildSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_step_seconds",
			Help:      "Time spent in one build step.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"type"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// ObserveChange counts one change raised on a graphics.
func (m *Metrics) ObserveChange(c graphics.Change) {
	if m == nil || c == graphics.ChangeNone {
		return
	}
	m.changes.WithLabelValues(c.String()).Inc()
}

// ObserveStep records one build step of a graphics of type t. A step that
// did not finish counts as a slice; a finished or failed one as a build.
func (m *Metrics) ObserveStep(t graphics.Type, d time.Duration, finished bool, err error) {
	if m == nil {
		return
	}
	m.buildSeconds.WithLabelValues(t.String()).Observe(d.Seconds())
	switch {
	case err != nil:
		m.builds.WithLabelValues(t.String(), "failed").Inc()
	case finished:
		m.builds.WithLabelValues(t.String(), "ok").Inc()
	default:
		m.slices.Inc()
	}
}

// ObserveReuse counts one object transferred between graphics.
func (m *Metrics) ObserveReuse() {
	if m == nil {
		return
	}
	m.reuse.Inc()
}

// WriteSummary prints every counter and histogram count, one per line,
// sorted by name.
func (m *Metrics) WriteSummary(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.reg.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	var lines []string
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			lines = append(lines, fmt.Sprintf("%s%s %s", mf.GetName(), labels(metric), value(mf.GetType(), metric)))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func labels(metric *dto.Metric) string {
	if len(metric.GetLabel()) == 0 {
		return ""
	}
	parts := make([]string, 0, len(metric.GetLabel()))
	for _, l := range metric.GetLabel() {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func value(t dto.MetricType, metric *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", metric.GetCounter().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := metric.GetHistogram()
		return fmt.Sprintf("count=%d sum=%.4fs", h.GetSampleCount(), h.GetSampleSum())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", metric.GetGauge().GetValue())
	}
	return "?"
}
