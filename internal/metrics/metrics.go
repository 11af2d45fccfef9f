// Package metrics exposes render activity as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/l3aro/jackal-flow/pkg/render"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements render.Observer on a Prometheus registry.
type Recorder struct {
	outcomes       *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	cacheLookups   *prometheus.CounterVec
}

// New registers the jflow metrics on reg and returns a recorder for them.
// A nil reg registers on the default registry.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jflow_outcomes_total",
			Help: "Refresh outcomes by status",
		}, []string{"status"}),

		renderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jflow_render_duration_seconds",
			Help:    "Renderer call duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		}, []string{"result"}),

		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "jflow_cache_lookups_total",
			Help: "Diagram cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveOutcome counts one outcome.
func (r *Recorder) ObserveOutcome(status render.Status) {
	r.outcomes.WithLabelValues(string(status)).Inc()
}

// ObserveRender records one renderer call.
func (r *Recorder) ObserveRender(d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.renderDuration.WithLabelValues(result).Observe(d.Seconds())
}

// ObserveCache counts one cache lookup.
func (r *Recorder) ObserveCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(result).Inc()
}

var _ render.Observer = (*Recorder)(nil)
