// Package metrics - Prometheus stage timings and failure counters.
package metrics

import (
	"net/http"
	"time"

	"github.com/nvr-ai/go-snapclass/failure"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stage labels.
const (
	StageCapture     = "capture"
	StageDecode      = "decode"
	StageResize      = "resize"
	StagePixelBuffer = "pixel_buffer"
	StageInference   = "inference"
	StageTotal       = "total"
)

const (
	namespace = "snapclass"
	subsystem = "pipeline"
)

// Recorder records pipeline metrics into its own registry.
type Recorder struct {
	registry *prometheus.Registry

	stageDuration *prometheus.HistogramVec
	failures      *prometheus.CounterVec
	captures      prometheus.Counter
	rejected      prometheus.Counter
}

// NewRecorder creates a recorder with a fresh registry.
//
// Returns:
//   - *Recorder: The recorder.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	r := &Recorder{
		registry: reg,
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stage_duration_seconds",
				Help:      "Time spent in each stage of a capture",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
			},
			[]string{"stage"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "failures_total",
				Help:      "Total number of failed captures by failure kind",
			},
			[]string{"kind"},
		),
		captures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "captures_total",
				Help:      "Total number of capture events processed",
			},
		),
		rejected: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "rejected_total",
				Help:      "Total number of shutter presses rejected while a capture was in flight",
			},
		),
	}

	for _, k := range failure.Kinds {
		r.failures.WithLabelValues(string(k))
	}
	return r
}

// ObserveStage records the duration of one stage. A nil recorder is a no-op.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// CaptureDone counts a finished capture and its failure kind, if any.
func (r *Recorder) CaptureDone(kind failure.Kind) {
	if r == nil {
		return
	}
	r.captures.Inc()
	if kind != failure.KindNone {
		r.failures.WithLabelValues(string(kind)).Inc()
	}
}

// Rejected counts a capture rejected because another was in flight.
func (r *Recorder) Rejected() {
	if r == nil {
		return
	}
	r.rejected.Inc()
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler returns an HTTP handler serving the recorder's metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
