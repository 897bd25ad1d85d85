// Package metrics exposes per-target execution metrics in the Prometheus
// format. Each Recorder owns its own registry so several runs in one process
// never share counters.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vk/buildgrid/internal/plan"
)

const namespace = "buildgrid"

// Recorder collects metrics from finished targets. It satisfies
// executor.Observer.
type Recorder struct {
	registry   *prometheus.Registry
	outcomes   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	partitions *prometheus.CounterVec
	runs       prometheus.Counter
}

// New creates a Recorder with all collectors registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "target",
				Name:      "outcomes_total",
				Help:      "Finished targets by terminal status.",
			},
			[]string{"target", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "target",
				Name:      "duration_seconds",
				Help:      "Wall time of executed targets in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"target"},
		),
		partitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "target",
				Name:      "partitions_total",
				Help:      "Executed partitions by terminal status.",
			},
			[]string{"target", "status"},
		),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Executed plans.",
		}),
	}
	r.registry.MustRegister(r.outcomes, r.duration, r.partitions, r.runs)
	return r
}

// TargetFinished records one outcome.
func (r *Recorder) TargetFinished(_ context.Context, o plan.Outcome) {
	r.outcomes.WithLabelValues(o.Name, o.Status.String()).Inc()
	if o.Status != plan.Skipped {
		r.duration.WithLabelValues(o.Name).Observe(o.Duration.Seconds())
	}
	for _, p := range o.Partitions {
		r.partitions.WithLabelValues(o.Name, p.Status.String()).Inc()
	}
}

// RunStarted counts a plan execution.
func (r *Recorder) RunStarted() {
	r.runs.Inc()
}

// Handler serves the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Gatherer exposes the underlying registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteFile dumps the current values in the text exposition format, for
// node_exporter's textfile collector.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file %s: %w", path, err)
	}
	return nil
}
