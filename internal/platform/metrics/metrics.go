// Package metrics exposes Prometheus metrics for the task lifecycle. A
// Recorder subscribes to lifecycle events and keeps counters, a gauge of
// running tasks and execution-time histograms on its own registry.
package metrics

import (
	"context"
	"net/http"

	"github.com/phrazzld/querytask/internal/events"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "querytask"

// Recorder turns task lifecycle events into Prometheus metrics.
type Recorder struct {
	registry *prometheus.Registry

	submitted *prometheus.CounterVec
	rejected  *prometheus.CounterVec
	succeeded *prometheus.CounterVec
	failed    *prometheus.CounterVec
	active    prometheus.Gauge
	duration  *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with a fresh registry that also carries
// the Go runtime and process collectors.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		submitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_submitted_total",
			Help:      "Total tasks accepted by the dispatcher.",
		}, []string{"type"}),
		rejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_rejected_total",
			Help:      "Total submissions refused because the queue was unavailable.",
		}, []string{"type"}),
		succeeded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_succeeded_total",
			Help:      "Total tasks that finished with a result.",
		}, []string{"type"}),
		failed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_failed_total",
			Help:      "Total tasks that finished with an error.",
		}, []string{"type", "kind"}),
		active: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tasks_active",
			Help:      "Number of currently executing tasks.",
		}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task execution time in seconds.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"type", "state"}),
	}
}

// HandleEvent implements events.EventHandler.
func (r *Recorder) HandleEvent(_ context.Context, event *events.TaskEvent) error {
	switch event.Type {
	case events.TaskSubmitted:
		r.submitted.WithLabelValues(event.TaskType).Inc()
	case events.SubmissionRejected:
		r.rejected.WithLabelValues(event.TaskType).Inc()
	case events.TaskStarted:
		r.active.Inc()
	case events.TaskSucceeded:
		r.active.Dec()
		r.succeeded.WithLabelValues(event.TaskType).Inc()
		r.duration.WithLabelValues(event.TaskType, "SUCCESS").Observe(event.Duration.Seconds())
	case events.TaskFailed:
		r.active.Dec()
		r.failed.WithLabelValues(event.TaskType, event.ErrorKind).Inc()
		r.duration.WithLabelValues(event.TaskType, "FAILURE").Observe(event.Duration.Seconds())
	}
	return nil
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Ensure Recorder implements events.EventHandler
var _ events.EventHandler = (*Recorder)(nil)
