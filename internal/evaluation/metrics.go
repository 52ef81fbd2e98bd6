package evaluation

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"brigade/internal/kitchen"
)

// MetricsCollector exports run-level metrics through a dedicated
// prometheus registry
type MetricsCollector struct {
	registry          *prometheus.Registry
	runsTotal         *prometheus.CounterVec
	runSteps          prometheus.Histogram
	tasksCompleted    prometheus.Counter
	actuationFailures prometheus.Counter
	runDuration       prometheus.Histogram
}

// NewMetricsCollector creates and registers the run metrics
func NewMetricsCollector() *MetricsCollector {
	mc := &MetricsCollector{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kitchen_runs_total",
				Help: "Finished kitchen runs by terminal status",
			},
			[]string{"status"},
		),
		runSteps: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kitchen_run_steps",
				Help:    "Steps taken per kitchen run",
				Buckets: prometheus.LinearBuckets(0, 5, 12),
			},
		),
		tasksCompleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kitchen_tasks_completed_total",
				Help: "Tasks completed across all runs",
			},
		),
		actuationFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "kitchen_actuation_failures_total",
				Help: "Failed action records across all runs",
			},
		),
		runDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kitchen_run_duration_seconds",
				Help:    "Wall-clock duration per kitchen run",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
			},
		),
	}

	mc.registry.MustRegister(
		mc.runsTotal,
		mc.runSteps,
		mc.tasksCompleted,
		mc.actuationFailures,
		mc.runDuration,
	)
	return mc
}

// ObserveRun records the metrics of one finished run
func (mc *MetricsCollector) ObserveRun(result *kitchen.RunResult, duration time.Duration) {
	mc.runsTotal.WithLabelValues(string(result.Status)).Inc()
	mc.runSteps.Observe(float64(result.Steps))
	mc.tasksCompleted.Add(float64(result.Completed))
	mc.runDuration.Observe(duration.Seconds())

	for _, records := range result.Log {
		for _, record := range records {
			if !record.Success {
				mc.actuationFailures.Inc()
			}
		}
	}
}

// Registry exposes the underlying registry for gathering in tests
func (mc *MetricsCollector) Registry() *prometheus.Registry {
	return mc.registry
}

// Handler serves the collected metrics in the prometheus text format
func (mc *MetricsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{})
}
