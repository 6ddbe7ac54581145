// Package metrics provides Prometheus instrumentation for mediaprobe.
//
// It pre-defines the metrics every run records — scenario outcomes, probe
// call latency, cleanup results — and gives you helpers to register your
// own custom metrics.
//
// Monitor mode mounts the scrape endpoint:
//
//	r.Get("/metrics", metrics.Handler())
//
// Then scrape http://localhost:9464/metrics from Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ─────────────────────────────────────────────
// Built-in probe metrics
// ─────────────────────────────────────────────

var (
	// ScenarioTotal counts scenario executions by name and outcome.
	ScenarioTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mediaprobe",
			Subsystem: "scenario",
			Name:      "runs_total",
			Help:      "Total scenario executions.",
		},
		[]string{"scenario", "outcome"}, // "passed" | "failed" | "skipped"
	)

	// ScenarioDuration tracks how long each scenario takes end to end.
	ScenarioDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mediaprobe",
			Subsystem: "scenario",
			Name:      "duration_seconds",
			Help:      "Duration of scenario executions in seconds.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"scenario"},
	)

	// ProbeCallDuration tracks latency of individual calls against the
	// platform, broken down by method and transport status.
	ProbeCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mediaprobe",
			Subsystem: "probe",
			Name:      "call_duration_seconds",
			Help:      "Duration of HTTP calls against the platform in seconds.",
			Buckets:   prometheus.DefBuckets, // .005 .01 .025 .05 .1 .25 .5 1 2.5 5 10
		},
		[]string{"method", "status"},
	)

	// ProbeCallTotal counts all calls against the platform.
	ProbeCallTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mediaprobe",
			Subsystem: "probe",
			Name:      "calls_total",
			Help:      "Total HTTP calls against the platform.",
		},
		[]string{"method", "status"},
	)

	// RunDuration tracks whole-run wall time.
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "mediaprobe",
			Subsystem: "run",
			Name:      "duration_seconds",
			Help:      "Duration of whole suite runs in seconds.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	// RunLast reports the outcome of the most recent run as a gauge so
	// alerting can fire on mediaprobe_run_last_failed > 0.
	RunLast = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "mediaprobe",
			Subsystem: "run",
			Name:      "last",
			Help:      "Scenario counts of the most recent run.",
		},
		[]string{"outcome"},
	)

	// CleanupDeletions counts fixture deletions by result.
	CleanupDeletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mediaprobe",
			Subsystem: "cleanup",
			Name:      "deletions_total",
			Help:      "Total fixture deletions attempted by the cleanup coordinator.",
		},
		[]string{"result"}, // "deleted" | "failed"
	)
)

// ─────────────────────────────────────────────
// Registry
// ─────────────────────────────────────────────

// DefaultRegistry is the Prometheus registry used by mediaprobe.
// Register your own metrics against this.
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	// Go runtime metrics (GC, goroutines, memory)
	DefaultRegistry.MustRegister(collectors.NewGoCollector())
	// OS process metrics (CPU, open FDs)
	DefaultRegistry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	DefaultRegistry.MustRegister(
		ScenarioTotal,
		ScenarioDuration,
		ProbeCallDuration,
		ProbeCallTotal,
		RunDuration,
		RunLast,
		CleanupDeletions,
	)
}

// Register lets you add your own prometheus.Collector to the registry.
func Register(c prometheus.Collector) error {
	return DefaultRegistry.Register(c)
}

// MustRegister panics if registration fails.
func MustRegister(c ...prometheus.Collector) {
	DefaultRegistry.MustRegister(c...)
}

// ─────────────────────────────────────────────
// /metrics endpoint handler
// ─────────────────────────────────────────────

// Handler returns an http.HandlerFunc that exposes the Prometheus metrics
// page. Mount it on GET /metrics.
func Handler() http.HandlerFunc {
	h := promhttp.HandlerFor(DefaultRegistry, promhttp.HandlerOpts{
		EnableOpenMetrics: true, // enables text/plain AND OpenMetrics formats
	})
	return h.ServeHTTP
}

// ─────────────────────────────────────────────
// Helpers for harness code
// ─────────────────────────────────────────────

// RecordScenario records one scenario execution.
func RecordScenario(name, outcome string, start time.Time) {
	ScenarioTotal.WithLabelValues(name, outcome).Inc()
	ScenarioDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
}

// RecordProbeCall records one call against the platform:
//
//	defer metrics.RecordProbeCall("GET", status, time.Now())
func RecordProbeCall(method, status string, start time.Time) {
	ProbeCallTotal.WithLabelValues(method, status).Inc()
	ProbeCallDuration.WithLabelValues(method, status).Observe(time.Since(start).Seconds())
}

// RecordRun records whole-run counts and wall time.
func RecordRun(passed, failed, skipped int, start time.Time) {
	RunDuration.Observe(time.Since(start).Seconds())
	RunLast.WithLabelValues("passed").Set(float64(passed))
	RunLast.WithLabelValues("failed").Set(float64(failed))
	RunLast.WithLabelValues("skipped").Set(float64(skipped))
}

// RecordCleanup records cleanup coordinator results.
func RecordCleanup(deleted, failed int) {
	CleanupDeletions.WithLabelValues("deleted").Add(float64(deleted))
	CleanupDeletions.WithLabelValues("failed").Add(float64(failed))
}
