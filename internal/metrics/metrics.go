// Package metrics exposes Prometheus instruments for the export pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	exportJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lessoncut_export_jobs_total",
		Help: "Export jobs by terminal outcome (completed, failed, cancelled, rejected)",
	}, []string{"outcome"})

	exportAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lessoncut_export_attempts_total",
		Help: "Render attempts by result (success, failure, cancelled)",
	}, []string{"result"})

	exportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lessoncut_export_duration_seconds",
		Help:    "Wall time of export jobs that reached a terminal state",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	})

	exportInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lessoncut_export_in_flight",
		Help: "1 while an export job is active, 0 otherwise",
	})
)

// RecordExportOutcome counts a terminal job outcome and its duration.
func RecordExportOutcome(outcome string, elapsed time.Duration) {
	exportJobs.WithLabelValues(outcome).Inc()
	if elapsed > 0 {
		exportDuration.Observe(elapsed.Seconds())
	}
}

// RecordExportRejected counts a start request refused because a job was active.
func RecordExportRejected() {
	exportJobs.WithLabelValues("rejected").Inc()
}

// RecordExportAttempt counts one render attempt.
func RecordExportAttempt(result string) {
	exportAttempts.WithLabelValues(result).Inc()
}

// SetExportInFlight flips the in-flight gauge.
func SetExportInFlight(active bool) {
	if active {
		exportInFlight.Set(1)
		return
	}
	exportInFlight.Set(0)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
