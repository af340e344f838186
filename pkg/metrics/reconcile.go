package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReconcileMetrics records metadata for the pallet reconciliation job.
type ReconcileMetrics struct {
	duration     *prometheus.HistogramVec
	success      *prometheus.CounterVec
	failure      *prometheus.CounterVec
	completions  prometheus.Counter
	skippedLines prometheus.Counter
}

// NewReconcileMetrics registers the reconciliation metrics on the provided registerer.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of scheduled jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful scheduled job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed scheduled job executions.",
	}, []string{"job"})
	completions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pallet_completions_detected",
		Help: "Pallet completion transitions detected by reconciliation.",
	})
	skipped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pallet_lines_skipped",
		Help: "Reservation lines skipped during aggregation due to missing data.",
	})
	reg.MustRegister(duration, success, failure, completions, skipped)
	return &ReconcileMetrics{
		duration:     duration,
		success:      success,
		failure:      failure,
		completions:  completions,
		skippedLines: skipped,
	}
}

// ObserveDuration records the duration for the named job.
func (m *ReconcileMetrics) ObserveDuration(job string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (m *ReconcileMetrics) IncSuccess(job string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (m *ReconcileMetrics) IncFailure(job string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncCompletion counts a detected completion transition.
func (m *ReconcileMetrics) IncCompletion() {
	if m == nil || m.completions == nil {
		return
	}
	m.completions.Inc()
}

// IncSkippedLine counts a reservation line excluded from aggregation.
func (m *ReconcileMetrics) IncSkippedLine() {
	if m == nil || m.skippedLines == nil {
		return
	}
	m.skippedLines.Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}
