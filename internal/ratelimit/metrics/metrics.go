package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	AdmissionChecksTotal   *prometheus.CounterVec
	AdmissionDenialsTotal  *prometheus.CounterVec
	ViolationsTotal        *prometheus.CounterVec
	StoreFallbacksTotal    prometheus.Counter
	CleanupRunsTotal       *prometheus.CounterVec
	CleanupEvictedTotal    prometheus.Counter
	CleanupDurationSeconds prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		AdmissionChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cardforge_admission_checks_total",
			Help: "Total number of admission checks by action and outcome",
		}, []string{"action", "outcome"}),
		AdmissionDenialsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cardforge_admission_denials_total",
			Help: "Total number of denied admissions by action and reason",
		}, []string{"action", "reason"}),
		ViolationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cardforge_admission_violations_total",
			Help: "Total number of quota violations recorded by action",
		}, []string{"action"}),
		StoreFallbacksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardforge_admission_store_fallbacks_total",
			Help: "Times the shared quota store was unreachable and the in-process fallback answered",
		}),
		CleanupRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cardforge_admission_cleanup_runs_total",
			Help: "Total number of window cleanup runs",
		}, []string{"status"}),
		CleanupEvictedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardforge_admission_cleanup_evicted_total",
			Help: "Total number of drained windows and lapsed counters evicted",
		}),
		CleanupDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "cardforge_admission_cleanup_duration_seconds",
			Help: "Duration of cleanup runs in seconds",
		}),
	}
}

func (m *Metrics) RecordCheck(action, outcome string) {
	m.AdmissionChecksTotal.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) RecordDenial(action, reason string) {
	m.AdmissionDenialsTotal.WithLabelValues(action, reason).Inc()
}

func (m *Metrics) RecordViolation(action string) {
	m.ViolationsTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) RecordStoreFallback() {
	m.StoreFallbacksTotal.Inc()
}

func (m *Metrics) RecordCleanupRun(status string, evicted int, durationSeconds float64) {
	m.CleanupRunsTotal.WithLabelValues(status).Inc()
	m.CleanupEvictedTotal.Add(float64(evicted))
	m.CleanupDurationSeconds.Observe(durationSeconds)
}
