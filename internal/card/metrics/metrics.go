package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	CardsGeneratedTotal     *prometheus.CounterVec
	GenerationFailuresTotal *prometheus.CounterVec
	GenerationSeconds       prometheus.Histogram
	SynthFallbacksTotal     prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		CardsGeneratedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cardforge_cards_generated_total",
			Help: "Total number of cards generated, by brand",
		}, []string{"brand"}),
		GenerationFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "cardforge_generation_failures_total",
			Help: "Total number of failed generation requests, by error code",
		}, []string{"code"}),
		GenerationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "cardforge_generation_duration_seconds",
			Help:    "Duration of single-card generation calls",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		SynthFallbacksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "cardforge_synth_uniform_fallbacks_total",
			Help: "Times the pattern-avoidance loop exhausted its bound and fell back to uniform digits",
		}),
	}
}

func (m *Metrics) RecordGenerated(brand string) {
	m.CardsGeneratedTotal.WithLabelValues(brand).Inc()
}

func (m *Metrics) RecordFailure(code string) {
	m.GenerationFailuresTotal.WithLabelValues(code).Inc()
}

func (m *Metrics) ObserveGeneration(seconds float64) {
	m.GenerationSeconds.Observe(seconds)
}
