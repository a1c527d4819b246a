package scoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ScoresComputed    prometheus.Histogram
	ComputeLatency    prometheus.Histogram
	RecordsSkipped    prometheus.Counter
	CollateralLookups *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ScoresComputed: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustscore_score_value",
			Help:    "Distribution of computed subject scores",
			Buckets: prometheus.LinearBuckets(0, 100, 11),
		}),
		ComputeLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustscore_score_compute_latency_seconds",
			Help:    "Latency of score computation including the store read",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
		RecordsSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "trustscore_score_records_skipped_total",
			Help: "Stored credential records ignored by the aggregator as malformed or unknown",
		}),
		CollateralLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustscore_collateral_factor_total",
			Help: "Collateral factors served, labeled by factor",
		}, []string{"factor"}),
	}
}

func (m *Metrics) ObserveScore(score int, durationSeconds float64, skipped int) {
	m.ScoresComputed.Observe(float64(score))
	m.ComputeLatency.Observe(durationSeconds)
	if skipped > 0 {
		m.RecordsSkipped.Add(float64(skipped))
	}
}
