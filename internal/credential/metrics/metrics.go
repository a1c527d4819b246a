package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for credential lifecycle operations.
type Metrics struct {
	CredentialsTracked  *prometheus.CounterVec
	CredentialsRejected *prometheus.CounterVec
	CredentialsRevoked  *prometheus.CounterVec
	AcceptLatency       prometheus.Histogram
}

// New registers credential metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		CredentialsTracked: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustscore_credentials_tracked_total",
			Help: "Total number of credentials accepted into the store, labeled by type",
		}, []string{"type"}),
		CredentialsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustscore_credentials_rejected_total",
			Help: "Total number of credentials rejected at acceptance, labeled by reason code",
		}, []string{"reason"}),
		CredentialsRevoked: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustscore_credentials_revoked_total",
			Help: "Total number of credentials revoked, labeled by type",
		}, []string{"type"}),
		AcceptLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustscore_credential_accept_latency_seconds",
			Help:    "Latency of credential acceptance in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementTracked(credType string) {
	m.CredentialsTracked.WithLabelValues(credType).Inc()
}

func (m *Metrics) IncrementRejected(reason string) {
	m.CredentialsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncrementRevoked(credType string) {
	m.CredentialsRevoked.WithLabelValues(credType).Inc()
}

func (m *Metrics) ObserveAcceptLatency(durationSeconds float64) {
	m.AcceptLatency.Observe(durationSeconds)
}
