package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the issuer registry.
type Metrics struct {
	IssuersRegistered   prometheus.Counter
	IssuerStateChanges  *prometheus.CounterVec
	AuthorizationChecks *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		IssuersRegistered: f.NewCounter(prometheus.CounterOpts{
			Name: "trustscore_issuers_registered_total",
			Help: "Total number of issuers registered",
		}),
		IssuerStateChanges: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustscore_issuer_state_changes_total",
			Help: "Total number of issuer activations and deactivations",
		}, []string{"state"}),
		AuthorizationChecks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustscore_issuer_authorization_checks_total",
			Help: "Issuer authorization checks labeled by outcome",
		}, []string{"outcome"}),
	}
}

func (m *Metrics) IncrementRegistered() {
	m.IssuersRegistered.Inc()
}

func (m *Metrics) IncrementStateChange(active bool) {
	state := "inactive"
	if active {
		state = "active"
	}
	m.IssuerStateChanges.WithLabelValues(state).Inc()
}

func (m *Metrics) IncrementAuthorizationCheck(outcome string) {
	m.AuthorizationChecks.WithLabelValues(outcome).Inc()
}
