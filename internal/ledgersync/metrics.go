package ledgersync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of applying one ledger event.
const (
	OutcomeApplied = "applied"
	OutcomeReplay  = "replay"
	OutcomeSkipped = "skipped"
	OutcomeRetry   = "retry"
)

type Metrics struct {
	Events *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &Metrics{
		Events: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "trustscore_ledger_events_total",
			Help: "Ledger events consumed, labeled by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

func (m *Metrics) Observe(kind, outcome string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(kind, outcome).Inc()
}
