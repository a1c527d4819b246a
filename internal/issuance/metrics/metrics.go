package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the issuance flow.
type Metrics struct {
	DraftsCreated    *prometheus.CounterVec
	Submissions      *prometheus.CounterVec
	SignLatency      prometheus.Histogram
	ExpiredDraftsGCd prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		DraftsCreated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustscore_issuance_drafts_created_total",
			Help: "Issuance drafts created, labeled by credential type",
		}, []string{"type"}),
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trustscore_issuance_submissions_total",
			Help: "Signature submissions, labeled by outcome code",
		}, []string{"outcome"}),
		SignLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustscore_issuance_sign_duration_seconds",
			Help:    "Time spent awaiting the external signer",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		ExpiredDraftsGCd: f.NewCounter(prometheus.CounterOpts{
			Name: "trustscore_issuance_drafts_expired_total",
			Help: "Drafts evicted by the in-memory sweeper",
		}),
	}
}

func (m *Metrics) IncrementDraft(credType string) {
	m.DraftsCreated.WithLabelValues(credType).Inc()
}

func (m *Metrics) IncrementSubmission(outcome string) {
	m.Submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveSignLatency(seconds float64) {
	m.SignLatency.Observe(seconds)
}

func (m *Metrics) AddExpired(n int) {
	m.ExpiredDraftsGCd.Add(float64(n))
}
