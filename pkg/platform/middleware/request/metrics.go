package request

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Latency *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Latency: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trustscore_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) observe(method, route, status string, d time.Duration) {
	m.Latency.WithLabelValues(method, route, status).Observe(d.Seconds())
}
