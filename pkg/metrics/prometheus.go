package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchTotal    *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	staleDiscards *prometheus.CounterVec
	liveSessions  prometheus.Gauge
}

// New creates a recorder registered on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		fetchTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "earnview",
				Name:      "upstream_requests_total",
				Help:      "Calls to the earnings API by operation and result",
			},
			[]string{"op", "result"},
		),
		fetchDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "earnview",
				Name:      "upstream_request_duration_seconds",
				Help:      "Latency of calls to the earnings API",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		staleDiscards: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "earnview",
				Name:      "stale_responses_discarded_total",
				Help:      "Responses dropped because their key was no longer active",
			},
			[]string{"op"},
		),
		liveSessions: f.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "earnview",
				Name:      "live_sessions",
				Help:      "Dashboard page sessions currently held",
			},
		),
	}
}

// RecordFetch records one upstream call.
func (r *Recorder) RecordFetch(op string, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.fetchTotal.WithLabelValues(op, result).Inc()
	r.fetchDuration.WithLabelValues(op).Observe(seconds)
}

// RecordStaleDiscard counts a response dropped by the stale guard.
func (r *Recorder) RecordStaleDiscard(op string) {
	r.staleDiscards.WithLabelValues(op).Inc()
}

// SetLiveSessions sets the live session gauge.
func (r *Recorder) SetLiveSessions(n int) {
	r.liveSessions.Set(float64(n))
}
