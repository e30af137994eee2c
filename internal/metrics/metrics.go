// Package metrics exposes Prometheus instruments for the notification pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "notify"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePanic   = "panic"
	OutcomeSkipped = "skipped"
)

// Metrics groups every instrument registered by New.
type Metrics struct {
	DispatchJobs       *prometheus.CounterVec
	DispatchDropped    *prometheus.CounterVec
	QueueDepth         prometheus.Gauge
	TokensIssued       prometheus.Counter
	Handoffs           *prometheus.CounterVec
	RecipientsNotFound prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers all instruments on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		DispatchJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_jobs_total",
			Help:      "Asynchronous jobs completed, by job name and outcome.",
		}, []string{"job", "outcome"}),
		DispatchDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_dropped_total",
			Help:      "Jobs rejected because the queue was full or closed.",
		}, []string{"job"}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_queue_depth",
			Help:      "Jobs waiting for a worker.",
		}),
		TokensIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_tokens_issued_total",
			Help:      "Email verification tokens persisted.",
		}),
		Handoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_handoffs_total",
			Help:      "Messages handed to a channel handler, by channel and outcome.",
		}, []string{"channel", "outcome"}),
		RecipientsNotFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipients_not_found_total",
			Help:      "Notifications abandoned because the directory had no such user.",
		}),
		gatherer: reg,
	}
	reg.MustRegister(
		m.DispatchJobs, m.DispatchDropped, m.QueueDepth,
		m.TokensIssued, m.Handoffs, m.RecipientsNotFound,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
