package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the pipeline counters. Each server carries its own registry
// so tests can spin up instances independently.
type metrics struct {
	registry *prometheus.Registry

	requests           *prometheus.CounterVec
	generationFailures *prometheus.CounterVec
	emptyRetrievals    *prometheus.CounterVec
	generationSeconds  *prometheus.HistogramVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposalkit_requests_total",
			Help: "Generation requests by route and status code.",
		}, []string{"route", "status"}),
		generationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposalkit_generation_failures_total",
			Help: "Provider failures after the retry budget was exhausted.",
		}, []string{"route"}),
		emptyRetrievals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "proposalkit_empty_retrievals_total",
			Help: "Requests whose filters matched zero chunks.",
		}, []string{"route"}),
		generationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proposalkit_generation_seconds",
			Help:    "Wall time of the provider generation call.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	m.registry.MustRegister(m.requests, m.generationFailures, m.emptyRetrievals, m.generationSeconds)
	return m
}
