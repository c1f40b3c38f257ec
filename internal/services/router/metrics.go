package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	routedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "switch_transactions_routed_total",
		Help: "Routed transactions by terminal status",
	}, []string{"status"})

	fraudActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "switch_fraud_decisions_total",
		Help: "Fraud pipeline decisions by action",
	}, []string{"action"})

	rateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "switch_rate_limited_total",
		Help: "Requests rejected by the device rate limit",
	})

	replaysTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "switch_idempotent_replays_total",
		Help: "Requests answered from a previously recorded outcome",
	})

	routeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "switch_route_duration_seconds",
		Help:    "Latency distribution of transaction routing",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})
)

// PrometheusMetrics records routing signals into the default registry.
type PrometheusMetrics struct{}

func (PrometheusMetrics) RecordOutcome(status string)       { routedTotal.WithLabelValues(status).Inc() }
func (PrometheusMetrics) RecordFraudAction(action string)   { fraudActionsTotal.WithLabelValues(action).Inc() }
func (PrometheusMetrics) RecordRateLimited()                { rateLimitedTotal.Inc() }
func (PrometheusMetrics) RecordReplay()                     { replaysTotal.Inc() }
func (PrometheusMetrics) RecordRouteDuration(seconds float64) { routeDuration.Observe(seconds) }

// NoopMetrics is a no-op implementation of MetricsCollector.
type NoopMetrics struct{}

func (NoopMetrics) RecordOutcome(string)         {}
func (NoopMetrics) RecordFraudAction(string)     {}
func (NoopMetrics) RecordRateLimited()           {}
func (NoopMetrics) RecordReplay()                {}
func (NoopMetrics) RecordRouteDuration(float64)  {}
