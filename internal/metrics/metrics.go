// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LLMBuckets covers provider latencies from 100ms to two minutes.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// HTTPRequestsTotal counts HTTP requests by method, route and status class.
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finagent_http_requests_total",
			Help: "HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// ProviderRequestsTotal counts calls made to text-generation backends.
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finagent_provider_requests_total",
			Help: "Provider requests",
		},
		[]string{"provider", "operation", "status"},
	)

	// ProviderLatency records backend latency in seconds.
	ProviderLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finagent_provider_latency_seconds",
			Help:    "Provider latency",
			Buckets: LLMBuckets,
		},
		[]string{"provider", "operation"},
	)

	// ProviderTokensTotal counts tokens reported by backends.
	ProviderTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finagent_provider_tokens_total",
			Help: "Token count",
		},
		[]string{"provider"},
	)

	// AgentExecutionsTotal counts agent runs by outcome (success, failure, error).
	AgentExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finagent_agent_executions_total",
			Help: "Agent executions",
		},
		[]string{"agent", "outcome"},
	)

	// AgentDuration records agent execution time in seconds.
	AgentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "finagent_agent_duration_seconds",
			Help:    "Agent execution duration",
			Buckets: LLMBuckets,
		},
		[]string{"agent"},
	)

	// RejectedStatementsTotal counts generated statements refused by the read gate.
	RejectedStatementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finagent_rejected_statements_total",
			Help: "Generated statements rejected before execution",
		},
		[]string{"agent"},
	)

	// LedgerOperationsTotal counts committed money movements by kind.
	LedgerOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "finagent_ledger_operations_total",
			Help: "Committed money movements",
		},
		[]string{"kind"},
	)

	// StreamConnections tracks open streaming protocol connections.
	StreamConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "finagent_stream_connections_active",
			Help: "Active streaming connections",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		ProviderRequestsTotal,
		ProviderLatency,
		ProviderTokensTotal,
		AgentExecutionsTotal,
		AgentDuration,
		RejectedStatementsTotal,
		LedgerOperationsTotal,
		StreamConnections,
	)
}

// ObserveProvider records one backend call.
func ObserveProvider(provider, operation string, started time.Time, tokens *int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	ProviderRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	ProviderLatency.WithLabelValues(provider, operation).Observe(time.Since(started).Seconds())
	if tokens != nil && *tokens > 0 {
		ProviderTokensTotal.WithLabelValues(provider).Add(float64(*tokens))
	}
}

// ObserveAgent records one agent execution.
func ObserveAgent(agent, outcome string, started time.Time) {
	AgentExecutionsTotal.WithLabelValues(agent, outcome).Inc()
	AgentDuration.WithLabelValues(agent).Observe(time.Since(started).Seconds())
}
