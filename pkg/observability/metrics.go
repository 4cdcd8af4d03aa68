// Package observability provides Prometheus metrics and HTTP middleware
// for monitoring claudenode.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rhuss/claudenode/pkg/api"
)

// InvocationBuckets defines histogram buckets suited for Claude Code runs,
// ranging from 100ms to 10 minutes.
var InvocationBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600}

var (
	// RequestsTotal counts all HTTP requests by method and status class.
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudenode_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "status"},
	)

	// RequestDuration records HTTP request duration in seconds by method.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "claudenode_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: InvocationBuckets,
		},
		[]string{"method"},
	)

	// StreamingConnections tracks the number of active SSE execution streams.
	StreamingConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "claudenode_streaming_connections_active",
			Help: "Active streaming connections",
		},
	)

	// ExecutionsTotal counts finished node executions by final status.
	ExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudenode_executions_total",
			Help: "Node executions",
		},
		[]string{"status"},
	)

	// ItemsTotal counts processed items by outcome (succeeded, failed).
	ItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudenode_items_total",
			Help: "Processed items",
		},
		[]string{"status"},
	)

	// InvocationsTotal counts invoker calls by invoker, model and outcome.
	// Outcome is "ok" or the error kind (timeout, launch, process, stream).
	InvocationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudenode_invocations_total",
			Help: "Claude Code invocations",
		},
		[]string{"invoker", "model", "outcome"},
	)

	// InvocationDuration records invoker latency in seconds.
	InvocationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "claudenode_invocation_duration_seconds",
			Help:    "Claude Code invocation duration",
			Buckets: InvocationBuckets,
		},
		[]string{"invoker", "model"},
	)

	// ProcessesActive tracks spawned external processes that have not been reaped.
	ProcessesActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "claudenode_processes_active",
			Help: "Running external processes",
		},
	)

	// ProcessKillsTotal counts processes terminated by the runner, by reason.
	ProcessKillsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudenode_process_kills_total",
			Help: "Forced process terminations",
		},
		[]string{"reason"},
	)

	// RateLimitRejectedTotal counts requests rejected by the rate limiter.
	RateLimitRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudenode_ratelimit_rejected_total",
			Help: "Rate limit rejections",
		},
		[]string{"tier"},
	)

	// ConfigReloadsTotal counts configuration reload attempts by result.
	ConfigReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claudenode_config_reloads_total",
			Help: "Configuration reloads",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestsTotal,
		RequestDuration,
		StreamingConnections,
		ExecutionsTotal,
		ItemsTotal,
		InvocationsTotal,
		InvocationDuration,
		ProcessesActive,
		ProcessKillsTotal,
		RateLimitRejectedTotal,
		ConfigReloadsTotal,
	)
}

// ObserveInvocation records the outcome and latency of one invoker call.
func ObserveInvocation(invoker string, model api.Model, d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = api.ErrorKind(err)
	}
	InvocationsTotal.WithLabelValues(invoker, string(model), outcome).Inc()
	InvocationDuration.WithLabelValues(invoker, string(model)).Observe(d.Seconds())
}
