// Package observability provides Prometheus metrics and an instrumented
// HTTP transport for monitoring chatstream sessions.
package observability

import "github.com/prometheus/client_golang/prometheus"

// LLMBuckets defines histogram buckets suited for LLM inference latencies,
// ranging from 100ms to 120s.
var LLMBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120}

var (
	// SessionsTotal counts finished sessions by terminal state.
	SessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstream_sessions_total",
			Help: "Finished streaming sessions",
		},
		[]string{"outcome"},
	)

	// SessionFailuresTotal counts surfaced session failures by error kind.
	SessionFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstream_session_failures_total",
			Help: "Session failures",
		},
		[]string{"kind"},
	)

	// SessionDuration records wall time from preflight to terminal state.
	SessionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatstream_session_duration_seconds",
			Help:    "Session duration",
			Buckets: LLMBuckets,
		},
		[]string{"outcome"},
	)

	// ActiveSessions tracks sessions currently reading a stream.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatstream_sessions_active",
			Help: "Active streaming sessions",
		},
	)

	// FramesTotal counts classified lines by frame kind.
	FramesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstream_frames_total",
			Help: "Classified stream frames",
		},
		[]string{"kind"},
	)

	// DroppedPayloadsTotal counts data payloads discarded without surfacing
	// an error, by reason.
	DroppedPayloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstream_dropped_payloads_total",
			Help: "Dropped data payloads",
		},
		[]string{"reason"},
	)

	// DeltasTotal counts content fragments applied to a transcript.
	DeltasTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatstream_deltas_total",
			Help: "Applied content deltas",
		},
	)

	// DeltaBytesTotal counts UTF-8 bytes of applied content.
	DeltaBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatstream_delta_bytes_total",
			Help: "Applied content bytes",
		},
	)

	// BackendRequestsTotal counts HTTP requests sent to the backend.
	BackendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstream_backend_requests_total",
			Help: "Backend requests",
		},
		[]string{"method", "status"},
	)

	// BackendLatency records time until response headers arrive.
	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chatstream_backend_latency_seconds",
			Help:    "Backend time to first byte",
			Buckets: LLMBuckets,
		},
		[]string{"method"},
	)

	// BackendTokensTotal counts tokens reported by the backend, by direction (input/output).
	BackendTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatstream_backend_tokens_total",
			Help: "Token count",
		},
		[]string{"model", "direction"},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsTotal,
		SessionFailuresTotal,
		SessionDuration,
		ActiveSessions,
		FramesTotal,
		DroppedPayloadsTotal,
		DeltasTotal,
		DeltaBytesTotal,
		BackendRequestsTotal,
		BackendLatency,
		BackendTokensTotal,
	)
}
