package observability

import (
	"net/http"
	"strconv"
	"time"
)

// InstrumentedTransport wraps an http.RoundTripper to record backend metrics.
//
// It captures:
//   - chatstream_backend_requests_total (counter): per request with method and status class labels
//   - chatstream_backend_latency_seconds (histogram): time until response headers, by method
//
// Streamed bodies are not timed; the session records its own duration.
type InstrumentedTransport struct {
	// Base is the underlying transport. http.DefaultTransport is used when nil.
	Base http.RoundTripper
}

// NewInstrumentedTransport returns a transport recording metrics around base.
func NewInstrumentedTransport(base http.RoundTripper) *InstrumentedTransport {
	return &InstrumentedTransport{Base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *InstrumentedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)
	BackendLatency.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

	BackendRequestsTotal.WithLabelValues(req.Method, statusClass(resp, err)).Inc()
	return resp, err
}

// statusClass builds a label like "2xx", "4xx", "5xx", or "error" when no
// response was received.
func statusClass(resp *http.Response, err error) string {
	if err != nil || resp == nil {
		return "error"
	}
	return strconv.Itoa(resp.StatusCode/100) + "xx"
}
