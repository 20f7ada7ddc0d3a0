package openaicompat

import (
	"net/http"
	"time"
)

// Config holds connection settings for a Chat Completions backend.
type Config struct {
	// BaseURL is the backend URL (e.g., "http://localhost:8000").
	BaseURL string

	// APIKey for bearer authentication (optional).
	APIKey string

	// Timeout for non-streaming requests. Defaults to 120s. Streaming
	// requests are bounded by their context instead.
	Timeout time.Duration

	// Transport overrides the HTTP transport (e.g., for instrumentation).
	Transport http.RoundTripper
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 120 * time.Second,
	}
}
