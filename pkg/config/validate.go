package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// Returns an error with a descriptive field path on failure.
func (c *Config) Validate() error {
	var errs []error

	if c.Backend.URL == "" {
		errs = append(errs, fmt.Errorf("backend.url is required"))
	} else if !strings.HasPrefix(c.Backend.URL, "http://") && !strings.HasPrefix(c.Backend.URL, "https://") {
		errs = append(errs, fmt.Errorf("backend.url must start with http:// or https://, got %q", c.Backend.URL))
	}
	if c.Backend.Model == "" {
		errs = append(errs, fmt.Errorf("backend.model is required"))
	}
	if c.Backend.Timeout < 0 {
		errs = append(errs, fmt.Errorf("backend.timeout must be >= 0, got %v", c.Backend.Timeout))
	}
	if c.Backend.MaxTokens < 0 {
		errs = append(errs, fmt.Errorf("backend.max_tokens must be >= 0, got %d", c.Backend.MaxTokens))
	}
	if t := c.Backend.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, fmt.Errorf("backend.temperature must be within [0, 2], got %v", *t))
	}

	if c.Stream.DataPrefix == "" {
		errs = append(errs, fmt.Errorf("stream.data_prefix must not be empty"))
	} else if strings.HasPrefix(c.Stream.DataPrefix, ":") {
		errs = append(errs, fmt.Errorf("stream.data_prefix must not start with the comment marker ':'"))
	}
	if strings.TrimSpace(c.Stream.Sentinel) == "" {
		errs = append(errs, fmt.Errorf("stream.sentinel must not be empty"))
	}
	if c.Stream.ReadBufferSize <= 0 {
		errs = append(errs, fmt.Errorf("stream.read_buffer_size must be > 0, got %d", c.Stream.ReadBufferSize))
	}
	if c.Stream.MaxDeferrals < 0 {
		errs = append(errs, fmt.Errorf("stream.max_deferrals must be >= 0, got %d", c.Stream.MaxDeferrals))
	}
	if c.Stream.MaxLineBytes <= 0 {
		errs = append(errs, fmt.Errorf("stream.max_line_bytes must be > 0, got %d", c.Stream.MaxLineBytes))
	}
	for name, status := range map[string]int{
		"stream.rate_limit_status": c.Stream.RateLimitStatus,
		"stream.quota_status":      c.Stream.QuotaStatus,
	} {
		if status < 400 || status > 599 {
			errs = append(errs, fmt.Errorf("%s must be an HTTP error status (400-599), got %d", name, status))
		}
	}
	if c.Stream.RateLimitStatus == c.Stream.QuotaStatus {
		errs = append(errs, fmt.Errorf("stream.rate_limit_status and stream.quota_status must differ, both are %d", c.Stream.QuotaStatus))
	}

	switch strings.ToUpper(c.Logging.Level) {
	case "TRACE", "DEBUG", "INFO", "WARN", "WARNING", "ERROR", "":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of TRACE, DEBUG, INFO, WARN, ERROR, got %q", c.Logging.Level))
	}

	if c.Observability.Metrics.Enabled {
		if c.Observability.Metrics.Addr == "" {
			errs = append(errs, fmt.Errorf("observability.metrics.addr is required when metrics are enabled"))
		}
		if !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
			errs = append(errs, fmt.Errorf("observability.metrics.path must start with '/', got %q", c.Observability.Metrics.Path))
		}
	}

	return errors.Join(errs...)
}
