// Package config provides unified configuration for chatstream.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML or TOML config file (discovered or explicitly specified)
//  3. Environment variable overrides (CHATSTREAM_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for a chatstream client.
type Config struct {
	Backend       BackendConfig       `yaml:"backend" toml:"backend"`
	Stream        StreamConfig        `yaml:"stream" toml:"stream"`
	Logging       LoggingConfig       `yaml:"logging" toml:"logging"`
	Observability ObservabilityConfig `yaml:"observability" toml:"observability"`
}

// BackendConfig holds the chat-completion backend settings.
type BackendConfig struct {
	URL          string        `yaml:"url" toml:"url"`                     // required
	APIKey       string        `yaml:"api_key" toml:"api_key"`             // optional
	APIKeyFile   string        `yaml:"api_key_file" toml:"api_key_file"`   // _file variant for api_key
	Model        string        `yaml:"model" toml:"model"`                 // required
	SystemPrompt string        `yaml:"system_prompt" toml:"system_prompt"` // optional
	Timeout      time.Duration `yaml:"timeout" toml:"timeout"`             // default: 30s, non-streaming calls only
	Temperature  *float64      `yaml:"temperature" toml:"temperature"`     // optional
	MaxTokens    int           `yaml:"max_tokens" toml:"max_tokens"`       // 0 = backend default
}

// StreamConfig holds the SSE decoding settings.
type StreamConfig struct {
	DataPrefix      string `yaml:"data_prefix" toml:"data_prefix"`             // default: "data:"
	Sentinel        string `yaml:"sentinel" toml:"sentinel"`                   // default: "[DONE]"
	ReadBufferSize  int    `yaml:"read_buffer_size" toml:"read_buffer_size"`   // default: 4096
	MaxDeferrals    int    `yaml:"max_deferrals" toml:"max_deferrals"`         // default: 8
	MaxLineBytes    int    `yaml:"max_line_bytes" toml:"max_line_bytes"`       // default: 1 MiB
	RateLimitStatus int    `yaml:"rate_limit_status" toml:"rate_limit_status"` // default: 429
	QuotaStatus     int    `yaml:"quota_status" toml:"quota_status"`           // default: 402
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level      string `yaml:"level" toml:"level"`               // default: "INFO"
	Debug      string `yaml:"debug" toml:"debug"`               // comma-separated categories
	File       string `yaml:"file" toml:"file"`                 // empty = stderr
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`   // default: 50
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`   // default: 3
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"` // default: 28
	Compress   bool   `yaml:"compress" toml:"compress"`
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"` // default: false
	Addr    string `yaml:"addr" toml:"addr"`       // default: ":9464"
	Path    string `yaml:"path" toml:"path"`       // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Backend: BackendConfig{
			Timeout: 30 * time.Second,
		},
		Stream: StreamConfig{
			DataPrefix:      "data:",
			Sentinel:        "[DONE]",
			ReadBufferSize:  4096,
			MaxDeferrals:    8,
			MaxLineBytes:    1 << 20,
			RateLimitStatus: 429,
			QuotaStatus:     402,
		},
		Logging: LoggingConfig{
			Level:      "INFO",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Addr: ":9464",
				Path: "/metrics",
			},
		},
	}
}
