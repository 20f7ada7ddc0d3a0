package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/rhuss/chatstream/pkg/debug"
)

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. Config file (explicit path, CHATSTREAM_CONFIG env, ./chatstream.yaml,
//     ./chatstream.toml, /etc/chatstream/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load the config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "loaded config file", "path", filePath)
	}

	// Apply environment variable overrides.
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. CHATSTREAM_CONFIG environment variable
// 3. ./chatstream.yaml or ./chatstream.toml in the current directory
// 4. /etc/chatstream/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("CHATSTREAM_CONFIG"); envPath != "" {
		return envPath
	}

	candidates := []string{
		"chatstream.yaml",
		"chatstream.toml",
		"/etc/chatstream/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadFile reads a config file into cfg, choosing the decoder by extension.
// Fields not present in the file retain their current (default) values.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// applyEnvOverrides maps CHATSTREAM_* environment variables to config fields.
// Malformed numeric values are reported rather than silently ignored.
func applyEnvOverrides(cfg *Config) error {
	strVars := map[string]*string{
		"CHATSTREAM_BACKEND_URL":   &cfg.Backend.URL,
		"CHATSTREAM_API_KEY":       &cfg.Backend.APIKey,
		"CHATSTREAM_API_KEY_FILE":  &cfg.Backend.APIKeyFile,
		"CHATSTREAM_MODEL":         &cfg.Backend.Model,
		"CHATSTREAM_SYSTEM_PROMPT": &cfg.Backend.SystemPrompt,
		"CHATSTREAM_DATA_PREFIX":   &cfg.Stream.DataPrefix,
		"CHATSTREAM_SENTINEL":      &cfg.Stream.Sentinel,
		"CHATSTREAM_LOG_FILE":      &cfg.Logging.File,
		"CHATSTREAM_METRICS_ADDR":  &cfg.Observability.Metrics.Addr,
	}
	for name, field := range strVars {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}

	intVars := map[string]*int{
		"CHATSTREAM_MAX_TOKENS":        &cfg.Backend.MaxTokens,
		"CHATSTREAM_READ_BUFFER_SIZE":  &cfg.Stream.ReadBufferSize,
		"CHATSTREAM_MAX_DEFERRALS":     &cfg.Stream.MaxDeferrals,
		"CHATSTREAM_MAX_LINE_BYTES":    &cfg.Stream.MaxLineBytes,
		"CHATSTREAM_RATE_LIMIT_STATUS": &cfg.Stream.RateLimitStatus,
		"CHATSTREAM_QUOTA_STATUS":      &cfg.Stream.QuotaStatus,
	}
	for name, field := range intVars {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*field = n
	}

	if v := os.Getenv("CHATSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CHATSTREAM_TIMEOUT: %w", err)
		}
		cfg.Backend.Timeout = d
	}
	if v := os.Getenv("CHATSTREAM_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("CHATSTREAM_TEMPERATURE: %w", err)
		}
		cfg.Backend.Temperature = &f
	}
	if v := os.Getenv("CHATSTREAM_METRICS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHATSTREAM_METRICS_ENABLED: %w", err)
		}
		cfg.Observability.Metrics.Enabled = b
	}
	return nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// If the value field is empty and the file field is set, the file is read,
// whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// backend.api_key_file -> backend.api_key
	if cfg.Backend.APIKeyFile != "" && cfg.Backend.APIKey == "" {
		val, err := readSecretFile(cfg.Backend.APIKeyFile)
		if err != nil {
			return fmt.Errorf("backend.api_key_file: %w", err)
		}
		cfg.Backend.APIKey = val
	}
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
