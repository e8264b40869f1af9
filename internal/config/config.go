// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads conductor-slack settings from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tombee/conductor-slack/internal/credential"
	"github.com/tombee/conductor-slack/internal/operation/transport"
	"github.com/tombee/conductor-slack/internal/tracing"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigError reports a configuration problem at a key.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "slack.base_url")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Key != "" {
		msg += " at " + e.Key
	}
	msg += ": " + e.Reason
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Config is the complete configuration.
type Config struct {
	Log           LogConfig           `yaml:"log"`
	Slack         SlackConfig         `yaml:"slack"`
	Secrets       SecretsConfig       `yaml:"secrets"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`

	// AddSource adds file and line to log records.
	AddSource bool `yaml:"add_source"`
}

// SlackConfig configures how Slack is reached.
type SlackConfig struct {
	// BaseURL is the Web API root.
	BaseURL string `yaml:"base_url"`

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent"`

	// Retry is the retry policy. max_attempts: 1 disables retries.
	Retry transport.RetryConfig `yaml:"retry"`

	// RateLimit throttles outgoing requests. Zero disables it.
	RateLimit RateLimitConfig `yaml:"rate_limit"`

	// FailOnAPIError treats an "ok": false response body as an item failure.
	// By default such bodies are emitted as output items.
	FailOnAPIError bool `yaml:"fail_on_api_error"`
}

// RateLimitConfig configures the token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// SecretsConfig selects credential storage.
type SecretsConfig struct {
	// Backends lists enabled backends: env, keychain.
	Backends []string `yaml:"backends"`

	// KeychainService is the keychain service name entries are stored under.
	KeychainService string `yaml:"keychain_service"`
}

// ObservabilityConfig configures tracing and metrics.
type ObservabilityConfig struct {
	Tracing TracingConfig `yaml:"tracing"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// TracingConfig selects the span exporter.
type TracingConfig struct {
	// Exporter is none, stdout or otlp-http.
	Exporter string `yaml:"exporter"`

	// Endpoint is the OTLP/HTTP collector host:port.
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`

	// SampleRate is the fraction of runs traced.
	SampleRate float64 `yaml:"sample_rate"`
}

// MetricsConfig configures metrics output.
type MetricsConfig struct {
	// Textfile is a path the metrics are written to after each run, for the
	// node_exporter textfile collector. Empty disables it.
	Textfile string `yaml:"textfile"`
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Slack: SlackConfig{
			BaseURL:   credential.DefaultSlackBaseURL,
			Timeout:   transport.DefaultTimeout,
			UserAgent: AppName,
			Retry:     *transport.DefaultRetryConfig(),
		},
		Secrets: SecretsConfig{
			Backends:        []string{"env", "keychain"},
			KeychainService: AppName,
		},
		Observability: ObservabilityConfig{
			Tracing: TracingConfig{Exporter: tracing.ExporterNone},
		},
	}
}

// Load reads configuration: defaults, then the file at path (if any), then
// environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, &ConfigError{
				Key:    "config_file",
				Reason: fmt.Sprintf("failed to load from %s", path),
				Cause:  err,
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// applyDefaults fills values a minimal file left empty.
func (c *Config) applyDefaults() {
	def := Default()

	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Slack.BaseURL == "" {
		c.Slack.BaseURL = def.Slack.BaseURL
	}
	c.Slack.BaseURL = strings.TrimRight(c.Slack.BaseURL, "/")
	if c.Slack.Timeout == 0 {
		c.Slack.Timeout = def.Slack.Timeout
	}
	if c.Slack.UserAgent == "" {
		c.Slack.UserAgent = def.Slack.UserAgent
	}
	if len(c.Slack.Retry.RetryableErrors) == 0 {
		c.Slack.Retry.RetryableErrors = def.Slack.Retry.RetryableErrors
	}
	if c.Slack.RateLimit.RequestsPerSecond > 0 && c.Slack.RateLimit.Burst == 0 {
		c.Slack.RateLimit.Burst = 1
	}
	if len(c.Secrets.Backends) == 0 {
		c.Secrets.Backends = def.Secrets.Backends
	}
	if c.Secrets.KeychainService == "" {
		c.Secrets.KeychainService = def.Secrets.KeychainService
	}
	if c.Observability.Tracing.Exporter == "" {
		c.Observability.Tracing.Exporter = def.Observability.Tracing.Exporter
	}
}

// loadFromEnv applies environment overrides. Malformed numbers are errors
// rather than silently ignored.
func (c *Config) loadFromEnv() error {
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = strings.ToLower(val)
	}
	if val := os.Getenv("CONDUCTOR_SLACK_LOG_LEVEL"); val != "" {
		c.Log.Level = strings.ToLower(val)
	}

	if val := os.Getenv("CONDUCTOR_SLACK_BASE_URL"); val != "" {
		c.Slack.BaseURL = strings.TrimRight(val, "/")
	}
	if val := os.Getenv("CONDUCTOR_SLACK_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return &ConfigError{Key: "CONDUCTOR_SLACK_TIMEOUT", Reason: "invalid duration", Cause: err}
		}
		c.Slack.Timeout = d
	}
	if val := os.Getenv("CONDUCTOR_SLACK_MAX_ATTEMPTS"); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return &ConfigError{Key: "CONDUCTOR_SLACK_MAX_ATTEMPTS", Reason: "invalid integer", Cause: err}
		}
		c.Slack.Retry.MaxAttempts = n
	}
	if val := os.Getenv("CONDUCTOR_SLACK_FAIL_ON_API_ERROR"); val != "" {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return &ConfigError{Key: "CONDUCTOR_SLACK_FAIL_ON_API_ERROR", Reason: "invalid boolean", Cause: err}
		}
		c.Slack.FailOnAPIError = b
	}
	if val := os.Getenv("CONDUCTOR_SLACK_RATE_LIMIT"); val != "" {
		rps, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return &ConfigError{Key: "CONDUCTOR_SLACK_RATE_LIMIT", Reason: "invalid number", Cause: err}
		}
		c.Slack.RateLimit.RequestsPerSecond = rps
		if c.Slack.RateLimit.Burst == 0 {
			c.Slack.RateLimit.Burst = 1
		}
	}

	if val := os.Getenv("CONDUCTOR_SLACK_SECRET_BACKENDS"); val != "" {
		var backends []string
		for _, b := range strings.Split(val, ",") {
			if b = strings.TrimSpace(b); b != "" {
				backends = append(backends, strings.ToLower(b))
			}
		}
		c.Secrets.Backends = backends
	}

	if val := os.Getenv("CONDUCTOR_SLACK_TRACE_EXPORTER"); val != "" {
		c.Observability.Tracing.Exporter = strings.ToLower(val)
	}
	if val := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); val != "" {
		c.Observability.Tracing.Endpoint = val
	}
	if val := os.Getenv("CONDUCTOR_SLACK_METRICS_TEXTFILE"); val != "" {
		c.Observability.Metrics.Textfile = val
	}

	return nil
}

// Validate checks the configuration. Every error wraps ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(key, reason string, cause error) error {
		if cause != nil {
			cause = fmt.Errorf("%w: %w", ErrInvalidConfig, cause)
		} else {
			cause = ErrInvalidConfig
		}
		return &ConfigError{Key: key, Reason: reason, Cause: cause}
	}

	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
	default:
		return invalid("log.level", fmt.Sprintf("unknown level %q", c.Log.Level), nil)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return invalid("log.format", fmt.Sprintf("unknown format %q (want json or text)", c.Log.Format), nil)
	}

	u, err := url.Parse(c.Slack.BaseURL)
	if err != nil {
		return invalid("slack.base_url", "unparseable URL", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return invalid("slack.base_url", fmt.Sprintf("%q must be an absolute http(s) URL", c.Slack.BaseURL), nil)
	}
	if c.Slack.Timeout < 0 {
		return invalid("slack.timeout", "must not be negative", nil)
	}
	if err := c.Slack.Retry.Validate(); err != nil {
		return invalid("slack.retry", "invalid retry policy", err)
	}
	if c.Slack.RateLimit.RequestsPerSecond < 0 {
		return invalid("slack.rate_limit.requests_per_second", "must not be negative", nil)
	}
	if c.Slack.RateLimit.Burst < 0 {
		return invalid("slack.rate_limit.burst", "must not be negative", nil)
	}

	if len(c.Secrets.Backends) == 0 {
		return invalid("secrets.backends", "at least one backend is required", nil)
	}
	for _, b := range c.Secrets.Backends {
		if b != "env" && b != "keychain" {
			return invalid("secrets.backends", fmt.Sprintf("unknown backend %q (want env or keychain)", b), nil)
		}
	}

	if err := c.TracingConfig("").Validate(); err != nil {
		return invalid("observability.tracing", "invalid tracing settings", err)
	}

	return nil
}

// TracingConfig returns the tracing settings for the given build version.
func (c *Config) TracingConfig(version string) tracing.Config {
	return tracing.Config{
		ServiceName:    AppName,
		ServiceVersion: version,
		Exporter:       c.Observability.Tracing.Exporter,
		Endpoint:       c.Observability.Tracing.Endpoint,
		Insecure:       c.Observability.Tracing.Insecure,
		SampleRate:     c.Observability.Tracing.SampleRate,
	}
}

// TransportConfig returns the HTTP transport settings.
func (c *Config) TransportConfig() *transport.HTTPTransportConfig {
	retry := c.Slack.Retry
	return &transport.HTTPTransportConfig{
		Timeout:     c.Slack.Timeout,
		UserAgent:   c.Slack.UserAgent,
		RetryConfig: &retry,
	}
}
