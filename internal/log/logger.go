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

// Package log builds the structured slog logger shared by the CLI, the host
// runtime and nodes.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format represents the log output format.
type Format string

const (
	// FormatJSON outputs logs in JSON format for machine parsing.
	FormatJSON Format = "json"
	// FormatText outputs logs in human-readable text format.
	FormatText Format = "text"
)

// LevelTrace is more verbose than Debug, used for request and response bodies.
const LevelTrace = slog.Level(-8)

// Standard field keys for structured logging.
const (
	// RunIDKey is the field key for node run identifiers.
	RunIDKey = "run_id"
	// NodeKey is the field key for node type names.
	NodeKey = "node"
	// ItemKey is the field key for input item indexes.
	ItemKey = "item"
	// CredentialKey is the field key for credential type names.
	CredentialKey = "credential"
	// OperationKey is the field key for resource.operation pairs.
	OperationKey = "operation"
	// DurationKey is the field key for duration in milliseconds.
	DurationKey = "duration_ms"
)

// Config holds the logging configuration.
type Config struct {
	// Level sets the minimum log level (trace, debug, info, warn, error).
	// Default: info
	Level string

	// Format sets the output format (json, text).
	// Default: text
	Format Format

	// Output is the writer for log output.
	// Default: os.Stderr
	Output io.Writer

	// AddSource adds source file and line information to logs.
	AddSource bool
}

// DefaultConfig returns the defaults: info level, text to stderr.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: FormatText,
		Output: os.Stderr,
	}
}

// FromEnv creates a Config from environment variables.
// Supported environment variables:
//   - CONDUCTOR_SLACK_DEBUG: true/1 to enable debug level and source logging (takes precedence)
//   - CONDUCTOR_SLACK_LOG_LEVEL: trace, debug, info, warn, error (takes precedence over LOG_LEVEL)
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, text (default: text)
//   - LOG_SOURCE: 1 to enable source file/line
func FromEnv() *Config {
	cfg := DefaultConfig()

	debug := os.Getenv("CONDUCTOR_SLACK_DEBUG")
	if debug == "true" || debug == "1" {
		cfg.Level = "debug"
		cfg.AddSource = true
	} else if level := os.Getenv("CONDUCTOR_SLACK_LOG_LEVEL"); level != "" {
		cfg.Level = strings.ToLower(level)
	} else if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Level = strings.ToLower(level)
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		cfg.Format = Format(strings.ToLower(format))
	}

	if os.Getenv("LOG_SOURCE") == "1" {
		cfg.AddSource = true
	}

	return cfg
}

// New creates a new structured logger from the given configuration.
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// ParseLevel converts a string level to slog.Level. Unknown levels map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return LevelTrace
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent returns a new logger with a component name field.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

// WithRequestID returns a new logger with the Slack request ID.
func WithRequestID(logger *slog.Logger, requestID string) *slog.Logger {
	return logger.With("request_id", requestID)
}

// WithRunContext returns a new logger carrying the run ID and node name.
func WithRunContext(logger *slog.Logger, runID, nodeName string) *slog.Logger {
	return logger.With(
		slog.String(RunIDKey, runID),
		slog.String(NodeKey, nodeName),
	)
}

// String creates a string attribute.
func String(key, value string) slog.Attr {
	return slog.String(key, value)
}

// Error creates an error attribute.
func Error(err error) slog.Attr {
	return slog.Any("error", err)
}

// Duration creates a duration attribute in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(DurationKey, ms)
}

// SanitizeAPIKey masks a token, showing only the last 4 characters.
// Returns "[REDACTED]" if the key is 4 characters or shorter.
func SanitizeAPIKey(key string) string {
	if len(key) <= 4 {
		return "[REDACTED]"
	}
	return "..." + key[len(key)-4:]
}

// Trace logs a message at trace level.
func Trace(logger *slog.Logger, msg string, attrs ...slog.Attr) {
	ctx := context.Background()
	if !logger.Enabled(ctx, LevelTrace) {
		return
	}
	logger.LogAttrs(ctx, LevelTrace, msg, attrs...)
}
