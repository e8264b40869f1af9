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

package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != "info" {
		t.Errorf("expected default level 'info', got %q", cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("expected default format 'text', got %q", cfg.Format)
	}
	if cfg.Output != os.Stderr {
		t.Errorf("expected default output to be os.Stderr")
	}
	if cfg.AddSource {
		t.Errorf("expected default AddSource to be false")
	}
}

func TestFromEnv(t *testing.T) {
	tests := []struct {
		name       string
		envVars    map[string]string
		wantLevel  string
		wantFormat Format
		wantSource bool
	}{
		{
			name:       "defaults when no env vars",
			envVars:    map[string]string{},
			wantLevel:  "info",
			wantFormat: FormatText,
		},
		{
			name:       "LOG_LEVEL is lower-cased",
			envVars:    map[string]string{"LOG_LEVEL": "DEBUG"},
			wantLevel:  "debug",
			wantFormat: FormatText,
		},
		{
			name:       "CONDUCTOR_SLACK_LOG_LEVEL beats LOG_LEVEL",
			envVars:    map[string]string{"LOG_LEVEL": "error", "CONDUCTOR_SLACK_LOG_LEVEL": "trace"},
			wantLevel:  "trace",
			wantFormat: FormatText,
		},
		{
			name:       "CONDUCTOR_SLACK_DEBUG wins and adds source",
			envVars:    map[string]string{"CONDUCTOR_SLACK_DEBUG": "1", "CONDUCTOR_SLACK_LOG_LEVEL": "error"},
			wantLevel:  "debug",
			wantFormat: FormatText,
			wantSource: true,
		},
		{
			name:       "json format and source",
			envVars:    map[string]string{"LOG_FORMAT": "JSON", "LOG_SOURCE": "1"},
			wantLevel:  "info",
			wantFormat: FormatJSON,
			wantSource: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"CONDUCTOR_SLACK_DEBUG", "CONDUCTOR_SLACK_LOG_LEVEL", "LOG_LEVEL", "LOG_FORMAT", "LOG_SOURCE"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := FromEnv()
			if cfg.Level != tt.wantLevel {
				t.Errorf("Level = %q, want %q", cfg.Level, tt.wantLevel)
			}
			if cfg.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", cfg.Format, tt.wantFormat)
			}
			if cfg.AddSource != tt.wantSource {
				t.Errorf("AddSource = %v, want %v", cfg.AddSource, tt.wantSource)
			}
		})
	}
}

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	logger.Info("sent message", slog.String("channel", "C1"))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v", err)
	}
	if entry["msg"] != "sent message" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["channel"] != "C1" {
		t.Errorf("channel = %v", entry["channel"])
	}
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatText, Output: &buf})

	logger.Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("expected text output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"trace":   LevelTrace,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestTrace(t *testing.T) {
	var buf bytes.Buffer

	Trace(New(&Config{Level: "debug", Output: &buf}), "body", slog.String("k", "v"))
	if buf.Len() != 0 {
		t.Errorf("trace logged at debug level: %q", buf.String())
	}

	Trace(New(&Config{Level: "trace", Output: &buf}), "body", slog.String("k", "v"))
	if !strings.Contains(buf.String(), "k=v") {
		t.Errorf("expected trace output, got %q", buf.String())
	}
}

func TestContextHelpers(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Level: "info", Format: FormatJSON, Output: &buf})

	logger = WithRunContext(logger, "run-1", "slack")
	logger = WithComponent(logger, "host")
	logger = WithRequestID(logger, "req-9")
	logger.Info("done", Duration(42), Error(errors.New("boom")))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse JSON log: %v", err)
	}
	want := map[string]any{
		RunIDKey:     "run-1",
		NodeKey:      "slack",
		"component":  "host",
		"request_id": "req-9",
		DurationKey:  float64(42),
		"error":      "boom",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s = %v, want %v", k, entry[k], v)
		}
	}
}

func TestSanitize(t *testing.T) {
	if got := SanitizeAPIKey("xoxb-1234-abcd"); got != "...abcd" {
		t.Errorf("SanitizeAPIKey = %q", got)
	}
	if got := SanitizeAPIKey("abc"); got != "[REDACTED]" {
		t.Errorf("SanitizeAPIKey short = %q", got)
	}
}
