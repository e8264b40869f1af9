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

package tracing

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "empty", cfg: Config{}},
		{name: "stdout", cfg: Config{Exporter: ExporterStdout}},
		{name: "otlp with endpoint", cfg: Config{Exporter: ExporterOTLPHTTP, Endpoint: "localhost:4318"}},
		{name: "otlp without endpoint", cfg: Config{Exporter: ExporterOTLPHTTP}, wantErr: true},
		{name: "unknown exporter", cfg: Config{Exporter: "jaeger"}, wantErr: true},
		{name: "bad sample rate", cfg: Config{SampleRate: 1.5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProvider_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider, err := NewProvider(context.Background(),
		Config{ServiceName: "test-service", ServiceVersion: "1.0.0"},
		WithTracerProviderOptions(sdktrace.WithSpanProcessor(recorder)),
	)
	require.NoError(t, err)
	defer provider.Shutdown(context.Background())

	_, span := provider.Tracer("test").Start(context.Background(), "slack.message.create")
	span.SetAttributes(attribute.Int("item.index", 2))
	span.End()

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "slack.message.create", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Int("item.index", 2))
}

func TestProvider_StdoutExporter(t *testing.T) {
	var buf bytes.Buffer
	provider, err := NewProvider(context.Background(),
		Config{ServiceName: "test-service", Exporter: ExporterStdout},
		WithSpanWriter(&buf),
	)
	require.NoError(t, err)

	_, span := provider.Tracer("test").Start(context.Background(), "exported-span")
	span.End()
	require.NoError(t, provider.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "exported-span")
}

func TestProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Exporter: "zipkin"})
	assert.Error(t, err)
}

func TestProvider_WriteMetrics(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{ServiceName: "test-service"})
	require.NoError(t, err)
	defer provider.Shutdown(context.Background())

	ctx := context.Background()
	provider.Metrics().RecordRequest(ctx, "message.create", 200, 150*time.Millisecond, 0, nil)
	provider.Metrics().RecordRequest(ctx, "message.create", 500, time.Second, 2, assert.AnError)
	provider.Metrics().RecordItems(ctx, "slack", 3, 1)

	families, err := provider.Gatherer().Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "conductor_slack_requests")
	assert.Contains(t, joined, "conductor_slack_request_duration")
	assert.Contains(t, joined, "conductor_slack_retries")
	assert.Contains(t, joined, "conductor_slack_items")

	path := filepath.Join(t.TempDir(), "slack.prom")
	require.NoError(t, provider.WriteMetrics(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `operation="message.create"`)
}

func TestMetricsCollector_NilSafe(t *testing.T) {
	var mc *MetricsCollector
	mc.RecordRequest(context.Background(), "x", 0, 0, 0, nil)
	mc.RecordItems(context.Background(), "slack", 1, 0)
}
