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
	"context"
	"errors"
	"fmt"
	"io"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Provider wraps the OpenTelemetry SDK tracer and meter providers.
type Provider struct {
	tp       *sdktrace.TracerProvider
	mp       *metric.MeterProvider
	registry *promclient.Registry
	metrics  *MetricsCollector
}

// Option customizes a Provider.
type Option func(*options)

type options struct {
	spanWriter io.Writer
	traceOpts  []sdktrace.TracerProviderOption
}

// WithSpanWriter sets where the stdout exporter writes. Defaults to stderr.
func WithSpanWriter(w io.Writer) Option {
	return func(o *options) { o.spanWriter = w }
}

// WithTracerProviderOptions appends raw SDK options, e.g. a test span recorder.
func WithTracerProviderOptions(opts ...sdktrace.TracerProviderOption) Option {
	return func(o *options) { o.traceOpts = append(o.traceOpts, opts...) }
}

// NewProvider creates the tracer and meter providers and installs the tracer
// provider globally.
func NewProvider(ctx context.Context, cfg Config, opts ...Option) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	// No schema URL, so merging with the default resource cannot conflict
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(newSampler(cfg.SampleRate)),
	}

	exporter, err := newSpanExporter(ctx, cfg, o.spanWriter)
	if err != nil {
		return nil, err
	}
	if exporter != nil {
		// Short-lived CLI runs export synchronously so no span is lost at exit
		traceOpts = append(traceOpts, sdktrace.WithSyncer(exporter))
	}
	traceOpts = append(traceOpts, o.traceOpts...)

	tp := sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(tp)

	registry := promclient.NewRegistry()
	promExporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := metric.NewMeterProvider(
		metric.WithResource(res),
		metric.WithReader(promExporter),
	)

	collector, err := NewMetricsCollector(mp)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics collector: %w", err)
	}

	return &Provider{
		tp:       tp,
		mp:       mp,
		registry: registry,
		metrics:  collector,
	}, nil
}

func newSampler(rate float64) sdktrace.Sampler {
	if rate <= 0 || rate >= 1 {
		return sdktrace.AlwaysSample()
	}
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
}

// Tracer returns a tracer for the given instrumentation scope.
func (p *Provider) Tracer(name string) trace.Tracer {
	return p.tp.Tracer(name)
}

// Metrics returns the metrics collector.
func (p *Provider) Metrics() *MetricsCollector {
	return p.metrics
}

// Gatherer exposes the Prometheus registry holding the node metrics.
func (p *Provider) Gatherer() promclient.Gatherer {
	return p.registry
}

// WriteMetrics writes the current metrics in the Prometheus text format to
// path, for the node_exporter textfile collector.
func (p *Provider) WriteMetrics(path string) error {
	if err := promclient.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}

// Shutdown flushes pending spans and releases resources.
func (p *Provider) Shutdown(ctx context.Context) error {
	return errors.Join(p.tp.Shutdown(ctx), p.mp.Shutdown(ctx))
}
