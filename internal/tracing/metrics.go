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
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsCollector records node request and item metrics.
type MetricsCollector struct {
	requestsTotal   metric.Int64Counter
	requestDuration metric.Float64Histogram
	retriesTotal    metric.Int64Counter
	itemsTotal      metric.Int64Counter
}

// NewMetricsCollector creates a metrics collector using the given meter provider.
func NewMetricsCollector(meterProvider metric.MeterProvider) (*MetricsCollector, error) {
	meter := meterProvider.Meter("conductor-slack")

	mc := &MetricsCollector{}
	var err error

	mc.requestsTotal, err = meter.Int64Counter(
		"conductor_slack_requests_total",
		metric.WithDescription("Total number of Slack API requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	mc.requestDuration, err = meter.Float64Histogram(
		"conductor_slack_request_duration_seconds",
		metric.WithDescription("Slack API request latency in seconds, including retries"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	mc.retriesTotal, err = meter.Int64Counter(
		"conductor_slack_retries_total",
		metric.WithDescription("Total number of retried Slack API attempts"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	mc.itemsTotal, err = meter.Int64Counter(
		"conductor_slack_items_total",
		metric.WithDescription("Total number of output items by outcome"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	return mc, nil
}

// RecordRequest records one authenticated request. status is 0 when no response arrived.
func (mc *MetricsCollector) RecordRequest(ctx context.Context, operation string, status int, duration time.Duration, retries int, err error) {
	if mc == nil {
		return
	}

	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", strconv.Itoa(status)),
		attribute.String("outcome", outcome),
	)

	mc.requestsTotal.Add(ctx, 1, attrs)
	mc.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("operation", operation)))
	if retries > 0 {
		mc.retriesTotal.Add(ctx, int64(retries), metric.WithAttributes(attribute.String("operation", operation)))
	}
}

// RecordItems records output items of a node run.
func (mc *MetricsCollector) RecordItems(ctx context.Context, nodeName string, succeeded, failed int) {
	if mc == nil {
		return
	}
	if succeeded > 0 {
		mc.itemsTotal.Add(ctx, int64(succeeded), metric.WithAttributes(
			attribute.String("node", nodeName),
			attribute.String("outcome", "success"),
		))
	}
	if failed > 0 {
		mc.itemsTotal.Add(ctx, int64(failed), metric.WithAttributes(
			attribute.String("node", nodeName),
			attribute.String("outcome", "error"),
		))
	}
}
