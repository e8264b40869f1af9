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

/*
Package tracing provides OpenTelemetry tracing and metrics for node runs.

A Provider owns the tracer provider (spans exported to stdout or an OTLP/HTTP
collector) and a meter provider backed by the OpenTelemetry Prometheus
exporter. Metrics are registered on a private Prometheus registry so a
one-shot CLI run can dump them to a node_exporter textfile on exit.

# Quick Start

	provider, err := tracing.NewProvider(ctx, tracing.Config{
	    ServiceName:    "conductor-slack",
	    ServiceVersion: version,
	    Exporter:       tracing.ExporterStdout,
	})
	if err != nil {
	    return err
	}
	defer provider.Shutdown(ctx)

	tracer := provider.Tracer("slack")
	provider.Metrics().RecordRequest(ctx, "message.create", 200, elapsed, nil)
*/
package tracing
