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
	"fmt"
)

// Span exporters.
const (
	ExporterNone     = "none"
	ExporterStdout   = "stdout"
	ExporterOTLPHTTP = "otlp-http"
)

// Config holds observability configuration.
type Config struct {
	// ServiceName identifies this service in traces.
	ServiceName string

	// ServiceVersion is the application version.
	ServiceVersion string

	// Exporter selects where spans go: none, stdout or otlp-http.
	Exporter string

	// Endpoint is the OTLP/HTTP collector host:port.
	Endpoint string

	// Insecure disables TLS for the OTLP exporter (development only).
	Insecure bool

	// SampleRate is the fraction of traces recorded (0.0 - 1.0). Zero samples everything.
	SampleRate float64
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch c.Exporter {
	case "", ExporterNone, ExporterStdout:
	case ExporterOTLPHTTP:
		if c.Endpoint == "" {
			return fmt.Errorf("otlp-http exporter requires an endpoint")
		}
	default:
		return fmt.Errorf("unknown trace exporter %q (want none, stdout or otlp-http)", c.Exporter)
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("sample rate must be between 0 and 1, got %v", c.SampleRate)
	}
	return nil
}
