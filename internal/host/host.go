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

// Package host plays the workflow host for nodes: it stores credentials,
// authenticates and sends node requests, and runs a node over a batch of items.
package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tombee/conductor-slack/internal/credential"
	"github.com/tombee/conductor-slack/internal/log"
	"github.com/tombee/conductor-slack/internal/node"
	"github.com/tombee/conductor-slack/internal/operation/transport"
	"github.com/tombee/conductor-slack/internal/secrets"
	"github.com/tombee/conductor-slack/internal/tracing"
)

const tracerName = "github.com/tombee/conductor-slack/internal/host"

// SecretStore resolves stored secrets.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
}

// CredentialCheck interprets a credential test response. It returns what the
// service reports about the credential, or an error if it was rejected.
type CredentialCheck func(resp *transport.Response) (any, error)

// Config configures a Host.
type Config struct {
	// Transport sends requests. Required.
	Transport transport.Transport

	// Secrets holds credential fields. Required.
	Secrets SecretStore

	// Credentials lists the credential types nodes may reference. Required.
	Credentials *credential.Registry

	// Checks interprets credential test responses by credential type.
	Checks map[string]CredentialCheck

	// Tracer defaults to the global tracer provider.
	Tracer trace.Tracer

	// Metrics may be nil.
	Metrics *tracing.MetricsCollector

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Host implements node.Requester and runs nodes.
type Host struct {
	transport   transport.Transport
	secrets     SecretStore
	credentials *credential.Registry
	checks      map[string]CredentialCheck
	tracer      trace.Tracer
	metrics     *tracing.MetricsCollector
	logger      *slog.Logger
}

var _ node.Requester = (*Host)(nil)

// New creates a Host.
func New(cfg Config) (*Host, error) {
	if cfg.Transport == nil {
		return nil, errors.New("host: transport is required")
	}
	if cfg.Secrets == nil {
		return nil, errors.New("host: secrets store is required")
	}
	if cfg.Credentials == nil {
		return nil, errors.New("host: credential registry is required")
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer(tracerName)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Host{
		transport:   cfg.Transport,
		secrets:     cfg.Secrets,
		credentials: cfg.Credentials,
		checks:      cfg.Checks,
		tracer:      tracer,
		metrics:     cfg.Metrics,
		logger:      log.WithComponent(logger, "host"),
	}, nil
}

// Result is the outcome of one node run.
type Result struct {
	RunID    string        `json:"runId"`
	Node     string        `json:"node"`
	Outputs  [][]node.Item `json:"outputs"`
	Duration time.Duration `json:"-"`
}

// Execute runs n once over items.
func (h *Host) Execute(ctx context.Context, n node.Node, params map[string]any, items []node.Item, settings node.Settings) (*Result, error) {
	desc := n.Description()
	runID := uuid.New().String()
	logger := log.WithRunContext(h.logger, runID, desc.Name)

	ctx, span := h.tracer.Start(ctx, "node."+desc.Name,
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("node.name", desc.Name),
			attribute.Int("node.items", len(items)),
			attribute.Bool("node.continue_on_fail", settings.ContinueOnFail),
		),
	)
	defer span.End()

	ex := node.NewExecution(node.ExecutionConfig{
		Description: desc,
		Parameters:  params,
		Items:       items,
		Settings:    settings,
		Requester:   h,
		Logger:      logger,
	})

	logger.Info("node run started", "items", len(items))
	start := time.Now()
	outputs, err := n.Execute(ctx, ex)
	elapsed := time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.metrics.RecordItems(ctx, desc.Name, 0, 1)
		logger.Error("node run failed", log.Error(err), log.Duration(elapsed.Milliseconds()))
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	succeeded, failed := 0, 0
	for _, out := range outputs {
		for _, item := range out {
			if node.IsErrorItem(item) {
				failed++
			} else {
				succeeded++
			}
		}
	}
	h.metrics.RecordItems(ctx, desc.Name, succeeded, failed)
	span.SetAttributes(attribute.Int("node.outputs", succeeded+failed))
	span.SetStatus(codes.Ok, "")

	logger.Info("node run finished",
		"outputs", succeeded+failed,
		"failed", failed,
		log.Duration(elapsed.Milliseconds()),
	)

	return &Result{RunID: runID, Node: desc.Name, Outputs: outputs, Duration: elapsed}, nil
}

// RequestWithAuthentication authenticates req with the stored credential of
// credentialType and sends it. req itself is not modified.
func (h *Host) RequestWithAuthentication(ctx context.Context, credentialType string, req *transport.Request) (*transport.Response, error) {
	typ, err := h.credentials.Get(credentialType)
	if err != nil {
		return nil, err
	}

	data, err := h.loadCredential(ctx, typ)
	if err != nil {
		return nil, err
	}

	authed := req.Clone()
	if err := typ.Authenticate(data, authed); err != nil {
		return nil, fmt.Errorf("credential %s: %w", credentialType, err)
	}

	return h.send(ctx, credentialType, authed)
}

// TestCredential sends the credential type's test request with the stored
// credential and interprets the response.
func (h *Host) TestCredential(ctx context.Context, credentialType string) (any, error) {
	typ, err := h.credentials.Get(credentialType)
	if err != nil {
		return nil, err
	}

	req := typ.TestRequest()
	if req.Metadata == nil {
		req.Metadata = map[string]interface{}{}
	}
	req.Metadata[transport.MetadataOperation] = "credential.test"

	resp, err := h.RequestWithAuthentication(ctx, credentialType, req)
	if err != nil {
		return nil, err
	}

	check, ok := h.checks[credentialType]
	if !ok {
		return map[string]any{"status": resp.StatusCode}, nil
	}
	return check(resp)
}

// loadCredential reads every field of typ from the secret store. Missing
// fields are left out and reported by the type's Authenticate.
func (h *Host) loadCredential(ctx context.Context, typ credential.Type) (credential.Data, error) {
	data := credential.Data{}
	for _, field := range credential.Fields(typ) {
		value, err := h.secrets.Get(ctx, credential.SecretKey(typ.Name(), field))
		if errors.Is(err, secrets.ErrSecretNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading credential %s: %w", typ.Name(), err)
		}
		data[field] = value
	}
	return data, nil
}

// send executes an authenticated request with a client span and metrics.
func (h *Host) send(ctx context.Context, credentialType string, req *transport.Request) (*transport.Response, error) {
	operation, _ := req.Metadata[transport.MetadataOperation].(string)

	ctx, span := h.tracer.Start(ctx, "HTTP "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL),
			attribute.String("credential.type", credentialType),
			attribute.String("node.operation", operation),
		),
	)
	defer span.End()

	logger := h.logger.With(log.CredentialKey, credentialType, log.OperationKey, operation)
	logger.Debug("sending request", "method", req.Method, "url", req.URL)
	log.Trace(logger, "request body", log.String("body", string(req.Body)))

	start := time.Now()
	resp, err := h.transport.Execute(ctx, req)
	elapsed := time.Since(start)

	status, retries := 0, 0
	if resp != nil {
		status = resp.StatusCode
		retries, _ = resp.Metadata[transport.MetadataRetryCount].(int)
	}
	if terr, ok := transport.AsTransportError(err); ok {
		status = terr.StatusCode
		retries, _ = terr.Metadata[transport.MetadataRetryCount].(int)
	}
	h.metrics.RecordRequest(ctx, operation, status, elapsed, retries, err)
	span.SetAttributes(
		attribute.Int("http.response.status_code", status),
		attribute.Int("http.retry_count", retries),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("request failed", log.Error(err), "status", status, log.Duration(elapsed.Milliseconds()))
		return nil, err
	}

	if id, ok := resp.Metadata[transport.MetadataRequestID].(string); ok && id != "" {
		logger = log.WithRequestID(logger, id)
	}
	logger.Debug("request finished", "status", status, log.Duration(elapsed.Milliseconds()))
	log.Trace(logger, "response body", log.String("body", string(resp.Body)))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}
