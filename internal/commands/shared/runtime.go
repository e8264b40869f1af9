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

package shared

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/tombee/conductor-slack/internal/config"
	"github.com/tombee/conductor-slack/internal/credential"
	"github.com/tombee/conductor-slack/internal/host"
	"github.com/tombee/conductor-slack/internal/integration/slack"
	"github.com/tombee/conductor-slack/internal/log"
	"github.com/tombee/conductor-slack/internal/operation/transport"
	"github.com/tombee/conductor-slack/internal/secrets"
	"github.com/tombee/conductor-slack/internal/tracing"
)

// SlackTokenEnvVar is the conventional variable the bot token is also read from.
const SlackTokenEnvVar = "SLACK_BOT_TOKEN"

// Runtime holds everything a command needs to run the Slack node.
type Runtime struct {
	Config      *config.Config
	Logger      *slog.Logger
	Provider    *tracing.Provider
	Secrets     *secrets.Resolver
	Credentials *credential.Registry
	Host        *host.Host
	Node        *slack.Node
}

// RuntimeOption customizes NewRuntime.
type RuntimeOption func(*runtimeOptions)

type runtimeOptions struct {
	logOutput      io.Writer
	spanOutput     io.Writer
	failOnAPIError bool
}

// WithLogOutput sends logs to w instead of stderr.
func WithLogOutput(w io.Writer) RuntimeOption {
	return func(o *runtimeOptions) { o.logOutput = w }
}

// WithSpanOutput sends stdout-exported spans to w instead of stderr.
func WithSpanOutput(w io.Writer) RuntimeOption {
	return func(o *runtimeOptions) { o.spanOutput = w }
}

// WithFailOnAPIError makes "ok": false responses fail their item regardless
// of slack.fail_on_api_error.
func WithFailOnAPIError(fail bool) RuntimeOption {
	return func(o *runtimeOptions) { o.failOnAPIError = o.failOnAPIError || fail }
}

// LoadConfig loads the configuration named by --config, or the default file.
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.ResolvePath(GetConfigPath()))
	if err != nil {
		return nil, NewInvalidInputError("failed to load configuration", err)
	}
	return cfg, nil
}

// NewRuntime loads configuration and wires logging, tracing, transport,
// secrets, the host and the Slack node.
func NewRuntime(ctx context.Context, opts ...RuntimeOption) (*Runtime, error) {
	o := &runtimeOptions{}
	for _, opt := range opts {
		opt(o)
	}

	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(cfg, o.logOutput)

	provider, err := tracing.NewProvider(ctx, cfg.TracingConfig(version), tracing.WithSpanWriter(o.spanOutput))
	if err != nil {
		return nil, NewInvalidInputError("failed to initialize tracing", err)
	}

	tr, err := NewTransport(cfg)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, NewInvalidInputError("failed to create transport", err)
	}

	resolver := NewSecretResolver(cfg)
	registry := NewCredentialRegistry(cfg)

	h, err := host.New(host.Config{
		Transport:   tr,
		Secrets:     resolver,
		Credentials: registry,
		Checks: map[string]host.CredentialCheck{
			credential.SlackAPIName: slack.CheckAuthTest,
		},
		Metrics: provider.Metrics(),
		Logger:  logger,
	})
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, err
	}

	logger.Debug("runtime initialized",
		"base_url", cfg.Slack.BaseURL,
		"max_attempts", cfg.Slack.Retry.MaxAttempts,
		"trace_exporter", cfg.Observability.Tracing.Exporter,
		"fail_on_api_error", cfg.Slack.FailOnAPIError || o.failOnAPIError,
	)

	return &Runtime{
		Config:      cfg,
		Logger:      logger,
		Provider:    provider,
		Secrets:     resolver,
		Credentials: registry,
		Host:        h,
		Node: slack.New(slack.Config{
			BaseURL:        cfg.Slack.BaseURL,
			FailOnAPIError: cfg.Slack.FailOnAPIError || o.failOnAPIError,
		}),
	}, nil
}

// Close writes the metrics textfile, if configured, and flushes spans.
func (r *Runtime) Close(ctx context.Context) error {
	var errs []error
	if path := r.Config.Observability.Metrics.Textfile; path != "" {
		if err := r.Provider.WriteMetrics(path); err != nil {
			errs = append(errs, err)
		}
	}
	if err := r.Provider.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing shutdown: %w", err))
	}
	return errors.Join(errs...)
}

// NewLogger builds the logger from the environment, the config file and the
// global flags, in increasing precedence. out defaults to stderr.
func NewLogger(cfg *config.Config, out io.Writer) *slog.Logger {
	lc := log.FromEnv()
	if out == nil {
		out = os.Stderr
	}
	lc.Output = out

	// CONDUCTOR_SLACK_DEBUG wins over the configured level
	if debug := os.Getenv("CONDUCTOR_SLACK_DEBUG"); debug != "true" && debug != "1" {
		lc.Level = cfg.Log.Level
	}
	lc.Format = log.Format(cfg.Log.Format)
	lc.AddSource = lc.AddSource || cfg.Log.AddSource

	if GetVerbose() {
		lc.Level = "debug"
	}
	if GetJSON() {
		lc.Format = log.FormatJSON
	}

	return log.New(lc)
}

// NewTransport creates the HTTP transport with the configured retry policy
// and rate limit.
func NewTransport(cfg *config.Config) (*transport.HTTPTransport, error) {
	tr, err := transport.NewHTTPTransport(cfg.TransportConfig())
	if err != nil {
		return nil, err
	}
	if rl := cfg.Slack.RateLimit; rl.RequestsPerSecond > 0 {
		limiter, err := transport.NewTokenBucket(rl.RequestsPerSecond, rl.Burst)
		if err != nil {
			return nil, err
		}
		tr.SetRateLimiter(limiter)
	}
	return tr, nil
}

// NewSecretResolver creates a resolver over the configured backends. The
// environment backend also reads the bot token from SLACK_BOT_TOKEN.
func NewSecretResolver(cfg *config.Config) *secrets.Resolver {
	var backends []secrets.SecretBackend
	for _, name := range cfg.Secrets.Backends {
		switch name {
		case "env":
			backends = append(backends, secrets.NewEnvBackend(map[string]string{
				credential.SecretKey(credential.SlackAPIName, credential.SlackBotTokenField): SlackTokenEnvVar,
			}))
		case "keychain":
			backends = append(backends, secrets.NewKeychainBackend(cfg.Secrets.KeychainService))
		}
	}
	return secrets.NewResolver(backends...)
}

// NewCredentialRegistry registers the credential types against the configured
// Slack base URL.
func NewCredentialRegistry(cfg *config.Config) *credential.Registry {
	return credential.NewRegistry(credential.NewSlackAPI(cfg.Slack.BaseURL))
}
