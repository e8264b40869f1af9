package transport

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"slices"
	"strconv"
	"time"
)

// RetryConfig configures retry behavior for transport operations.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, 1 disables retries (default: 3)
	MaxAttempts int `yaml:"max_attempts"`

	// InitialBackoff is the initial backoff duration (default: 1s)
	InitialBackoff time.Duration `yaml:"initial_backoff"`

	// MaxBackoff is the maximum backoff duration (default: 30s)
	MaxBackoff time.Duration `yaml:"max_backoff"`

	// BackoffFactor is the exponential backoff multiplier (default: 2.0)
	BackoffFactor float64 `yaml:"backoff_factor"`

	// RetryableErrors is the list of HTTP status codes that should be retried
	// Default: [408, 429, 500, 502, 503, 504]
	RetryableErrors []int `yaml:"retryable_status_codes"`
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     3,
		InitialBackoff:  1 * time.Second,
		MaxBackoff:      30 * time.Second,
		BackoffFactor:   2.0,
		RetryableErrors: []int{408, 429, 500, 502, 503, 504},
	}
}

// NoRetryConfig returns a configuration that performs a single attempt.
func NoRetryConfig() *RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.MaxAttempts = 1
	return cfg
}

// Validate checks if the retry configuration is valid.
func (c *RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.InitialBackoff < 0 {
		return fmt.Errorf("initial_backoff must be non-negative, got %v", c.InitialBackoff)
	}
	if c.MaxBackoff < c.InitialBackoff {
		return fmt.Errorf("max_backoff (%v) must be >= initial_backoff (%v)", c.MaxBackoff, c.InitialBackoff)
	}
	if c.BackoffFactor < 1.0 {
		return fmt.Errorf("backoff_factor must be >= 1.0, got %f", c.BackoffFactor)
	}
	return nil
}

// IsRetryable returns true if the given status code should be retried.
func (c *RetryConfig) IsRetryable(statusCode int) bool {
	return slices.Contains(c.RetryableErrors, statusCode)
}

// ExecuteFunc executes a single request attempt.
type ExecuteFunc func(ctx context.Context) (*Response, error)

// Execute runs fn with exponential backoff and jitter.
//
// Retryable: connection errors, timeouts and the configured status codes.
// Retry-After is honoured for 429 and 503 responses, capped at MaxBackoff.
// Context cancellation stops immediately.
func Execute(ctx context.Context, config *RetryConfig, fn ExecuteFunc) (*Response, error) {
	return execute(ctx, config, true, fn)
}

// ExecuteNonIdempotent is like Execute for requests that must not be applied
// twice. Only 429 responses and 503 responses carrying Retry-After are
// retried, since any other failure may come after the server acted.
func ExecuteNonIdempotent(ctx context.Context, config *RetryConfig, fn ExecuteFunc) (*Response, error) {
	return execute(ctx, config, false, fn)
}

// IsIdempotent reports whether a request with the given method may be repeated.
func IsIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

func execute(ctx context.Context, config *RetryConfig, idempotent bool, fn ExecuteFunc) (*Response, error) {
	if config == nil {
		config = DefaultRetryConfig()
	}

	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		resp, err := fn(ctx)
		if err == nil {
			if resp.Metadata == nil {
				resp.Metadata = make(map[string]interface{})
			}
			resp.Metadata[MetadataRetryCount] = attempt - 1
			return resp, nil
		}
		lastErr = err

		shouldRetry, retryAfter := shouldRetryError(err, config, idempotent)
		if attempt >= config.MaxAttempts || !shouldRetry {
			return nil, annotateRetries(err, attempt-1)
		}

		if ctx.Err() != nil {
			return nil, cancelledError("request cancelled before retry", ctx.Err())
		}

		timer := time.NewTimer(calculateBackoff(config, attempt, retryAfter))
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, cancelledError("request cancelled during retry backoff", ctx.Err())
		}
	}

	return nil, lastErr
}

// annotateRetries records how many retries preceded a final error.
func annotateRetries(err error, retries int) error {
	if te, ok := AsTransportError(err); ok {
		if te.Metadata == nil {
			te.Metadata = make(map[string]interface{})
		}
		te.Metadata[MetadataRetryCount] = retries
	}
	return err
}

// shouldRetryError reports whether err is retryable and extracts Retry-After if present.
func shouldRetryError(err error, config *RetryConfig, idempotent bool) (bool, time.Duration) {
	te, ok := AsTransportError(err)
	if !ok || !te.Retryable {
		return false, 0
	}
	if !idempotent && !rejectedUnprocessed(te) {
		return false, 0
	}

	var retryAfter time.Duration
	if te.StatusCode > 0 {
		if !config.IsRetryable(te.StatusCode) {
			return false, 0
		}
		if te.StatusCode == http.StatusTooManyRequests || te.StatusCode == http.StatusServiceUnavailable {
			retryAfter = extractRetryAfter(te)
		}
	}

	return true, retryAfter
}

// rejectedUnprocessed reports whether the server refused the request before acting on it.
func rejectedUnprocessed(te *TransportError) bool {
	switch te.StatusCode {
	case http.StatusTooManyRequests:
		return true
	case http.StatusServiceUnavailable:
		_, ok := te.Metadata[MetadataRetryAfter]
		return ok
	default:
		return false
	}
}

// calculateBackoff returns min(InitialBackoff * BackoffFactor^(attempt-1), MaxBackoff),
// raised to Retry-After when that is longer (still capped), plus 0-100ms of jitter.
func calculateBackoff(config *RetryConfig, attempt int, retryAfter time.Duration) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt-1))
	if base > float64(config.MaxBackoff) {
		base = float64(config.MaxBackoff)
	}

	delay := time.Duration(base)
	if retryAfter > delay {
		delay = min(retryAfter, config.MaxBackoff)
	}

	jitter := time.Duration(rand.Int63n(101)) * time.Millisecond
	return delay + jitter
}

// extractRetryAfter parses the Retry-After header kept in the error metadata.
// Both delay-seconds and HTTP-date forms are accepted; anything else yields 0.
func extractRetryAfter(te *TransportError) time.Duration {
	raw, ok := te.Metadata[MetadataRetryAfter].(string)
	if !ok {
		return 0
	}

	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second
	}

	retryTime, err := http.ParseTime(raw)
	if err != nil {
		return 0
	}
	if delay := time.Until(retryTime); delay > 0 {
		return delay
	}
	return 0
}
