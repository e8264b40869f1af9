package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ErrorType classifies transport errors for routing and retry decisions.
type ErrorType string

const (
	// ErrorTypeConnection indicates network or DNS errors
	ErrorTypeConnection ErrorType = "connection"

	// ErrorTypeTimeout indicates request timeout or deadline exceeded
	ErrorTypeTimeout ErrorType = "timeout"

	// ErrorTypeAuth indicates authentication failure (401, 403)
	ErrorTypeAuth ErrorType = "auth"

	// ErrorTypeRateLimit indicates rate limiting (429 Too Many Requests)
	ErrorTypeRateLimit ErrorType = "rate_limit"

	// ErrorTypeServer indicates server errors (5xx)
	ErrorTypeServer ErrorType = "server"

	// ErrorTypeClient indicates client errors (4xx, non-retryable)
	ErrorTypeClient ErrorType = "client"

	// ErrorTypeInvalidReq indicates request validation error (invalid method, URL, etc.)
	ErrorTypeInvalidReq ErrorType = "invalid_request"

	// ErrorTypeCancelled indicates context was cancelled
	ErrorTypeCancelled ErrorType = "cancelled"
)

// maxErrorBodyLen bounds how much of an error response body ends up in the message.
const maxErrorBodyLen = 500

// TransportError represents a structured error from transport execution.
type TransportError struct {
	// Type classifies the error for retry logic
	Type ErrorType

	// StatusCode is the HTTP status code, zero for non-HTTP errors
	StatusCode int

	// Message is safe to log and show to users; credentials never end up here
	Message string

	// RequestID is the request ID reported by the service
	RequestID string

	// Retryable indicates whether the error is retryable
	Retryable bool

	// Cause is the underlying error
	Cause error

	// Metadata contains debugging details such as the raw Retry-After header
	Metadata map[string]interface{}
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection.
func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsRetryable returns true if the error should be retried.
func (e *TransportError) IsRetryable() bool {
	return e.Retryable
}

// IsStatusCode returns true if the error has the given HTTP status code.
func (e *TransportError) IsStatusCode(code int) bool {
	return e.StatusCode == code
}

// IsType returns true if the error is of the given type.
func (e *TransportError) IsType(t ErrorType) bool {
	return e.Type == t
}

// AsTransportError finds the first TransportError in err's chain.
func AsTransportError(err error) (*TransportError, bool) {
	var te *TransportError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// cancelledError wraps a context error observed outside the HTTP client.
func cancelledError(message string, cause error) *TransportError {
	return &TransportError{
		Type:    ErrorTypeCancelled,
		Message: message,
		Cause:   cause,
	}
}

// classifyClientError classifies an error returned by http.Client.Do.
// Only a done ctx counts as cancellation: client timeouts also match
// context.DeadlineExceeded but are retryable.
func classifyClientError(ctx context.Context, err error) *TransportError {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		return cancelledError("request cancelled", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &TransportError{
			Type:      ErrorTypeTimeout,
			Message:   "request timeout",
			Retryable: true,
			Cause:     err,
		}
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) || isConnectionMessage(err) {
		return &TransportError{
			Type:      ErrorTypeConnection,
			Message:   "connection error",
			Retryable: true,
			Cause:     err,
		}
	}

	return &TransportError{
		Type:      ErrorTypeConnection,
		Message:   fmt.Sprintf("HTTP error: %s", err.Error()),
		Retryable: true,
		Cause:     err,
	}
}

// isConnectionMessage catches connection failures that are not typed by the stdlib.
func isConnectionMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, keyword := range []string{"connection refused", "connection reset", "no such host", "network unreachable", "eof"} {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}

// classifyStatus classifies an HTTP error status into a TransportError.
func classifyStatus(statusCode int, body []byte, metadata map[string]interface{}) *TransportError {
	var errorType ErrorType
	var retryable bool

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		errorType = ErrorTypeAuth
	case statusCode == http.StatusTooManyRequests:
		errorType = ErrorTypeRateLimit
		retryable = true
	case statusCode == http.StatusRequestTimeout:
		errorType = ErrorTypeTimeout
		retryable = true
	case statusCode >= 500:
		errorType = ErrorTypeServer
		retryable = true
	default:
		errorType = ErrorTypeClient
	}

	message := fmt.Sprintf("HTTP %d", statusCode)
	if len(body) > 0 && len(body) < maxErrorBodyLen {
		message = fmt.Sprintf("HTTP %d: %s", statusCode, strings.TrimSpace(string(body)))
	}

	te := &TransportError{
		Type:       errorType,
		StatusCode: statusCode,
		Message:    message,
		Retryable:  retryable,
		Metadata:   metadata,
	}
	if id, ok := metadata[MetadataRequestID].(string); ok {
		te.RequestID = id
	}
	return te
}
