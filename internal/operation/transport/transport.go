// Package transport provides the protocol layer the host uses to deliver node requests.
//
// Nodes describe a request (method, URL, headers, body) and hand it to the host.
// The host authenticates it and passes it to a Transport, which owns timeouts,
// retries, rate limiting and error classification. Nodes never see any of that.
package transport

import (
	"context"
)

// Transport executes requests with protocol-specific handling.
type Transport interface {
	// Execute sends a request and returns a response.
	// The context controls cancellation and deadlines.
	// Returns TransportError on failure.
	Execute(ctx context.Context, req *Request) (*Response, error)

	// Name returns the transport identifier (e.g., "http").
	Name() string

	// SetRateLimiter configures rate limiting for this transport.
	// Rate limiting occurs before request execution, respecting configured limits.
	SetRateLimiter(limiter RateLimiter)
}

// Request represents a transport-agnostic request.
// Transports validate requests before execution and return InvalidRequest errors
// for invalid method, URL, or other protocol violations.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS)
	// Required, must be non-empty
	Method string

	// URL is the full request URL
	// Required, must be valid per RFC 3986
	URL string

	// Headers are request headers (case-insensitive)
	// Optional, may be nil or empty map
	Headers map[string]string

	// Body is the request body
	// Optional, may be nil or empty slice
	Body []byte

	// Metadata carries host-side annotations (e.g., the node operation name)
	// that are surfaced in spans and metrics but never sent on the wire.
	Metadata map[string]interface{}
}

// SetHeader sets a header, allocating the header map on first use.
func (r *Request) SetHeader(key, value string) {
	if r.Headers == nil {
		r.Headers = make(map[string]string)
	}
	r.Headers[key] = value
}

// Clone returns a copy of the request whose header and metadata maps can be
// modified without affecting the original.
func (r *Request) Clone() *Request {
	c := *r
	if r.Headers != nil {
		c.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			c.Headers[k] = v
		}
	}
	if r.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(r.Metadata))
		for k, v := range r.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// Response represents a transport-agnostic response.
type Response struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Headers contains response headers
	Headers map[string][]string

	// Body is the response body
	Body []byte

	// Metadata contains transport-specific data (e.g., request ID, retry count)
	Metadata map[string]interface{}
}

// Standard metadata keys used across transports
const (
	// MetadataRequestID is the service request ID
	MetadataRequestID = "request_id"

	// MetadataRetryCount is the number of retries performed for this request
	MetadataRetryCount = "retry_count"

	// MetadataRetryAfter is the raw Retry-After header of an error response
	MetadataRetryAfter = "retry_after"

	// MetadataOperation names the node operation that issued a request (e.g. "message.create")
	MetadataOperation = "operation"
)

// RateLimiter provides rate limiting for transport requests.
// Implementations should block until a request is allowed.
type RateLimiter interface {
	// Wait blocks until a request is allowed under the rate limit.
	// Returns an error if the context is cancelled before the request can proceed.
	Wait(ctx context.Context) error
}
