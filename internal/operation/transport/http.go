package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// DefaultTimeout is used when HTTPTransportConfig.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// HTTPTransport implements the Transport interface for HTTP/HTTPS requests.
// Authentication is applied by the caller; the transport only adds the
// configured default headers.
type HTTPTransport struct {
	config      *HTTPTransportConfig
	client      *http.Client
	rateLimiter RateLimiter
}

// HTTPTransportConfig configures the HTTP transport.
type HTTPTransportConfig struct {
	// Timeout is the request timeout (default: 30s)
	Timeout time.Duration

	// Headers are default headers applied to all requests
	Headers map[string]string

	// UserAgent is sent with every request when non-empty
	UserAgent string

	// TLSInsecure disables TLS certificate validation (default: false)
	// WARNING: Only use for development/testing
	TLSInsecure bool

	// RetryConfig configures retry behavior (optional, uses defaults if nil)
	RetryConfig *RetryConfig

	// Client overrides the HTTP client (used by tests)
	Client *http.Client
}

// Validate checks if the configuration is valid.
func (c *HTTPTransportConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative, got %v", c.Timeout)
	}

	if c.RetryConfig != nil {
		if err := c.RetryConfig.Validate(); err != nil {
			return fmt.Errorf("invalid retry configuration: %w", err)
		}
	}

	return nil
}

// NewHTTPTransport creates a new HTTP transport with the given configuration.
func NewHTTPTransport(config *HTTPTransportConfig) (*HTTPTransport, error) {
	if config == nil {
		config = &HTTPTransportConfig{}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client := config.Client
	if client == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}

		client = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: timeout,
				ExpectContinueTimeout: 1 * time.Second,
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: config.TLSInsecure,
				},
			},
		}
	}

	return &HTTPTransport{
		config: config,
		client: client,
	}, nil
}

// Name returns "http".
func (t *HTTPTransport) Name() string {
	return "http"
}

// SetRateLimiter configures rate limiting for this transport.
func (t *HTTPTransport) SetRateLimiter(limiter RateLimiter) {
	t.rateLimiter = limiter
}

// Execute sends an HTTP request and returns the response.
// Retries follow the configured RetryConfig; POST and PATCH are only retried
// when the server rejected them unprocessed.
func (t *HTTPTransport) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: fmt.Sprintf("invalid request: %s", err.Error()),
			Cause:   err,
		}
	}

	retryConfig := t.config.RetryConfig
	if retryConfig == nil {
		retryConfig = DefaultRetryConfig()
	}

	once := func(ctx context.Context) (*Response, error) {
		return t.executeOnce(ctx, req)
	}
	if !IsIdempotent(req.Method) {
		return ExecuteNonIdempotent(ctx, retryConfig, once)
	}
	return Execute(ctx, retryConfig, once)
}

// executeOnce executes a single HTTP request without retry logic.
func (t *HTTPTransport) executeOnce(ctx context.Context, req *Request) (*Response, error) {
	if t.rateLimiter != nil {
		if err := t.rateLimiter.Wait(ctx); err != nil {
			return nil, cancelledError("rate limit wait cancelled", err)
		}
	}

	httpReq, err := t.buildHTTPRequest(ctx, req)
	if err != nil {
		return nil, &TransportError{
			Type:    ErrorTypeInvalidReq,
			Message: fmt.Sprintf("failed to build HTTP request: %s", err.Error()),
			Cause:   err,
		}
	}

	httpResp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyClientError(ctx, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{
			Type:      ErrorTypeConnection,
			Message:   fmt.Sprintf("failed to read response body: %s", err.Error()),
			Retryable: true,
			Cause:     err,
		}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Metadata:   make(map[string]interface{}),
	}

	// Slack reports its request id as X-Slack-Req-Id.
	for _, h := range []string{"X-Request-ID", "X-Slack-Req-Id"} {
		if requestID := httpResp.Header.Get(h); requestID != "" {
			resp.Metadata[MetadataRequestID] = requestID
			break
		}
	}

	if httpResp.StatusCode >= 400 {
		if retryAfter := httpResp.Header.Get("Retry-After"); retryAfter != "" {
			resp.Metadata[MetadataRetryAfter] = retryAfter
		}
		return nil, classifyStatus(httpResp.StatusCode, body, resp.Metadata)
	}

	return resp, nil
}

var validMethods = map[string]bool{
	http.MethodGet: true, http.MethodPost: true, http.MethodPut: true, http.MethodDelete: true,
	http.MethodPatch: true, http.MethodHead: true, http.MethodOptions: true,
}

// validateRequest checks if the request is valid.
func validateRequest(req *Request) error {
	if req == nil {
		return fmt.Errorf("request is nil")
	}
	if req.Method == "" {
		return fmt.Errorf("method is required")
	}
	if !validMethods[req.Method] {
		return fmt.Errorf("invalid HTTP method: %q", req.Method)
	}
	if req.URL == "" {
		return fmt.Errorf("URL is required")
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}

	return nil
}

// buildHTTPRequest constructs an http.Request from a transport Request.
func (t *HTTPTransport) buildHTTPRequest(ctx context.Context, req *Request) (*http.Request, error) {
	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, err
	}

	for key, value := range t.config.Headers {
		httpReq.Header.Set(key, value)
	}
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if t.config.UserAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", t.config.UserAgent)
	}

	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	return httpReq, nil
}
