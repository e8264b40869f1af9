package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetry keeps retry tests quick.
func fastRetry(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     attempts,
		InitialBackoff:  time.Millisecond,
		MaxBackoff:      5 * time.Millisecond,
		BackoffFactor:   2.0,
		RetryableErrors: []int{408, 429, 500, 502, 503, 504},
	}
}

func TestHTTPTransportConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  *HTTPTransportConfig
		wantErr bool
	}{
		{name: "zero value", config: &HTTPTransportConfig{}},
		{name: "with timeout", config: &HTTPTransportConfig{Timeout: 10 * time.Second}},
		{name: "negative timeout", config: &HTTPTransportConfig{Timeout: -time.Second}, wantErr: true},
		{name: "invalid retry", config: &HTTPTransportConfig{RetryConfig: &RetryConfig{MaxAttempts: 0}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestHTTPTransport_Execute_Success(t *testing.T) {
	var gotBody string
	var gotContentType, gotAuth, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("X-Slack-Req-Id", "req-123")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	tr, err := NewHTTPTransport(&HTTPTransportConfig{UserAgent: "conductor-slack/test"})
	require.NoError(t, err)

	req := &Request{Method: http.MethodPost, URL: server.URL + "/chat.postMessage", Body: []byte(`{"text":"hi"}`)}
	req.SetHeader("Authorization", "Bearer xoxb-1")

	resp, err := tr.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, "req-123", resp.Metadata[MetadataRequestID])
	assert.Equal(t, 0, resp.Metadata[MetadataRetryCount])
	assert.Equal(t, `{"text":"hi"}`, gotBody)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Bearer xoxb-1", gotAuth)
	assert.Equal(t, "conductor-slack/test", gotUA)
}

func TestHTTPTransport_Execute_DefaultHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "default", r.Header.Get("X-Default"))
		assert.Equal(t, "override", r.Header.Get("X-Override"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := NewHTTPTransport(&HTTPTransportConfig{
		Headers: map[string]string{"X-Default": "default", "X-Override": "default"},
	})
	require.NoError(t, err)

	_, err = tr.Execute(context.Background(), &Request{
		Method:  http.MethodGet,
		URL:     server.URL,
		Headers: map[string]string{"X-Override": "override"},
	})
	require.NoError(t, err)
}

func TestHTTPTransport_Execute_StatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantType  ErrorType
		retryable bool
		attempts  int32
	}{
		{name: "401 auth", status: http.StatusUnauthorized, wantType: ErrorTypeAuth, attempts: 1},
		{name: "404 client", status: http.StatusNotFound, wantType: ErrorTypeClient, attempts: 1},
		{name: "429 rate limit", status: http.StatusTooManyRequests, wantType: ErrorTypeRateLimit, retryable: true, attempts: 2},
		{name: "500 server", status: http.StatusInternalServerError, wantType: ErrorTypeServer, retryable: true, attempts: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.Header().Set("Retry-After", "0")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"ok":false}`))
			}))
			defer server.Close()

			tr, err := NewHTTPTransport(&HTTPTransportConfig{RetryConfig: fastRetry(2)})
			require.NoError(t, err)

			_, err = tr.Execute(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
			require.Error(t, err)

			te, ok := AsTransportError(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, te.Type)
			assert.Equal(t, tt.status, te.StatusCode)
			assert.Equal(t, tt.retryable, te.IsRetryable())
			assert.Contains(t, te.Message, `{"ok":false}`)
			assert.Equal(t, tt.attempts, atomic.LoadInt32(&calls))
		})
	}
}

func TestHTTPTransport_Execute_PostRetries(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		retryAfter string
		attempts   int32
	}{
		{name: "500 not repeated", status: http.StatusInternalServerError, attempts: 1},
		{name: "502 not repeated", status: http.StatusBadGateway, attempts: 1},
		{name: "503 without Retry-After not repeated", status: http.StatusServiceUnavailable, attempts: 1},
		{name: "503 with Retry-After repeated", status: http.StatusServiceUnavailable, retryAfter: "0", attempts: 3},
		{name: "429 repeated", status: http.StatusTooManyRequests, attempts: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				if tt.retryAfter != "" {
					w.Header().Set("Retry-After", tt.retryAfter)
				}
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			tr, err := NewHTTPTransport(&HTTPTransportConfig{RetryConfig: fastRetry(3)})
			require.NoError(t, err)

			_, err = tr.Execute(context.Background(), &Request{
				Method: http.MethodPost,
				URL:    server.URL + "/chat.postMessage",
				Body:   []byte(`{"channel":"C1","text":"hi"}`),
			})
			require.Error(t, err)
			assert.Equal(t, tt.attempts, atomic.LoadInt32(&calls))
		})
	}
}

func TestHTTPTransport_Execute_RetryThenSuccess(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := NewHTTPTransport(&HTTPTransportConfig{RetryConfig: fastRetry(3)})
	require.NoError(t, err)

	resp, err := tr.Execute(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Metadata[MetadataRetryCount])
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPTransport_Execute_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := NewHTTPTransport(&HTTPTransportConfig{
		Timeout:     20 * time.Millisecond,
		RetryConfig: NoRetryConfig(),
	})
	require.NoError(t, err)

	_, err = tr.Execute(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
	te, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeTimeout, te.Type)
}

func TestHTTPTransport_Execute_Cancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := NewHTTPTransport(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = tr.Execute(ctx, &Request{Method: http.MethodGet, URL: server.URL})
	te, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeCancelled, te.Type)
	assert.False(t, te.IsRetryable())
}

func TestHTTPTransport_Execute_InvalidRequest(t *testing.T) {
	tr, err := NewHTTPTransport(nil)
	require.NoError(t, err)

	tests := []struct {
		name string
		req  *Request
	}{
		{name: "nil request", req: nil},
		{name: "missing method", req: &Request{URL: "https://slack.com/api/auth.test"}},
		{name: "bad method", req: &Request{Method: "FETCH", URL: "https://slack.com/api/auth.test"}},
		{name: "missing URL", req: &Request{Method: http.MethodGet}},
		{name: "bad scheme", req: &Request{Method: http.MethodGet, URL: "ftp://slack.com/api"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tr.Execute(context.Background(), tt.req)
			te, ok := AsTransportError(err)
			require.True(t, ok)
			assert.Equal(t, ErrorTypeInvalidReq, te.Type)
		})
	}
}

func TestHTTPTransport_RateLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	tr, err := NewHTTPTransport(&HTTPTransportConfig{RetryConfig: NoRetryConfig()})
	require.NoError(t, err)
	tr.SetRateLimiter(blockingLimiter{})

	_, err = tr.Execute(context.Background(), &Request{Method: http.MethodGet, URL: server.URL})
	te, ok := AsTransportError(err)
	require.True(t, ok)
	assert.Equal(t, ErrorTypeCancelled, te.Type)
}

type blockingLimiter struct{}

func (blockingLimiter) Wait(ctx context.Context) error {
	return context.DeadlineExceeded
}

func TestRequest_Clone(t *testing.T) {
	req := &Request{Method: http.MethodGet, URL: "https://slack.com/api/auth.test"}
	req.SetHeader("A", "1")

	clone := req.Clone()
	clone.SetHeader("A", "2")
	clone.SetHeader("B", "3")

	assert.Equal(t, "1", req.Headers["A"])
	assert.NotContains(t, req.Headers, "B")
	assert.Equal(t, "2", clone.Headers["A"])
}
