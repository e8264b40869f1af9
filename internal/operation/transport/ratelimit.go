package transport

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// TokenBucket is a RateLimiter backed by golang.org/x/time/rate.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a limiter allowing requestsPerSecond on average with
// bursts of up to burst requests. A burst below 1 is raised to 1.
func NewTokenBucket(requestsPerSecond float64, burst int) (*TokenBucket, error) {
	if requestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests_per_second must be positive, got %v", requestsPerSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst)}, nil
}

// Wait blocks until a token is available or ctx is done.
func (b *TokenBucket) Wait(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}
