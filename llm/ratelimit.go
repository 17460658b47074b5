// ABOUTME: Rate-limiting decorator for any llm.Client, built on a token bucket.
// ABOUTME: Throttles model calls to a configured number of requests per minute.
package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedClient delays CreateMessage calls so the wrapped client sees at
// most the configured request rate. Bursts up to the bucket size pass through.
type RateLimitedClient struct {
	next    Client
	limiter *rate.Limiter
}

// NewRateLimitedClient wraps next with a limit of requestsPerMinute.
// Panics if next is nil or requestsPerMinute is not positive.
func NewRateLimitedClient(next Client, requestsPerMinute, burst int) *RateLimitedClient {
	if next == nil {
		panic("mcphub: client must not be nil")
	}
	if requestsPerMinute <= 0 {
		panic("mcphub: requestsPerMinute must be positive")
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimitedClient{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst),
	}
}

// CreateMessage waits for a token and forwards the request.
func (c *RateLimitedClient) CreateMessage(ctx context.Context, req *Request) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return c.next.CreateMessage(ctx, req)
}

// Compile-time interface assertion.
var _ Client = (*RateLimitedClient)(nil)
