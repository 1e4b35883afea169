package catalog

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces consecutive fetches by at least the configured delay.
// The first call never waits.
type RateLimiter struct {
	limiter *rate.Limiter
}

func NewRateLimiter(delay time.Duration) *RateLimiter {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &RateLimiter{limiter: rate.NewLimiter(limit, 1)}
}

func (r *RateLimiter) WaitTurn(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}
