package batch

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter throttles independent-mode batch dispatch (spec.md §4.8
// "optional requests-per-second limit").
type RateLimiter struct {
	limiter *rate.Limiter
}

// NewRateLimiter builds a limiter allowing rps requests per second with a
// burst of 1. A non-positive rps disables limiting.
func NewRateLimiter(rps float64) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), 1)}
}

// Wait blocks until the limiter admits one more request, or until ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.limiter.Wait(ctx)
}
