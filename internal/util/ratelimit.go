package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter spaces out calls to a request budget expressed per minute.
type RateLimiter struct {
	lim *rate.Limiter
}

// NewRateLimiter creates a RateLimiter that allows perMinute operations per
// minute with bursts of up to burst operations. perMinute <= 0 disables
// limiting.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	if perMinute <= 0 {
		return &RateLimiter{lim: rate.NewLimiter(rate.Inf, 0)}
	}
	return &RateLimiter{lim: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), max(burst, 1))}
}

// Wait blocks until the next operation may start. It fails early when ctx
// is done or its deadline comes before the operation would be allowed.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return ctx.Err()
	}
	return rl.lim.Wait(ctx)
}
