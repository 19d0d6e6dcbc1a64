package util

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps rate.Limiter with a smaller surface for the MCP
// transport.
type Limiter struct {
	inner *rate.Limiter
}

// NewLimiter creates a token bucket allowing r events per second with
// the given burst.
func NewLimiter(r float64, burst int) *Limiter {
	return &Limiter{inner: rate.NewLimiter(rate.Limit(r), burst)}
}

// Allow reports whether an event with weight n may happen now.
func (l *Limiter) Allow(n int) bool {
	return l.inner.AllowN(time.Now(), n)
}

// Wait blocks until n tokens are available.
func (l *Limiter) Wait(ctx context.Context, n int) error {
	return l.inner.WaitN(ctx, n)
}
