package limiter

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Limiter decides whether one more request may pass right now.
type Limiter interface {
	Allow(ctx context.Context) bool
}

type local struct {
	limiter *rate.Limiter
}

// NewLocal is an in-process token bucket refilled at r tokens per second.
func NewLocal(r float64, burst int) Limiter {
	return &local{limiter: rate.NewLimiter(rate.Limit(r), burst)}
}

func (l *local) Allow(context.Context) bool {
	return l.limiter.AllowN(time.Now(), 1)
}
