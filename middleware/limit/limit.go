package limit

import (
	"context"

	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/middleware"
	"github.com/go-slark/svcindex/pkg/limiter"
)

var ErrLimitExceed = errors.TooManyRequests(errors.RateLimited, "request rate limit exceeded")

type Limiter struct {
	limiter limiter.Limiter
}

type Option func(limiter *Limiter)

func WithLimiter(limiter limiter.Limiter) Option {
	return func(l *Limiter) {
		l.limiter = limiter
	}
}

// Limit rejects calls with ErrLimitExceed once the limiter runs dry. The
// default is a local bucket of 100 requests per second, burst 200.
func Limit(opts ...Option) middleware.Middleware {
	l := &Limiter{limiter: limiter.NewLocal(100, 200)}
	for _, opt := range opts {
		opt(l)
	}
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if !l.limiter.Allow(ctx) {
				return nil, ErrLimitExceed
			}
			return handler(ctx, req)
		}
	}
}
