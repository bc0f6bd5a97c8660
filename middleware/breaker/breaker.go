package breaker

import (
	"context"
	"sync"

	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/middleware"
	"github.com/go-slark/svcindex/transport"
	"github.com/zeromicro/go-zero/core/breaker"
)

var ErrBreakerOpen = errors.ServiceUnavailable(errors.BreakerOpen, "circuit breaker open")

// Breaker is a client side circuit breaker, one per operation. Only 5xx
// failures trip it; a 4xx answer still proves the server is healthy.
func Breaker() middleware.Middleware {
	var breakers sync.Map
	fetch := func(name string) breaker.Breaker {
		if b, ok := breakers.Load(name); ok {
			return b.(breaker.Breaker)
		}
		b, _ := breakers.LoadOrStore(name, breaker.NewBreaker(breaker.WithName(name)))
		return b.(breaker.Breaker)
	}
	acceptable := func(err error) bool {
		return err == nil || errors.Code(err) < 500
	}
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			name := "unknown"
			if trans, ok := transport.FromClientContext(ctx); ok {
				name = trans.Operate()
			}
			var rsp interface{}
			err := fetch(name).DoWithAcceptable(func() error {
				var err error
				rsp, err = handler(ctx, req)
				return err
			}, acceptable)
			if errors.Is(err, breaker.ErrServiceUnavailable) {
				return nil, ErrBreakerOpen.WithError(err)
			}
			return rsp, err
		}
	}
}
