package logging

import (
	"context"
	"fmt"
	"time"

	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/logger"
	"github.com/go-slark/svcindex/middleware"
	"github.com/go-slark/svcindex/transport"
)

// Log writes one line per call. Successful calls log at debug level,
// failures at warn for 4xx and error otherwise.
func Log(st middleware.SubType, l logger.Logger) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			var (
				trans transport.Transporter
				ok    bool
			)
			if st == middleware.Client {
				trans, ok = transport.FromClientContext(ctx)
			} else {
				trans, ok = transport.FromServerContext(ctx)
			}
			if !ok {
				return handler(ctx, req)
			}
			start := time.Now()
			rsp, err := handler(ctx, req)
			fields := map[string]interface{}{
				"kind":      trans.Kind(),
				"operation": trans.Operate(),
				"type":      st,
				"latency":   time.Since(start).Milliseconds(),
				"request":   fmt.Sprintf("%+v", req),
			}
			level := logger.DebugLevel
			if err != nil {
				e := errors.FromError(err)
				fields["code"] = e.Code
				fields["reason"] = e.Reason
				fields["error"] = err.Error()
				level = logger.ErrorLevel
				if e.Code < 500 {
					level = logger.WarnLevel
				}
			}
			l.Log(ctx, level, fields, "call log")
			return rsp, err
		}
	}
}
