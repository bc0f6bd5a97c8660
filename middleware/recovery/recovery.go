package recovery

import (
	"context"
	"fmt"
	"runtime"

	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/logger"
	"github.com/go-slark/svcindex/middleware"
)

// Recovery turns a panic further down the chain into a logged
// InternalServer error.
func Recovery(l logger.Logger) middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (rsp interface{}, err error) {
			defer func() {
				if e := recover(); e != nil {
					buf := make([]byte, 64<<10) // 64k
					buf = buf[:runtime.Stack(buf, false)]
					fields := map[string]interface{}{
						"req":   fmt.Sprintf("%+v", req),
						"error": fmt.Sprintf("%+v", e),
						"stack": string(buf),
					}
					l.Log(ctx, logger.ErrorLevel, fields, "recover")
					rsp, err = nil, errors.InternalServer(errors.Panic, "internal server error")
				}
			}()
			return handler(ctx, req)
		}
	}
}
