package shedding

import (
	"context"

	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/middleware"
	"github.com/zeromicro/go-zero/core/load"
)

var ErrOverloaded = errors.ServiceUnavailable(errors.Overloaded, "server overloaded, retry later")

// Shedding drops calls with ErrOverloaded while cpu usage (in millicpu,
// 1000 = 100%) stays above threshold. Calls ending in a 5xx or a deadline
// count against the shedder.
func Shedding(name string, threshold int64) middleware.Middleware {
	load.DisableLog()
	stat := load.NewSheddingStat(name)
	shedder := load.NewAdaptiveShedder(load.WithCpuThreshold(threshold))
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			stat.IncrementTotal()
			promise, err := shedder.Allow()
			if err != nil {
				stat.IncrementDrop()
				return nil, ErrOverloaded.WithError(err)
			}
			rsp, err := handler(ctx, req)
			if errors.Is(err, context.DeadlineExceeded) || errors.Code(err) >= 500 {
				promise.Fail()
			} else {
				stat.IncrementPass()
				promise.Pass()
			}
			return rsp, err
		}
	}
}
