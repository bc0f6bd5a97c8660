package http

import (
	"github.com/gin-gonic/gin"
	utils "github.com/go-slark/svcindex/pkg"
)

// BuildRequestID reuses the caller's request id header or mints one, echoes
// it on the response and stores it in the request context.
func BuildRequestID(opts ...utils.Option) gin.HandlerFunc {
	cfg := &utils.Config{
		Builder:   utils.BuildRequestID,
		RequestId: utils.TraceID,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return func(ctx *gin.Context) {
		rid := ctx.GetHeader(cfg.RequestId)
		if len(rid) == 0 {
			rid = cfg.Builder()
		}
		ctx.Header(cfg.RequestId, rid)
		ctx.Request = ctx.Request.WithContext(utils.WithRequestID(ctx.Request.Context(), rid))
		ctx.Next()
	}
}

func GetRequestID(ctx *gin.Context) string {
	return utils.RequestID(ctx.Request.Context())
}
