package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-slark/svcindex/logger"
)

// AccessLog writes one line per request once the response is done.
func AccessLog(l logger.Logger, excludePaths ...string) gin.HandlerFunc {
	exclude := make(map[string]struct{}, len(excludePaths))
	for _, p := range excludePaths {
		exclude[p] = struct{}{}
	}
	return func(ctx *gin.Context) {
		if _, ok := exclude[ctx.Request.URL.Path]; ok {
			ctx.Next()
			return
		}
		start := time.Now()
		ctx.Next()
		status := ctx.Writer.Status()
		fields := map[string]interface{}{
			"method":    ctx.Request.Method,
			"path":      ctx.Request.URL.Path,
			"route":     ctx.FullPath(),
			"status":    status,
			"latency":   time.Since(start).Milliseconds(),
			"client_ip": ctx.ClientIP(),
			"size":      ctx.Writer.Size(),
		}
		level := logger.InfoLevel
		switch {
		case status >= 500:
			level = logger.ErrorLevel
		case status >= 400:
			level = logger.WarnLevel
		}
		l.Log(ctx.Request.Context(), level, fields, "access log")
	}
}
