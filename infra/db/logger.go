package db

import (
	"context"
	"errors"
	"time"

	xlogger "github.com/go-slark/svcindex/logger"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/utils"
)

type LoggerOption func(l *gormLogger)

func WithLogLevel(level logger.LogLevel) LoggerOption {
	return func(l *gormLogger) {
		l.LogLevel = level
	}
}

func WithSlowThreshold(tm time.Duration) LoggerOption {
	return func(l *gormLogger) {
		l.SlowThreshold = tm
	}
}

func WithRecordNotFound(ignore bool) LoggerOption {
	return func(l *gormLogger) {
		l.IgnoreRecordNotFoundError = ignore
	}
}

func WithLogger(l xlogger.Logger) LoggerOption {
	return func(gl *gormLogger) {
		if l != nil {
			gl.Logger = l
		}
	}
}

// gormLogger forwards gorm's log calls to a logger.Logger as structured
// fields instead of formatted text.
type gormLogger struct {
	logger.Config
	xlogger.Logger
}

func NewLogger(opts ...LoggerOption) logger.Interface {
	l := &gormLogger{
		Config: logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
		Logger: xlogger.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	nl := *l
	nl.LogLevel = level
	return &nl
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Info {
		l.Log(ctx, xlogger.InfoLevel, map[string]interface{}{"caller": utils.FileWithLineNum(), "data": data}, msg)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Warn {
		l.Log(ctx, xlogger.WarnLevel, map[string]interface{}{"caller": utils.FileWithLineNum(), "data": data}, msg)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.LogLevel >= logger.Error {
		l.Log(ctx, xlogger.ErrorLevel, map[string]interface{}{"caller": utils.FileWithLineNum(), "data": data}, msg)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.LogLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	fields := func() map[string]interface{} {
		sql, rows := fc()
		f := map[string]interface{}{
			"caller":     utils.FileWithLineNum(),
			"elapsed_ms": float64(elapsed.Nanoseconds()) / 1e6,
			"sql":        sql,
		}
		if rows != -1 {
			f["rows"] = rows
		}
		return f
	}
	switch {
	case err != nil && l.LogLevel >= logger.Error && (!errors.Is(err, logger.ErrRecordNotFound) || !l.IgnoreRecordNotFoundError):
		f := fields()
		f["error"] = err.Error()
		l.Log(ctx, xlogger.ErrorLevel, f, "sql error")
	case elapsed > l.SlowThreshold && l.SlowThreshold != 0 && l.LogLevel >= logger.Warn:
		f := fields()
		f["slow_threshold"] = l.SlowThreshold.String()
		l.Log(ctx, xlogger.WarnLevel, f, "slow sql")
	case l.LogLevel == logger.Info:
		l.Log(ctx, xlogger.DebugLevel, fields(), "sql")
	}
}
