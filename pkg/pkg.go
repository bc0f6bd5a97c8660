package utils

import (
	"context"

	"github.com/google/uuid"
)

const (
	LogName = "log-name"
	TraceID = "x-request-id"

	RequestVars = "request-vars"

	ContentType = "Content-Type"
	Accept      = "Accept"
	Application = "application"
)

type ctxKey string

func BuildRequestID() string {
	return uuid.New().String()
}

func WithRequestID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, ctxKey(TraceID), rid)
}

func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	rid, _ := ctx.Value(ctxKey(TraceID)).(string)
	return rid
}

func WithVars(ctx context.Context, vars map[string]string) context.Context {
	return context.WithValue(ctx, ctxKey(RequestVars), vars)
}

func Vars(ctx context.Context) map[string]string {
	vars, _ := ctx.Value(ctxKey(RequestVars)).(map[string]string)
	return vars
}

type Config struct {
	Builder   func() string
	RequestId string
}

type Option func(*Config)

func WithBuilder(b func() string) Option {
	return func(cfg *Config) {
		cfg.Builder = b
	}
}

func WithRequestId(requestId string) Option {
	return func(cfg *Config) {
		cfg.RequestId = requestId
	}
}
