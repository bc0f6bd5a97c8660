package tracing

import (
	"context"

	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/middleware"
	tracing "github.com/go-slark/svcindex/pkg/trace"
	"github.com/go-slark/svcindex/transport"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Trace opens one span per call named after the transport operation.
func Trace(kind trace.SpanKind, opts ...tracing.Option) middleware.Middleware {
	tracer := tracing.NewTracer(kind, opts...)
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			var (
				trans transport.Transporter
				ok    bool
			)
			if kind == trace.SpanKindClient {
				trans, ok = transport.FromClientContext(ctx)
			} else {
				trans, ok = transport.FromServerContext(ctx)
			}
			if !ok {
				return handler(ctx, req)
			}

			operation := trans.Operate()
			attrs := []attribute.KeyValue{attribute.String("transport.kind", trans.Kind())}
			ctx, span := tracer.Start(ctx, operation, trans.ReqCarrier(), trace.WithAttributes(attrs...))
			defer span.End()

			rsp, err := handler(ctx, req)
			code := errors.Code(err)
			span.SetAttributes(semconv.HTTPStatusCode(code))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, errors.Reason(err))
			}
			return rsp, err
		}
	}
}
