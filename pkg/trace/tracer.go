package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Tracer starts spans of one kind. Server and consumer spans extract the
// parent from the carrier; client and producer spans inject into it.
type Tracer struct {
	provider   trace.TracerProvider
	propagator propagation.TextMapPropagator
	tracer     trace.Tracer
	kind       trace.SpanKind
	name       string
}

type Option func(option *Tracer)

func Name(name string) Option {
	return func(option *Tracer) {
		option.name = name
	}
}

func Provider(provider trace.TracerProvider) Option {
	return func(option *Tracer) {
		option.provider = provider
	}
}

func Propagator(propagator propagation.TextMapPropagator) Option {
	return func(option *Tracer) {
		option.propagator = propagator
	}
}

// NewTracer falls back to the otel global provider and propagator.
func NewTracer(kind trace.SpanKind, opts ...Option) *Tracer {
	tracer := &Tracer{
		kind: kind,
		name: "svcindex",
	}
	for _, opt := range opts {
		opt(tracer)
	}
	if tracer.provider == nil {
		tracer.provider = otel.GetTracerProvider()
	}
	if tracer.propagator == nil {
		tracer.propagator = propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
	}
	tracer.tracer = tracer.provider.Tracer(tracer.name)
	return tracer
}

func (t *Tracer) Start(ctx context.Context, name string, carrier propagation.TextMapCarrier, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if t.kind == trace.SpanKindServer || t.kind == trace.SpanKindConsumer {
		ctx = t.propagator.Extract(ctx, carrier)
	}
	opts = append(opts, trace.WithSpanKind(t.kind))
	ctx, span := t.tracer.Start(ctx, name, opts...)
	if t.kind == trace.SpanKindClient || t.kind == trace.SpanKindProducer {
		t.propagator.Inject(ctx, carrier)
	}
	return ctx, span
}

func (t *Tracer) Kind() trace.SpanKind {
	return t.kind
}

func (t *Tracer) Name() string {
	return t.name
}

func TraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

func SpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.HasSpanID() {
		return sc.SpanID().String()
	}
	return ""
}
