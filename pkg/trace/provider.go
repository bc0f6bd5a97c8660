package trace

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

type ProviderOption func(*providerOptions)

type providerOptions struct {
	name    string
	version string
	writer  io.Writer
	ratio   float64
	global  bool
}

func ServiceName(name string) ProviderOption {
	return func(o *providerOptions) {
		o.name = name
	}
}

func ServiceVersion(version string) ProviderOption {
	return func(o *providerOptions) {
		o.version = version
	}
}

// Writer is where finished spans are exported as JSON. The default
// discards them.
func Writer(w io.Writer) ProviderOption {
	return func(o *providerOptions) {
		o.writer = w
	}
}

func SampleRatio(ratio float64) ProviderOption {
	return func(o *providerOptions) {
		o.ratio = ratio
	}
}

// Global installs the provider and a W3C propagator as the otel globals.
func Global() ProviderOption {
	return func(o *providerOptions) {
		o.global = true
	}
}

// NewProvider builds an SDK tracer provider exporting through stdouttrace.
// Call Shutdown on the result to flush pending spans.
func NewProvider(opts ...ProviderOption) (*sdktrace.TracerProvider, error) {
	o := &providerOptions{
		name:   "svcindex",
		writer: io.Discard,
		ratio:  1,
	}
	for _, opt := range opts {
		opt(o)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(o.writer))
	if err != nil {
		return nil, err
	}
	attrs := []attribute.KeyValue{semconv.ServiceName(o.name)}
	if o.version != "" {
		attrs = append(attrs, semconv.ServiceVersion(o.version))
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, attrs...)),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(o.ratio))),
		sdktrace.WithBatcher(exporter),
	)
	if o.global {
		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
	}
	return tp, nil
}

// Shutdown flushes and stops tp.
func Shutdown(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
