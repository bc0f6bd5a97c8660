package trace

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestClientServerPropagation(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	client := NewTracer(trace.SpanKindClient, Provider(tp))
	server := NewTracer(trace.SpanKindServer, Provider(tp))

	header := http.Header{}
	ctx, span := client.Start(context.Background(), "/api/list", propagation.HeaderCarrier(header))
	clientTrace := TraceID(ctx)
	span.End()
	require.NotEmpty(t, clientTrace)
	assert.NotEmpty(t, header.Get("traceparent"))

	ctx, span = server.Start(context.Background(), "GET /api/list", propagation.HeaderCarrier(header))
	assert.Equal(t, clientTrace, TraceID(ctx))
	assert.NotEmpty(t, SpanID(ctx))
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, trace.SpanKindClient, ended[0].SpanKind())
	assert.Equal(t, trace.SpanKindServer, ended[1].SpanKind())
}

func TestIDsWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
	assert.Empty(t, SpanID(context.Background()))
}

func TestNewProvider(t *testing.T) {
	tp, err := NewProvider(ServiceName("index-test"), ServiceVersion("0.1.0"))
	require.NoError(t, err)
	_, span := NewTracer(trace.SpanKindInternal, Provider(tp)).Start(context.Background(), "op", propagation.MapCarrier{})
	span.End()
	assert.NoError(t, Shutdown(context.Background(), tp))
	assert.NoError(t, Shutdown(context.Background(), nil))
}
