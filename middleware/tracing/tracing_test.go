package tracing

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-slark/svcindex/errors"
	tracing "github.com/go-slark/svcindex/pkg/trace"
	"github.com/go-slark/svcindex/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

type fakeTransport struct{ header http.Header }

func (f fakeTransport) Kind() string                  { return transport.HTTP }
func (f fakeTransport) Operate() string               { return "GET /api/service/:name/:version" }
func (f fakeTransport) ReqCarrier() transport.Carrier { return propagation.HeaderCarrier(f.header) }
func (f fakeTransport) RspCarrier() transport.Carrier { return propagation.HeaderCarrier(http.Header{}) }

func TestServerSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	ctx := transport.NewServerContext(context.Background(), fakeTransport{header: http.Header{}})

	var inner string
	_, err := Trace(trace.SpanKindServer, tracing.Provider(tp))(func(ctx context.Context, req interface{}) (interface{}, error) {
		inner = tracing.TraceID(ctx)
		return nil, errors.NotFound("SERVICE_NOT_FOUND", "missing")
	})(ctx, nil)
	require.Error(t, err)
	assert.NotEmpty(t, inner)

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "GET /api/service/:name/:version", ended[0].Name())
	assert.Equal(t, trace.SpanKindServer, ended[0].SpanKind())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "SERVICE_NOT_FOUND", ended[0].Status().Description)
}

func TestClientSpanInjects(t *testing.T) {
	tp := sdktrace.NewTracerProvider()
	header := http.Header{}
	ctx := transport.NewClientContext(context.Background(), fakeTransport{header: header})
	_, err := Trace(trace.SpanKindClient, tracing.Provider(tp))(func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})(ctx, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, header.Get("traceparent"))
}

func TestNoTransportNoSpan(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	_, _ = Trace(trace.SpanKindServer, tracing.Provider(tp))(func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, nil
	})(context.Background(), nil)
	assert.Empty(t, rec.Ended())
}
