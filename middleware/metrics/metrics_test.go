package metrics

import (
	"context"
	"strings"
	"testing"

	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/transport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct{}

func (fakeTransport) Kind() string                  { return transport.HTTP }
func (fakeTransport) Operate() string               { return "GET /api/list" }
func (fakeTransport) ReqCarrier() transport.Carrier { return nil }
func (fakeTransport) RspCarrier() transport.Carrier { return nil }

func TestCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCounter(Registerer(reg), Name("total"), Labels("url", "method"))
	c.Values("/server/api", "POST").Inc()
	c.Values("/server/api", "POST").Add(2)
	assert.Equal(t, float64(3), testutil.ToFloat64(c))
}

func TestGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := NewGauge(Registerer(reg), Name("inflight"), Labels("url"))
	g.Values("/server/api").Inc()
	g.Values("/server/api").Add(1)
	g.Values("/server/api").Dec()
	assert.Equal(t, float64(1), testutil.ToFloat64(g))
}

func TestHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := NewHistogram(Registerer(reg), Namespace(""), SubSystem(""), Name("counts"), Help("requests duration"),
		Labels("method"), Buckets(1, 2, 3))
	h.Values("/server/api").Observe(2)
	expected := `
# HELP counts requests duration
# TYPE counts histogram
counts_bucket{method="/server/api",le="1"} 0
counts_bucket{method="/server/api",le="2"} 1
counts_bucket{method="/server/api",le="3"} 1
counts_bucket{method="/server/api",le="+Inf"} 1
counts_sum{method="/server/api"} 2
counts_count{method="/server/api"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(h, strings.NewReader(expected)))
}

func TestMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCounter(Registerer(reg), Name("code_total"))
	h := NewHistogram(Registerer(reg), Name("duration_seconds"))
	g := NewGauge(Registerer(reg), Name("inflight"))
	mw := Metrics(WithCounter(c), WithHistogram(h), WithInflight(g))

	ctx := transport.NewServerContext(context.Background(), fakeTransport{})
	inflight := g.Values(transport.HTTP, "GET /api/list")

	_, err := mw(func(ctx context.Context, req interface{}) (interface{}, error) {
		assert.Equal(t, float64(1), testutil.ToFloat64(inflight))
		return "ok", nil
	})(ctx, nil)
	require.NoError(t, err)

	_, err = mw(func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, errors.NotFound("SERVICE_NOT_FOUND", "missing")
	})(ctx, nil)
	require.Error(t, err)

	assert.Equal(t, float64(1), testutil.ToFloat64(c.Values(transport.HTTP, "GET /api/list", "200")))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.Values(transport.HTTP, "GET /api/list", "404")))
	assert.Equal(t, 2, testutil.CollectAndCount(h))
	assert.Equal(t, float64(0), testutil.ToFloat64(inflight))
}

func TestNilRegistererLeavesUnregistered(t *testing.T) {
	c := NewCounter(Registerer(nil), Name("loose"))
	c.Values("a", "b", "c").Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(c))
}
