package transport

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeTransport struct{ op string }

func (f fakeTransport) Kind() string        { return HTTP }
func (f fakeTransport) Operate() string     { return f.op }
func (f fakeTransport) ReqCarrier() Carrier { return nil }
func (f fakeTransport) RspCarrier() Carrier { return nil }

func TestContext(t *testing.T) {
	ctx := NewServerContext(context.Background(), fakeTransport{op: "GET /api/list"})
	tr, ok := FromServerContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "GET /api/list", tr.Operate())

	_, ok = FromClientContext(ctx)
	assert.False(t, ok)

	ctx = NewClientContext(context.Background(), fakeTransport{op: "/api/list"})
	tr, ok = FromClientContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, HTTP, tr.Kind())
}
