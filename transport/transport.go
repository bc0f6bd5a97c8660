package transport

import "context"

const (
	HTTP = "http"
)

type Server interface {
	Start() error
	Stop(ctx context.Context) error
}

// Carrier is a header view shaped like an OpenTelemetry TextMapCarrier.
type Carrier interface {
	Get(key string) string
	Set(key, value string)
	Keys() []string
}

// Transporter describes the call a handler is serving or a client is making.
type Transporter interface {
	Kind() string
	// Operate is the route template for servers and the request path for
	// clients.
	Operate() string
	ReqCarrier() Carrier
	RspCarrier() Carrier
}

type (
	serverKey struct{}
	clientKey struct{}
)

func NewServerContext(ctx context.Context, tr Transporter) context.Context {
	return context.WithValue(ctx, serverKey{}, tr)
}

func FromServerContext(ctx context.Context) (Transporter, bool) {
	tr, ok := ctx.Value(serverKey{}).(Transporter)
	return tr, ok
}

func NewClientContext(ctx context.Context, tr Transporter) context.Context {
	return context.WithValue(ctx, clientKey{}, tr)
}

func FromClientContext(ctx context.Context) (Transporter, bool) {
	tr, ok := ctx.Value(clientKey{}).(Transporter)
	return tr, ok
}
