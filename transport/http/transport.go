package http

import (
	"net/http"

	"github.com/go-slark/svcindex/transport"
)

var _ transport.Transporter = (*Transport)(nil)

type Carrier http.Header

func (c Carrier) Set(k string, v string) {
	http.Header(c).Set(k, v)
}

func (c Carrier) Add(k string, v string) {
	http.Header(c).Add(k, v)
}

func (c Carrier) Get(k string) string {
	return http.Header(c).Get(k)
}

func (c Carrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// Transport is the HTTP Transporter. On the server Operate is
// "METHOD route", on the client "METHOD path".
type Transport struct {
	operation string
	req       Carrier
	rsp       Carrier
	r         *http.Request
}

func (t *Transport) Kind() string {
	return transport.HTTP
}

func (t *Transport) Operate() string {
	return t.operation
}

func (t *Transport) ReqCarrier() transport.Carrier {
	return t.req
}

func (t *Transport) RspCarrier() transport.Carrier {
	return t.rsp
}

func (t *Transport) Request() *http.Request {
	return t.r
}
