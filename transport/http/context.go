package http

import (
	"context"
	"net/http"

	"github.com/go-slark/svcindex/middleware"
)

type wrapper struct {
	rw   http.ResponseWriter
	code int
}

func (w *wrapper) WriteHeader(code int) {
	w.code = code
	w.rw.WriteHeader(code)
}

func (w *wrapper) Header() http.Header {
	return w.rw.Header()
}

func (w *wrapper) Write(p []byte) (int, error) {
	if w.code == 0 {
		w.code = http.StatusOK
	}
	return w.rw.Write(p)
}

// Context is handed to every routed handler. Instances are pooled by the
// Router and must not be kept after the handler returns.
type Context struct {
	router *Router
	req    *http.Request
	ctx    context.Context
	w      wrapper
}

func (c *Context) reset(ctx context.Context, req *http.Request, rsp http.ResponseWriter) {
	c.req = req
	c.ctx = ctx
	c.w = wrapper{rw: rsp}
}

func (c *Context) Context() context.Context {
	return c.ctx
}

func (c *Context) Request() *http.Request {
	return c.req
}

func (c *Context) Response() http.ResponseWriter {
	return &c.w
}

// Handle wraps handler with the server middleware chain.
func (c *Context) Handle(handler middleware.Handler) middleware.Handler {
	return middleware.Compose(c.router.srv.mws...)(handler)
}

func (c *Context) ShouldBind(v interface{}) error {
	return c.router.srv.codecs.bodyDecoder(c.req, v)
}

func (c *Context) ShouldBindURI(v interface{}) error {
	return c.router.srv.codecs.varsDecoder(c.req, v)
}

func (c *Context) ShouldBindQuery(v interface{}) error {
	return c.router.srv.codecs.queryDecoder(c.req, v)
}

// Result encodes v with the codec negotiated from the Accept header.
func (c *Context) Result(v interface{}) error {
	return c.router.srv.codecs.rspEncoder(c.req, &c.w, v)
}

// NoContent answers with a bare status code.
func (c *Context) NoContent(code int) error {
	c.w.WriteHeader(code)
	return nil
}
