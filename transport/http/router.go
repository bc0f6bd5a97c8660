package http

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	utils "github.com/go-slark/svcindex/pkg"
	"github.com/go-slark/svcindex/transport"
)

type Router struct {
	pool  sync.Pool
	srv   *Server
	group *gin.RouterGroup
}

func NewRouter(srv *Server) *Router {
	router := &Router{
		srv:   srv,
		group: srv.engine.Group(srv.basePath),
	}
	router.pool.New = func() any {
		return &Context{
			router: router,
			ctx:    context.Background(),
		}
	}
	return router
}

type HandlerFunc func(ctx *Context) error

// Handle registers hf under method and path relative to the server base
// path. Errors returned by hf go through the server error encoder.
func (r *Router) Handle(method, path string, hf HandlerFunc) {
	handler := func(ctx *gin.Context) {
		vars := make(map[string]string, len(ctx.Params))
		for _, param := range ctx.Params {
			vars[param.Key] = param.Value
		}
		req := ctx.Request.WithContext(utils.WithVars(ctx.Request.Context(), vars))
		tr := &Transport{
			operation: method + " " + ctx.FullPath(),
			req:       Carrier(req.Header),
			rsp:       Carrier(ctx.Writer.Header()),
			r:         req,
		}
		c := r.pool.Get().(*Context)
		c.reset(transport.NewServerContext(req.Context(), tr), req, ctx.Writer)
		if err := hf(c); err != nil {
			r.srv.codecs.errorEncoder(req, ctx.Writer, err)
		}
		c.reset(context.Background(), nil, nil)
		r.pool.Put(c)
	}
	r.group.Handle(method, path, handler)
}

func (r *Router) GET(path string, hf HandlerFunc) {
	r.Handle("GET", path, hf)
}

func (r *Router) POST(path string, hf HandlerFunc) {
	r.Handle("POST", path, hf)
}

func (r *Router) DELETE(path string, hf HandlerFunc) {
	r.Handle("DELETE", path, hf)
}
