package service

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-slark/svcindex/middleware/validate"
	"github.com/go-slark/svcindex/registry"
	khttp "github.com/go-slark/svcindex/transport/http"
)

// IndexService exposes a registry.Index over HTTP.
type IndexService struct {
	index *registry.Index
}

func NewIndexService(index *registry.Index) *IndexService {
	return &IndexService{index: index}
}

type ServiceURI struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Bind mounts the index routes under the server base path and the liveness
// probe at the engine root.
func (s *IndexService) Bind(srv *khttp.Server) {
	r := khttp.NewRouter(srv)
	r.GET("/api/list", s.list)
	r.GET("/api/service/:name/:version", s.get)
	r.POST("/api/service", s.register)
	r.DELETE("/api/service/:name/:version", s.deregister)

	srv.Engine().GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (s *IndexService) list(ctx *khttp.Context) error {
	out, err := ctx.Handle(func(c context.Context, _ interface{}) (interface{}, error) {
		return s.index.List(c)
	})(ctx.Context(), nil)
	if err != nil {
		return err
	}
	return ctx.Result(out)
}

func (s *IndexService) get(ctx *khttp.Context) error {
	in := &ServiceURI{}
	if err := ctx.ShouldBindURI(in); err != nil {
		return err
	}
	out, err := ctx.Handle(func(c context.Context, req interface{}) (interface{}, error) {
		uri := req.(*ServiceURI)
		return s.index.Get(c, uri.Name, uri.Version)
	})(ctx.Context(), in)
	if err != nil {
		return err
	}
	return ctx.Result(out)
}

func (s *IndexService) register(ctx *khttp.Context) error {
	in := &registry.Descriptor{}
	if err := ctx.ShouldBind(in); err != nil {
		return err
	}
	_, err := ctx.Handle(validate.Validate()(func(c context.Context, req interface{}) (interface{}, error) {
		return nil, s.index.Register(c, *req.(*registry.Descriptor))
	}))(ctx.Context(), in)
	if err != nil {
		return err
	}
	return ctx.NoContent(http.StatusCreated)
}

func (s *IndexService) deregister(ctx *khttp.Context) error {
	in := &ServiceURI{}
	if err := ctx.ShouldBindURI(in); err != nil {
		return err
	}
	_, err := ctx.Handle(func(c context.Context, req interface{}) (interface{}, error) {
		uri := req.(*ServiceURI)
		return nil, s.index.Deregister(c, uri.Name, uri.Version)
	})(ctx.Context(), in)
	if err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
