package http

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	ierrors "github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/logger"
	"github.com/go-slark/svcindex/middleware"
	utils "github.com/go-slark/svcindex/pkg"
	"github.com/go-slark/svcindex/transport"
	"github.com/go-slark/svcindex/transport/http/filter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ transport.Server = (*Server)(nil)

type Server struct {
	*http.Server
	listener    net.Listener
	filters     []filter.Filter
	mws         []middleware.Middleware
	network     string
	address     string
	basePath    string
	mode        string
	metricsPath string
	gatherer    prometheus.Gatherer
	engine      *gin.Engine
	logger      logger.Logger
	codecs      *Codecs
	ridOpts     []utils.Option
}

type ServerOption func(server *Server)

func Network(network string) ServerOption {
	return func(s *Server) {
		s.network = network
	}
}

func Address(addr string) ServerOption {
	return func(s *Server) {
		s.address = addr
	}
}

// Listener serves on an already bound listener instead of Network/Address.
func Listener(l net.Listener) ServerOption {
	return func(s *Server) {
		s.listener = l
	}
}

func BasePath(basePath string) ServerOption {
	return func(s *Server) {
		s.basePath = basePath
	}
}

func Logger(l logger.Logger) ServerOption {
	return func(s *Server) {
		s.logger = l
	}
}

// Middleware installs the chain wrapped around every routed handler.
func Middleware(mws ...middleware.Middleware) ServerOption {
	return func(s *Server) {
		s.mws = append(s.mws, mws...)
	}
}

// Filters wrap the whole http.Handler, ahead of routing.
func Filters(filters ...filter.Filter) ServerOption {
	return func(s *Server) {
		s.filters = append(s.filters, filters...)
	}
}

// Metrics exposes g in the prometheus text format under path.
func Metrics(path string, g prometheus.Gatherer) ServerOption {
	return func(s *Server) {
		s.metricsPath = path
		s.gatherer = g
	}
}

// Mode is the gin mode; release unless told otherwise.
func Mode(mode string) ServerOption {
	return func(s *Server) {
		s.mode = mode
	}
}

func Timeout(read, write time.Duration) ServerOption {
	return func(s *Server) {
		s.ReadTimeout = read
		s.WriteTimeout = write
	}
}

// RequestID configures the request id header and how missing ids are minted.
func RequestID(opts ...utils.Option) ServerOption {
	return func(s *Server) {
		s.ridOpts = append(s.ridOpts, opts...)
	}
}

func ErrorEncoder(enc func(*http.Request, http.ResponseWriter, error)) ServerOption {
	return func(s *Server) {
		s.codecs.errorEncoder = enc
	}
}

func NewServer(opts ...ServerOption) *Server {
	srv := &Server{
		network:  "tcp",
		address:  "0.0.0.0:0",
		basePath: "/",
		mode:     gin.ReleaseMode,
		Server:   &http.Server{ReadHeaderTimeout: 5 * time.Second},
		logger:   logger.Default(),
		codecs: &Codecs{
			bodyDecoder:  RequestBodyDecoder,
			varsDecoder:  RequestVarsDecoder,
			queryDecoder: RequestQueryDecoder,
			rspEncoder:   ResponseEncoder,
			errorEncoder: DefaultErrorEncoder,
		},
	}
	for _, o := range opts {
		o(srv)
	}
	gin.SetMode(srv.mode)
	srv.engine = gin.New()
	srv.engine.ContextWithFallback = true
	srv.engine.Use(
		gin.CustomRecoveryWithWriter(io.Discard, srv.recover),
		BuildRequestID(srv.ridOpts...),
		AccessLog(srv.logger),
	)
	if srv.metricsPath != "" && srv.gatherer != nil {
		srv.engine.GET(srv.metricsPath, gin.WrapH(promhttp.HandlerFor(srv.gatherer, promhttp.HandlerOpts{})))
	}
	srv.Handler = filter.Handle(srv.engine, srv.filters...)
	return srv
}

func (s *Server) recover(ctx *gin.Context, e any) {
	s.logger.Log(ctx.Request.Context(), logger.ErrorLevel, map[string]interface{}{"error": e, "path": ctx.Request.URL.Path}, "http handler panic")
	s.codecs.errorEncoder(ctx.Request, ctx.Writer, ierrors.InternalServer(ierrors.Panic, "internal server error"))
	ctx.Abort()
}

// Engine exposes the gin engine for routes outside the Router, such as
// health checks.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Endpoint is the bound listen address, empty before Start.
func (s *Server) Endpoint() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) listen() error {
	if s.listener != nil {
		return nil
	}
	l, err := net.Listen(s.network, s.address)
	if err != nil {
		return err
	}
	s.listener = l
	return nil
}

func (s *Server) Start() error {
	if err := s.listen(); err != nil {
		return err
	}
	s.logger.Log(context.Background(), logger.InfoLevel, map[string]interface{}{"address": s.Endpoint()}, "http server listening")
	err := s.Serve(s.listener)
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Log(ctx, logger.InfoLevel, map[string]interface{}{"address": s.Endpoint()}, "http server stopping")
	return s.Shutdown(ctx)
}
