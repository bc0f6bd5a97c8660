package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-slark/svcindex"
	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/infra/db"
	"github.com/go-slark/svcindex/infra/etcd"
	"github.com/go-slark/svcindex/infra/mongo"
	"github.com/go-slark/svcindex/infra/redis"
	"github.com/go-slark/svcindex/logger"
	"github.com/go-slark/svcindex/middleware"
	"github.com/go-slark/svcindex/middleware/limit"
	"github.com/go-slark/svcindex/middleware/logging"
	"github.com/go-slark/svcindex/middleware/metrics"
	"github.com/go-slark/svcindex/middleware/recovery"
	"github.com/go-slark/svcindex/middleware/shedding"
	"github.com/go-slark/svcindex/middleware/tracing"
	utils "github.com/go-slark/svcindex/pkg"
	"github.com/go-slark/svcindex/pkg/limiter"
	"github.com/go-slark/svcindex/pkg/trace"
	"github.com/go-slark/svcindex/pkg/uid"
	"github.com/go-slark/svcindex/registry"
	"github.com/go-slark/svcindex/registry/cache"
	regetcd "github.com/go-slark/svcindex/registry/etcd"
	reggorm "github.com/go-slark/svcindex/registry/gorm"
	regmongo "github.com/go-slark/svcindex/registry/mongo"
	regredis "github.com/go-slark/svcindex/registry/redis"
	"github.com/go-slark/svcindex/service"
	"github.com/go-slark/svcindex/transport"
	khttp "github.com/go-slark/svcindex/transport/http"
	"github.com/go-slark/svcindex/transport/http/filter"
	"github.com/go-slark/svcindex/transport/http/pprof"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// closer collects cleanups, run in reverse order.
type closer []func()

func (c *closer) add(fn func()) {
	*c = append(*c, fn)
}

func (c closer) close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func newLogger(cfg *Config, w io.Writer) (logger.Logger, error) {
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	return logger.NewLog(
		logger.WithSrvName(cfg.Name),
		logger.WithLevel(cfg.Log.Level),
		logger.WithFormat(cfg.Log.Format),
		logger.WithWriter(w),
		logger.WithReportCaller(cfg.Log.Caller),
	), nil
}

// newStore opens the configured backend. The returned redis client is the
// connection the store or its cache uses, so the rate limit can share it.
func newStore(ctx context.Context, cfg *Config, l logger.Logger, c *closer) (registry.Store, *redis.Client, error) {
	sc := cfg.Store
	ctx, cancel := context.WithTimeout(ctx, sc.Timeout)
	defer cancel()
	var (
		store registry.Store
		rc    *redis.Client
	)
	switch sc.Kind {
	case "memory", "":
		store = registry.NewMemoryStore()
	case "gorm":
		cli, err := db.New(&sc.DB, l)
		if err != nil {
			return nil, nil, err
		}
		c.add(func() { _ = cli.Close() })
		if store, err = reggorm.NewStore(cli.DB); err != nil {
			return nil, nil, err
		}
	case "etcd":
		cli, err := etcd.NewClient(ctx, &sc.Etcd)
		if err != nil {
			return nil, nil, err
		}
		c.add(func() { _ = cli.Close() })
		s := regetcd.New(cli, regetcd.Namespace("/"+sc.Namespace), regetcd.TTL(sc.TTL), regetcd.Logger(l))
		c.add(func() { _ = s.Close() })
		store = s
	case "redis":
		cli, err := redis.NewClient(ctx, &sc.Redis)
		if err != nil {
			return nil, nil, err
		}
		c.add(func() { _ = cli.Close() })
		store, rc = regredis.New(cli, regredis.Namespace(sc.Namespace+":services")), cli
	case "mongo":
		cli, err := mongo.NewClient(ctx, &sc.Mongo, l)
		if err != nil {
			return nil, nil, err
		}
		c.add(func() { _ = cli.Close(context.Background()) })
		store = regmongo.New(cli.Collection(sc.Collection))
	default:
		return nil, nil, fmt.Errorf("unknown store kind %q", sc.Kind)
	}

	if sc.Cache <= 0 {
		return store, rc, nil
	}
	if rc == nil {
		cli, err := redis.NewClient(ctx, &sc.Redis)
		if err != nil {
			return nil, nil, err
		}
		c.add(func() { _ = cli.Close() })
		rc = cli
	}
	return cache.New(store, rc.Client, cache.Prefix(sc.Namespace+":cache:"), cache.Expire(sc.Cache)), rc, nil
}

func seed(ctx context.Context, cfg *Config, store registry.Store) error {
	var ds []registry.Descriptor
	if cfg.Seed.Bootstrap {
		ds = append(ds, registry.Bootstrap())
	}
	if cfg.Seed.File != "" {
		more, err := registry.LoadSeed(cfg.Seed.File)
		if err != nil {
			return err
		}
		ds = append(ds, more...)
	}
	for _, d := range ds {
		// persistent stores keep entries across restarts
		if err := registry.Seed(ctx, store, d); err != nil && !errors.Is(err, registry.ErrDuplicate) {
			return err
		}
	}
	return nil
}

func middlewares(cfg *Config, l logger.Logger, reg prometheus.Registerer, rc *redis.Client, c *closer) []middleware.Middleware {
	mws := []middleware.Middleware{
		recovery.Recovery(l),
		tracing.Trace(oteltrace.SpanKindServer),
		logging.Log(middleware.Server, l),
		metrics.Metrics(
			metrics.WithCounter(metrics.NewCounter(metrics.Registerer(reg), metrics.Name("code_total"), metrics.Help("requests by operation and code"))),
			metrics.WithHistogram(metrics.NewHistogram(metrics.Registerer(reg), metrics.Name("duration_seconds"), metrics.Help("request latency"))),
			metrics.WithInflight(metrics.NewGauge(metrics.Registerer(reg), metrics.Name("inflight"), metrics.Help("requests in progress"))),
		),
	}
	if cfg.HTTP.Shedding > 0 {
		mws = append(mws, shedding.Shedding(cfg.Name, cfg.HTTP.Shedding))
	}
	if cfg.HTTP.RateLimit > 0 {
		var lim limiter.Limiter = limiter.NewLocal(cfg.HTTP.RateLimit, cfg.HTTP.Burst)
		if rc != nil && cfg.HTTP.RateLimit >= 1 {
			tb := limiter.NewTBLimiter(int(cfg.HTTP.RateLimit), cfg.HTTP.Burst, rc, cfg.Store.Namespace)
			c.add(tb.Stop)
			lim = tb
		}
		mws = append(mws, limit.Limit(limit.WithLimiter(lim)))
	}
	return mws
}

// build wires everything serve needs. The closer releases what was opened
// even when build fails halfway.
func build(ctx context.Context, cfg *Config, out io.Writer) (*svcindex.App, *khttp.Server, closer, error) {
	var c closer
	l, err := newLogger(cfg, out)
	if err != nil {
		return nil, nil, c, err
	}
	logger.SetDefault(l)

	if cfg.Trace.Enabled {
		w := io.Discard
		if cfg.Trace.Stdout {
			w = os.Stdout
		}
		tp, err := trace.NewProvider(trace.ServiceName(cfg.Name), trace.SampleRatio(cfg.Trace.Ratio), trace.Writer(w), trace.Global())
		if err != nil {
			return nil, nil, c, err
		}
		c.add(func() { _ = trace.Shutdown(context.Background(), tp) })
	}

	store, rc, err := newStore(ctx, cfg, l, &c)
	if err != nil {
		return nil, nil, c, err
	}
	if err = seed(ctx, cfg, store); err != nil {
		return nil, nil, c, err
	}

	rid, err := uid.Builder(cfg.HTTP.RequestID)
	if err != nil {
		return nil, nil, c, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := []khttp.ServerOption{
		khttp.Address(cfg.HTTP.Addr),
		khttp.BasePath(cfg.HTTP.BasePath),
		khttp.Logger(l),
		khttp.Timeout(cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout),
		khttp.RequestID(utils.WithBuilder(rid)),
		khttp.Middleware(middlewares(cfg, l, reg, rc, &c)...),
	}
	if cfg.HTTP.Metrics != "" {
		opts = append(opts, khttp.Metrics(cfg.HTTP.Metrics, reg))
	}
	if len(cfg.HTTP.CORS) > 0 {
		opts = append(opts, khttp.Filters(filter.CORS(filter.AllowedOrigins(cfg.HTTP.CORS...))))
	}
	srv := khttp.NewServer(opts...)
	service.NewIndexService(registry.NewIndex(store, registry.WithLogger(l))).Bind(srv)

	servers := []transport.Server{srv}
	if cfg.Pprof != "" {
		servers = append(servers, pprof.NewServer(cfg.Pprof, reg))
	}
	app := svcindex.New(
		svcindex.Server(servers...),
		svcindex.StopTimeout(cfg.HTTP.StopTimeout),
		svcindex.Logger(l),
		svcindex.Context(ctx),
	)
	return app, srv, c, nil
}
