package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/middleware"
	"github.com/go-slark/svcindex/transport"
	"github.com/prometheus/client_golang/prometheus"
)

/*
constant labels are fixed at construction
variable label values are bound through Values, in the order of labels
*/

type VecOptions struct {
	name       string
	help       string
	namespace  string
	subSystem  string
	labels     []string
	buckets    []float64
	registerer prometheus.Registerer
}

func newVecOptions(opts ...VecOpts) *VecOptions {
	o := &VecOptions{
		name:       "vec",
		help:       "help",
		namespace:  "index",
		subSystem:  "requests",
		labels:     []string{"kind", "operation", "code"},
		buckets:    []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.250, 0.5, 1},
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *VecOptions) opts() prometheus.Opts {
	return prometheus.Opts{
		Namespace: o.namespace,
		Subsystem: o.subSystem,
		Name:      o.name,
		Help:      o.help,
	}
}

type VecOpts func(options *VecOptions)

func Name(name string) VecOpts {
	return func(o *VecOptions) {
		o.name = name
	}
}

func Help(h string) VecOpts {
	return func(o *VecOptions) {
		o.help = h
	}
}

func Namespace(ns string) VecOpts {
	return func(o *VecOptions) {
		o.namespace = ns
	}
}

func SubSystem(s string) VecOpts {
	return func(o *VecOptions) {
		o.subSystem = s
	}
}

func Labels(labels ...string) VecOpts {
	return func(o *VecOptions) {
		o.labels = labels
	}
}

func Buckets(buckets ...float64) VecOpts {
	return func(o *VecOptions) {
		o.buckets = buckets
	}
}

// Registerer overrides prometheus.DefaultRegisterer. A nil registerer
// leaves the collector unregistered.
func Registerer(r prometheus.Registerer) VecOpts {
	return func(o *VecOptions) {
		o.registerer = r
	}
}

func register(r prometheus.Registerer, c prometheus.Collector) {
	if r != nil {
		r.MustRegister(c)
	}
}

type Option struct {
	counter   Counter
	histogram Histogram
	inflight  Gauge
}

type Options func(*Option)

// WithCounter counts calls by kind, operation and code.
func WithCounter(c Counter) Options {
	return func(o *Option) {
		o.counter = c
	}
}

// WithHistogram observes call latency in seconds by kind, operation and code.
func WithHistogram(h Histogram) Options {
	return func(o *Option) {
		o.histogram = h
	}
}

// WithInflight tracks calls in progress by kind and operation.
func WithInflight(g Gauge) Options {
	return func(o *Option) {
		o.inflight = g
	}
}

func Metrics(opts ...Options) middleware.Middleware {
	o := &Option{}
	for _, opt := range opts {
		opt(o)
	}
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			var kind, operation string
			if trans, ok := transport.FromServerContext(ctx); ok {
				kind = trans.Kind()
				operation = trans.Operate()
			}
			if o.inflight != nil {
				g := o.inflight.Values(kind, operation)
				g.Inc()
				defer g.Dec()
			}
			start := time.Now()
			rsp, err := handler(ctx, req)
			code := strconv.Itoa(errors.Code(err))
			if o.histogram != nil {
				o.histogram.Values(kind, operation, code).Observe(time.Since(start).Seconds())
			}
			if o.counter != nil {
				o.counter.Values(kind, operation, code).Inc()
			}
			return rsp, err
		}
	}
}
