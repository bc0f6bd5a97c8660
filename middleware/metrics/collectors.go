package metrics

import "github.com/prometheus/client_golang/prometheus"

// Counter, Gauge and Histogram are label vectors. Values binds label values,
// in the order of the configured labels, and returns the child metric.
type Counter interface {
	prometheus.Collector
	Values(v ...string) prometheus.Counter
}

type Gauge interface {
	prometheus.Collector
	Values(v ...string) prometheus.Gauge
}

type Histogram interface {
	prometheus.Collector
	Values(v ...string) prometheus.Observer
}

type counter struct{ *prometheus.CounterVec }

func (c counter) Values(v ...string) prometheus.Counter { return c.WithLabelValues(v...) }

type gauge struct{ *prometheus.GaugeVec }

func (g gauge) Values(v ...string) prometheus.Gauge { return g.WithLabelValues(v...) }

type histogram struct{ *prometheus.HistogramVec }

func (h histogram) Values(v ...string) prometheus.Observer { return h.WithLabelValues(v...) }

func NewCounter(opts ...VecOpts) Counter {
	o := newVecOptions(opts...)
	vec := prometheus.NewCounterVec(prometheus.CounterOpts(o.opts()), o.labels)
	register(o.registerer, vec)
	return counter{vec}
}

// NewGauge defaults to the kind and operation labels, gauges carry no code.
func NewGauge(opts ...VecOpts) Gauge {
	o := newVecOptions(append([]VecOpts{Labels("kind", "operation")}, opts...)...)
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts(o.opts()), o.labels)
	register(o.registerer, vec)
	return gauge{vec}
}

func NewHistogram(opts ...VecOpts) Histogram {
	o := newVecOptions(opts...)
	base := o.opts()
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: base.Namespace,
		Subsystem: base.Subsystem,
		Name:      base.Name,
		Help:      base.Help,
		Buckets:   o.buckets,
	}, o.labels)
	register(o.registerer, vec)
	return histogram{vec}
}
