package etcd

import "github.com/go-slark/svcindex/logger"

type option struct {
	ns     string
	ttl    int64
	retry  int
	logger logger.Logger
}

type Option func(*option)

// Namespace prefixes every key. Keys are <ns>/<name>/<version>.
func Namespace(ns string) Option {
	return func(o *option) {
		o.ns = ns
	}
}

// TTL attaches a lease of ttl seconds to every inserted descriptor and keeps
// it alive until Remove or Close. Zero stores descriptors without a lease.
func TTL(ttl int64) Option {
	return func(o *option) {
		o.ttl = ttl
	}
}

// Retry bounds the attempts to reinstate a descriptor whose lease was lost.
func Retry(r int) Option {
	return func(o *option) {
		o.retry = r
	}
}

func Logger(l logger.Logger) Option {
	return func(o *option) {
		o.logger = l
	}
}
