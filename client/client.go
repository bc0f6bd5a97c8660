// Package client is the Go client of the service index HTTP API.
package client

import (
	"context"
	"net/http"
	"net/url"
	"time"

	_ "github.com/go-slark/svcindex/encoding/json"
	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/middleware"
	"github.com/go-slark/svcindex/middleware/breaker"
	"github.com/go-slark/svcindex/pkg/retry"
	"github.com/go-slark/svcindex/pkg/sf"
	"github.com/go-slark/svcindex/registry"
	khttp "github.com/go-slark/svcindex/transport/http"
)

type options struct {
	timeout   time.Duration
	transport http.RoundTripper
	mws       []middleware.Middleware
	retry     []retry.Opt
	breaker   bool
}

type Option func(*options)

func WithTimeout(tm time.Duration) Option {
	return func(o *options) {
		o.timeout = tm
	}
}

func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(o *options) {
		o.mws = append(o.mws, mws...)
	}
}

// WithRetry retries calls that failed with ErrUnavailable. Nothing is
// retried unless this option is given.
func WithRetry(opts ...retry.Opt) Option {
	return func(o *options) {
		o.retry = append([]retry.Opt{retry.Retryable(unavailable)}, opts...)
	}
}

// WithoutBreaker disables the per operation circuit breaker.
func WithoutBreaker() Option {
	return func(o *options) {
		o.breaker = false
	}
}

type Client struct {
	cc      *khttp.Client
	sf      *sf.SingleFlight
	retry   *retry.Option
	timeout time.Duration
}

// New talks to the index served at endpoint, e.g. http://localhost:8000.
func New(endpoint string, opts ...Option) *Client {
	o := &options{
		timeout: 5 * time.Second,
		breaker: true,
	}
	for _, opt := range opts {
		opt(o)
	}
	mws := o.mws
	if o.breaker {
		mws = append(mws, breaker.Breaker())
	}
	copts := []khttp.ClientOption{
		khttp.WithEndpoint(endpoint),
		khttp.WithTimeout(o.timeout),
		khttp.WithMiddleware(mws...),
	}
	if o.transport != nil {
		copts = append(copts, khttp.WithTransport(o.transport))
	}
	c := &Client{
		cc:      khttp.NewClient(copts...),
		sf:      sf.NewSingleFlight(),
		timeout: o.timeout,
	}
	if len(o.retry) > 0 {
		c.retry = retry.NewOption(o.retry...)
	}
	return c
}

func unavailable(err error) bool {
	return errors.Is(err, registry.ErrUnavailable)
}

// classify folds every 503, including transport failures and an open
// breaker, into ErrUnavailable. Other server errors come back as sent.
func classify(err error) error {
	if err == nil || errors.Is(err, registry.ErrUnavailable) {
		return err
	}
	if errors.Code(err) == http.StatusServiceUnavailable {
		return registry.ErrUnavailable.WithError(err)
	}
	return err
}

func (c *Client) invoke(ctx context.Context, method, path string, in, out interface{}) error {
	call := func(ctx context.Context) error {
		return classify(c.cc.Invoke(ctx, method, path, in, out))
	}
	if c.retry == nil {
		return call(ctx)
	}
	return c.retry.Retry(ctx, call)
}

func (c *Client) List(ctx context.Context) ([]registry.Descriptor, error) {
	var out []registry.Descriptor
	if err := c.invoke(ctx, http.MethodGet, "/api/list", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []registry.Descriptor{}
	}
	return out, nil
}

func servicePath(id registry.Identity) string {
	return "/api/service/" + url.PathEscape(id.Name) + "/" + id.Version.String()
}

// Get rejects malformed input locally with the same errors the server would
// answer. Concurrent calls for the same identity share one request, which
// runs detached from the first caller's context and is bounded by the
// client timeout instead.
func (c *Client) Get(ctx context.Context, name, version string) (registry.Descriptor, error) {
	id, err := registry.ParseIdentity(name, version)
	if err != nil {
		return registry.Descriptor{}, err
	}
	v, err := c.sf.Do(id.String(), func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		out := registry.Descriptor{}
		err := c.invoke(ctx, http.MethodGet, servicePath(id), nil, &out)
		return out, err
	})
	if err != nil {
		return registry.Descriptor{}, err
	}
	return v.(registry.Descriptor).Clone(), nil
}

func (c *Client) Register(ctx context.Context, d registry.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return c.invoke(ctx, http.MethodPost, "/api/service", &d, nil)
}

func (c *Client) Deregister(ctx context.Context, name, version string) error {
	id, err := registry.ParseIdentity(name, version)
	if err != nil {
		return err
	}
	return c.invoke(ctx, http.MethodDelete, servicePath(id), nil, nil)
}
