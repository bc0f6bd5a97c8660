package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-slark/svcindex/encoding"
	"github.com/go-slark/svcindex/encoding/json"
	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/middleware"
	utils "github.com/go-slark/svcindex/pkg"
	"github.com/go-slark/svcindex/transport"
)

type Encoder func(ctx context.Context, contentType string, v interface{}) ([]byte, error)

type Decoder func(ctx context.Context, rsp *http.Response, v interface{}) error

type ErrDecoder func(ctx context.Context, rsp *http.Response) error

type Client struct {
	cc          *http.Client
	endpoint    string
	contentType string
	mws         []middleware.Middleware
	encoder     Encoder
	decoder     Decoder
	errDecoder  ErrDecoder
}

type ClientOption func(client *Client)

// WithEndpoint is the base URL every request path is appended to.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = strings.TrimSuffix(endpoint, "/")
	}
}

func WithTimeout(tm time.Duration) ClientOption {
	return func(c *Client) {
		c.cc.Timeout = tm
	}
}

func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.cc.Transport = rt
	}
}

func WithMiddleware(mws ...middleware.Middleware) ClientOption {
	return func(c *Client) {
		c.mws = append(c.mws, mws...)
	}
}

func WithContentType(contentType string) ClientOption {
	return func(c *Client) {
		c.contentType = contentType
	}
}

func WithErrDecoder(dec ErrDecoder) ClientOption {
	return func(c *Client) {
		c.errDecoder = dec
	}
}

func NewClient(opts ...ClientOption) *Client {
	client := &Client{
		cc:          &http.Client{Transport: http.DefaultTransport},
		contentType: SetContentType(json.Name),
		encoder:     DefaultRequestEncoder,
		decoder:     DefaultResponseDecoder,
		errDecoder:  DefaultErrorDecoder,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func DefaultRequestEncoder(_ context.Context, contentType string, v interface{}) ([]byte, error) {
	codec := encoding.GetCodec(SubContentType(contentType))
	if codec == nil {
		return nil, fmt.Errorf("no codec for content-type %q", contentType)
	}
	return codec.Marshal(v)
}

func DefaultResponseDecoder(_ context.Context, rsp *http.Response, v interface{}) error {
	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		return err
	}
	if len(body) == 0 || v == nil {
		return nil
	}
	codec := encoding.GetCodec(SubContentType(rsp.Header.Get(utils.ContentType)))
	if codec == nil {
		codec = encoding.GetCodec(json.Name)
	}
	return codec.Unmarshal(body, v)
}

// DefaultErrorDecoder turns a non 2xx response back into the *errors.Error
// the server encoded. Bodies that are not an encoded error keep the status
// code with an unknown reason.
func DefaultErrorDecoder(_ context.Context, rsp *http.Response) error {
	if rsp.StatusCode >= http.StatusOK && rsp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	body, err := io.ReadAll(rsp.Body)
	if err != nil {
		return errors.New(rsp.StatusCode, errors.UnknownReason, rsp.Status).WithError(err)
	}
	codec := encoding.GetCodec(SubContentType(rsp.Header.Get(utils.ContentType)))
	if codec != nil {
		e := new(errors.Error)
		if codec.Unmarshal(body, e) == nil && e.Code != 0 && e.Reason != "" {
			return e
		}
	}
	return errors.New(rsp.StatusCode, errors.UnknownReason, strings.TrimSpace(string(body)))
}

// Invoke sends in (when not nil) to the endpoint path and decodes the
// answer into out. The client middleware chain sees a client Transporter.
func (c *Client) Invoke(ctx context.Context, method, path string, in, out interface{}) error {
	header := http.Header{}
	header.Set(utils.Accept, c.contentType)
	if rid := utils.RequestID(ctx); rid != "" {
		header.Set(utils.TraceID, rid)
	}
	tr := &Transport{
		operation: method + " " + path,
		req:       Carrier(header),
		rsp:       Carrier(http.Header{}),
	}
	ctx = transport.NewClientContext(ctx, tr)

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		var body io.Reader
		if in != nil {
			data, err := c.encoder(ctx, c.contentType, in)
			if err != nil {
				return nil, err
			}
			body = bytes.NewReader(data)
			header.Set(utils.ContentType, c.contentType)
		}
		request, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, body)
		if err != nil {
			return nil, err
		}
		request.Header = header
		tr.r = request

		rsp, err := c.cc.Do(request)
		if err != nil {
			return nil, errors.ServiceUnavailable(errors.UnknownReason, err.Error()).WithError(err)
		}
		defer rsp.Body.Close()
		for k, v := range rsp.Header {
			tr.rsp[k] = v
		}
		if err = c.errDecoder(ctx, rsp); err != nil {
			return nil, err
		}
		return out, c.decoder(ctx, rsp, out)
	}
	if len(c.mws) > 0 {
		h = middleware.Compose(c.mws...)(h)
	}
	_, err := h(ctx, in)
	return err
}
