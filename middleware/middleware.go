package middleware

import "context"

type Handler func(ctx context.Context, req interface{}) (interface{}, error)

type Middleware func(Handler) Handler

// Compose chains mws so that the first one is outermost.
func Compose(mws ...Middleware) Middleware {
	return func(handler Handler) Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			handler = mws[i](handler)
		}
		return handler
	}
}

// SubType tells a middleware which side of a call it is installed on.
type SubType string

const (
	Server SubType = "server"
	Client SubType = "client"
)
