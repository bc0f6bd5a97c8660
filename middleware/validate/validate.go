package validate

import (
	"context"

	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/middleware"
)

type Validator interface {
	Validate() error
}

// Validate rejects requests whose Validate method fails. Typed errors pass
// through unchanged; anything else becomes a PARAM_INVALID bad request.
func Validate() middleware.Middleware {
	return func(handler middleware.Handler) middleware.Handler {
		return func(ctx context.Context, req interface{}) (interface{}, error) {
			if v, ok := req.(Validator); ok {
				if err := v.Validate(); err != nil {
					if se := new(errors.Error); errors.As(err, &se) {
						return nil, err
					}
					return nil, errors.BadRequest(errors.InvalidParam, err.Error()).WithError(err)
				}
			}
			return handler(ctx, req)
		}
	}
}
