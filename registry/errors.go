package registry

import "github.com/go-slark/svcindex/errors"

// Store outcomes. Backends return these; Index never lets them escape.
var (
	ErrNotFound         = errors.NotFound(errors.DataNotFound, "registry: no descriptor for identity")
	ErrDuplicate        = errors.Conflict(errors.DataExists, "registry: identity already stored")
	ErrStoreUnavailable = errors.ServiceUnavailable(errors.StoreUnavailable, "registry: store unavailable")
)

// Index outcomes, the only failures callers of Index observe.
var (
	ErrMalformedVersion  = errors.BadRequest(errors.MalformedVersion, "version must be major.minor.patch")
	ErrInvalidIdentity   = errors.BadRequest(errors.InvalidIdentity, "invalid service identity")
	ErrInvalidDescriptor = errors.BadRequest(errors.InvalidDescriptor, "invalid service descriptor")
	ErrServiceNotFound   = errors.NotFound(errors.ServiceNotFound, "service not found")
	ErrServiceExists     = errors.Conflict(errors.ServiceExists, "service already registered")
	ErrUnavailable       = errors.ServiceUnavailable(errors.Unavailable, "registry unavailable")
)
