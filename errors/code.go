package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

const (
	UnknownReason = "UNKNOWN_REASON"
	UnknownCode   = http.StatusInternalServerError

	InvalidParam  = "PARAM_INVALID"
	InvalidFormat = "FORMAT_INVALID"
	Panic         = "SERVER_SLEEPY"
	RateLimited   = "RATE_LIMITED"
	Overloaded    = "SERVER_OVERLOADED"
	BreakerOpen   = "BREAKER_OPEN"

	// registry taxonomy
	MalformedVersion  = "MALFORMED_VERSION"
	InvalidIdentity   = "INVALID_IDENTITY"
	InvalidDescriptor = "INVALID_DESCRIPTOR"
	ServiceNotFound   = "SERVICE_NOT_FOUND"
	ServiceExists     = "SERVICE_EXISTS"
	Unavailable       = "UNAVAILABLE"

	// store outcomes; the index maps these onto the taxonomy above
	DataNotFound     = "DATA_NOT_FOUND"
	DataExists       = "DATA_EXISTS"
	StoreUnavailable = "STORE_UNAVAILABLE"

	ClientClosed = 499
)

// httpToGRPC is a bijection; grpcToHTTP adds the many-to-one leftovers.
var httpToGRPC = map[int]codes.Code{
	http.StatusOK:                  codes.OK,
	http.StatusBadRequest:          codes.InvalidArgument,
	http.StatusUnauthorized:        codes.Unauthenticated,
	http.StatusForbidden:           codes.PermissionDenied,
	http.StatusNotFound:            codes.NotFound,
	http.StatusConflict:            codes.AlreadyExists,
	http.StatusTooManyRequests:     codes.ResourceExhausted,
	http.StatusInternalServerError: codes.Internal,
	http.StatusNotImplemented:      codes.Unimplemented,
	http.StatusServiceUnavailable:  codes.Unavailable,
	http.StatusGatewayTimeout:      codes.DeadlineExceeded,
	ClientClosed:                   codes.Canceled,
}

var grpcToHTTP = func() map[codes.Code]int {
	m := map[codes.Code]int{
		codes.Unknown:            http.StatusInternalServerError,
		codes.FailedPrecondition: http.StatusBadRequest,
		codes.Aborted:            http.StatusConflict,
		codes.OutOfRange:         http.StatusBadRequest,
		codes.DataLoss:           http.StatusInternalServerError,
	}
	for h, g := range httpToGRPC {
		m[g] = h
	}
	return m
}()

func HTTPToGRPCCode(code int) codes.Code {
	if c, ok := httpToGRPC[code]; ok {
		return c
	}
	return codes.Unknown
}

func GRPCToHTTPCode(code codes.Code) int {
	if c, ok := grpcToHTTP[code]; ok {
		return c
	}
	return http.StatusInternalServerError
}
