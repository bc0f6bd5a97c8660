package errors

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

const errStack = "err_stack"

type Status struct {
	Code     int32             `json:"code" yaml:"code"`
	Reason   string            `json:"reason" yaml:"reason"`
	Message  string            `json:"message" yaml:"message"`
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Error is the single error shape crossing package and wire boundaries.
// Values returned by the With* builders are copies; package level sentinels
// are never modified.
type Error struct {
	Status `yaml:",inline"`
	Err    string `json:"error,omitempty" yaml:"error,omitempty"`
	cause  error
}

func New(code int, reason, msg string) *Error {
	return &Error{
		Status: Status{
			Code:    int32(code),
			Reason:  reason,
			Message: msg,
		},
	}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("code:%d, reason:%s, msg:%s, metadata:%v, err:%v", e.Code, e.Reason, e.Message, e.Metadata, e.cause)
	}
	if e.Err != "" {
		return fmt.Sprintf("code:%d, reason:%s, msg:%s, metadata:%v, err:%s", e.Code, e.Reason, e.Message, e.Metadata, e.Err)
	}
	return fmt.Sprintf("code:%d, reason:%s, msg:%s, metadata:%v", e.Code, e.Reason, e.Message, e.Metadata)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches on code and reason so that copies produced by the builders
// still compare equal to the sentinel they came from.
func (e *Error) Is(err error) bool {
	if se := new(Error); errors.As(err, &se) {
		return se.Code == e.Code && se.Reason == e.Reason
	}
	return false
}

func (e *Error) WithError(cause error) *Error {
	err := clone(e)
	err.cause = cause
	if cause != nil {
		err.Err = cause.Error()
	}
	return err
}

func (e *Error) WithMetadata(md map[string]string) *Error {
	err := clone(e)
	err.Metadata = md
	return err
}

func (e *Error) WithMessage(msg string) *Error {
	err := clone(e)
	err.Message = msg
	return err
}

func (e *Error) GRPCStatus() *status.Status {
	eInfo := &errdetails.ErrorInfo{
		Reason:   e.Reason,
		Metadata: make(map[string]string, len(e.Metadata)+1),
	}
	for k, v := range e.Metadata {
		eInfo.Metadata[k] = v
	}
	if e.cause != nil {
		eInfo.Metadata[errStack] = fmt.Sprintf("%+v", e.cause)
	}
	s, _ := status.New(HTTPToGRPCCode(int(e.Code)), e.Message).WithDetails(eInfo)
	return s
}

func Code(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return int(FromError(err).Code)
}

func Reason(err error) string {
	if err == nil {
		return UnknownReason
	}
	return FromError(err).Reason
}

func clone(err *Error) *Error {
	var metadata map[string]string
	if err.Metadata != nil {
		metadata = make(map[string]string, len(err.Metadata))
		for k, v := range err.Metadata {
			metadata[k] = v
		}
	}
	return &Error{
		Status: Status{
			Code:     err.Code,
			Reason:   err.Reason,
			Message:  err.Message,
			Metadata: metadata,
		},
		Err:   err.Err,
		cause: err.cause,
	}
}

// FromError converts any error into *Error. gRPC status errors keep their
// reason and metadata when they carry an ErrorInfo detail.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	if se := new(Error); errors.As(err, &se) {
		return se
	}
	gs, ok := status.FromError(err)
	if !ok {
		return New(UnknownCode, UnknownReason, err.Error()).WithError(err)
	}
	ret := New(GRPCToHTTPCode(gs.Code()), UnknownReason, gs.Message())
	for _, detail := range gs.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			ret.Reason = d.Reason
			md := make(map[string]string, len(d.Metadata))
			for k, v := range d.Metadata {
				if k == errStack {
					ret.Err = v
					continue
				}
				md[k] = v
			}
			if len(md) > 0 {
				ret.Metadata = md
			}
			return ret
		}
	}
	return ret
}

func Is(err, target error) bool {
	return errors.Is(err, target)
}

func As(err error, target any) bool {
	return errors.As(err, target)
}

func Wrap(err error, msg string) error {
	return errors.Wrap(err, msg)
}

func WithStack(err error) error {
	return errors.WithStack(err)
}

func HasStack(err error) bool {
	_, ok := err.(interface{ StackTrace() errors.StackTrace })
	return ok
}
