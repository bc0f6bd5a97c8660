package errors

import "net/http"

func BadRequest(reason, msg string) *Error {
	return New(http.StatusBadRequest, reason, msg)
}

func NotFound(reason, msg string) *Error {
	return New(http.StatusNotFound, reason, msg)
}

func Conflict(reason, msg string) *Error {
	return New(http.StatusConflict, reason, msg)
}

func TooManyRequests(reason, msg string) *Error {
	return New(http.StatusTooManyRequests, reason, msg)
}

func InternalServer(reason, msg string) *Error {
	return New(http.StatusInternalServerError, reason, msg)
}

func ServiceUnavailable(reason, msg string) *Error {
	return New(http.StatusServiceUnavailable, reason, msg)
}
