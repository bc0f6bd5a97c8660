package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errBase = NotFound(ServiceNotFound, "service not found")

func TestBuildersCopy(t *testing.T) {
	e := errBase.WithMessage("database@0.1.0").WithMetadata(map[string]string{"name": "database"})
	assert.Equal(t, "service not found", errBase.Message)
	assert.Nil(t, errBase.Metadata)
	assert.Equal(t, "database@0.1.0", e.Message)
	assert.True(t, Is(e, errBase))
}

func TestIsThroughWrap(t *testing.T) {
	err := fmt.Errorf("lookup: %w", errBase.WithError(fmt.Errorf("boom")))
	assert.True(t, Is(err, errBase))
	assert.False(t, Is(err, Conflict(ServiceExists, "")))
	assert.Equal(t, http.StatusNotFound, Code(err))
	assert.Equal(t, ServiceNotFound, Reason(err))
}

func TestCauseChain(t *testing.T) {
	inner := ServiceUnavailable(StoreUnavailable, "poisoned")
	outer := ServiceUnavailable(Unavailable, "unavailable").WithError(inner)
	assert.True(t, Is(outer, inner))
	assert.Contains(t, outer.Error(), StoreUnavailable)
	assert.Equal(t, inner.Error(), outer.Err)
}

func TestFromPlainError(t *testing.T) {
	e := FromError(fmt.Errorf("plain"))
	assert.EqualValues(t, UnknownCode, e.Code)
	assert.Equal(t, UnknownReason, e.Reason)
	assert.Nil(t, FromError(nil))
	assert.Equal(t, http.StatusOK, Code(nil))
}

func TestGRPCRoundTrip(t *testing.T) {
	src := ServiceUnavailable(Unavailable, "store down").
		WithMetadata(map[string]string{"backend": "etcd"}).
		WithError(fmt.Errorf("dial tcp"))
	st := src.GRPCStatus()
	require.Equal(t, codes.Unavailable, st.Code())

	got := FromError(st.Err())
	assert.EqualValues(t, http.StatusServiceUnavailable, got.Code)
	assert.Equal(t, Unavailable, got.Reason)
	assert.Equal(t, "etcd", got.Metadata["backend"])
	assert.Contains(t, got.Err, "dial tcp")
	assert.True(t, Is(got, src))
}

func TestGRPCWithoutDetails(t *testing.T) {
	got := FromError(status.Error(codes.NotFound, "gone"))
	assert.EqualValues(t, http.StatusNotFound, got.Code)
	assert.Equal(t, UnknownReason, got.Reason)
}

func TestCodeTables(t *testing.T) {
	for _, code := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusServiceUnavailable, http.StatusTooManyRequests} {
		assert.Equal(t, code, GRPCToHTTPCode(HTTPToGRPCCode(code)))
	}
}

func TestHasStack(t *testing.T) {
	assert.True(t, HasStack(WithStack(fmt.Errorf("x"))))
	assert.False(t, HasStack(fmt.Errorf("x")))
}
