package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-slark/svcindex/encoding"
	_ "github.com/go-slark/svcindex/encoding/form"
	_ "github.com/go-slark/svcindex/encoding/json"
	"github.com/go-slark/svcindex/encoding/msgpack"
	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/logger"
	"github.com/go-slark/svcindex/middleware/recovery"
	"github.com/go-slark/svcindex/registry"
	khttp "github.com/go-slark/svcindex/transport/http"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type downStore struct{}

func (downStore) Snapshot(context.Context) ([]registry.Descriptor, error) {
	return nil, registry.ErrStoreUnavailable
}

func (downStore) Lookup(context.Context, registry.Identity) (registry.Descriptor, error) {
	return registry.Descriptor{}, registry.ErrStoreUnavailable
}

func (downStore) Insert(context.Context, registry.Descriptor) error {
	return registry.ErrStoreUnavailable
}

func (downStore) Remove(context.Context, registry.Identity) error {
	return registry.ErrStoreUnavailable
}

func newServer(t *testing.T, store registry.Store) *khttp.Server {
	t.Helper()
	srv := khttp.NewServer(khttp.Logger(logger.Nop()), khttp.Middleware(recovery.Recovery(logger.Nop())))
	NewIndexService(registry.NewIndex(store, registry.WithLogger(logger.Nop()))).Bind(srv)
	return srv
}

func seeded(t *testing.T) registry.Store {
	t.Helper()
	s := registry.NewMemoryStore()
	require.NoError(t, registry.Seed(context.Background(), s, registry.Bootstrap()))
	return s
}

func do(srv *khttp.Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func reason(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	e := &errors.Status{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), e), rec.Body.String())
	assert.Equal(t, rec.Code, int(e.Code))
	return e.Reason
}

func TestGetBootstrap(t *testing.T) {
	srv := newServer(t, seeded(t))
	rec := do(srv, http.MethodGet, "/api/service/database/0.1.0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"identity":{"name":"database","version":"0.1.0"},
		"address":{"host":"127.0.0.1","port":1234},
		"methods":[{"name":"get_user","args":[{"name":"id","type":"u64"}],"returning":"u64"}]
	}`, rec.Body.String())
}

func TestGetNegotiatesMsgpack(t *testing.T) {
	srv := newServer(t, seeded(t))
	req := httptest.NewRequest(http.MethodGet, "/api/service/database/0.1.0", nil)
	req.Header.Set("Accept", "application/msgpack")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/msgpack", rec.Header().Get("Content-Type"))

	var got registry.Descriptor
	require.NoError(t, encoding.GetCodec(msgpack.Name).Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, cmp.Diff(registry.Bootstrap(), got))
}

func TestList(t *testing.T) {
	srv := newServer(t, seeded(t))
	rec := do(srv, http.MethodGet, "/api/list", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []registry.Descriptor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Empty(t, cmp.Diff([]registry.Descriptor{registry.Bootstrap()}, got))

	empty := newServer(t, registry.NewMemoryStore())
	rec = do(empty, http.MethodGet, "/api/list", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestErrorTaxonomy(t *testing.T) {
	srv := newServer(t, seeded(t))
	cases := []struct {
		path   string
		code   int
		reason string
	}{
		{"/api/service/database/0.1", http.StatusBadRequest, errors.MalformedVersion},
		{"/api/service/database/abc", http.StatusBadRequest, errors.MalformedVersion},
		{"/api/service/a@b/0.1.0", http.StatusBadRequest, errors.InvalidIdentity},
		{"/api/service/database/0.1.1", http.StatusNotFound, errors.ServiceNotFound},
		{"/api/service/nothing/0.1.0", http.StatusNotFound, errors.ServiceNotFound},
	}
	for _, c := range cases {
		rec := do(srv, http.MethodGet, c.path, "")
		assert.Equal(t, c.code, rec.Code, c.path)
		assert.Equal(t, c.reason, reason(t, rec), c.path)
	}
}

func TestUnavailable(t *testing.T) {
	srv := newServer(t, downStore{})
	for _, path := range []string{"/api/list", "/api/service/database/0.1.0"} {
		rec := do(srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, errors.Unavailable, reason(t, rec), path)
	}
	// input errors are still reported before the store is consulted
	rec := do(srv, http.MethodGet, "/api/service/database/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterDeregister(t *testing.T) {
	srv := newServer(t, seeded(t))
	body := `{"identity":{"name":"kv","version":"1.0.0"},"address":{"host":"10.0.0.2","port":9000},"methods":[]}`

	rec := do(srv, http.MethodPost, "/api/service", body)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = do(srv, http.MethodPost, "/api/service", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, errors.ServiceExists, reason(t, rec))

	rec = do(srv, http.MethodGet, "/api/service/kv/1.0.0", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(srv, http.MethodDelete, "/api/service/kv/1.0.0", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(srv, http.MethodDelete, "/api/service/kv/1.0.0", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ServiceNotFound, reason(t, rec))
}

func TestRegisterRejectsBadBodies(t *testing.T) {
	srv := newServer(t, registry.NewMemoryStore())
	cases := []struct {
		body   string
		reason string
	}{
		{`{"identity":{"name":"kv","version":"1.x"},"address":{"host":"h","port":1}}`, errors.MalformedVersion},
		{`{"identity":{"name":"kv","version":"1.0.0"},"address":{"port":1}}`, errors.InvalidDescriptor},
		{`{"identity":{"name":"a/b","version":"1.0.0"},"address":{"host":"h","port":1}}`, errors.InvalidIdentity},
		{`{"identity":`, errors.InvalidFormat},
	}
	for _, c := range cases {
		rec := do(srv, http.MethodPost, "/api/service", c.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, c.body)
		assert.Equal(t, c.reason, reason(t, rec), c.body)
	}
	rec := do(srv, http.MethodGet, "/api/list", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestHealthz(t *testing.T) {
	srv := newServer(t, downStore{})
	rec := do(srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
