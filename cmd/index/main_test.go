package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
name: index-test
http:
  addr: "127.0.0.1:0"
  base_path: /
  stop_timeout: 1s
  cors: ["https://example.com"]
  request_id: xid
log:
  level: warn
store:
  kind: gorm
  db:
    driver: sqlite
    max_open_conn: 1
seed:
  bootstrap: true
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "index.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("INDEX_STORE__DB__DSN", "/tmp/ignored.db")
	t.Setenv("INDEX_HTTP__RATE_LIMIT", "5")
	src, cfg, err := loadConfig(writeConfig(t))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, "index-test", cfg.Name)
	assert.Equal(t, "gorm", cfg.Store.Kind)
	assert.Equal(t, "sqlite", cfg.Store.DB.Driver)
	assert.Equal(t, "/tmp/ignored.db", cfg.Store.DB.DSN)
	assert.Equal(t, 1, cfg.Store.DB.MaxOpenConn)
	assert.Equal(t, time.Second, cfg.HTTP.StopTimeout)
	assert.Equal(t, float64(5), cfg.HTTP.RateLimit)
	assert.Equal(t, []string{"https://example.com"}, cfg.HTTP.CORS)
	// defaults survive where nothing overrides them
	assert.Equal(t, "/metrics", cfg.HTTP.Metrics)
	assert.Equal(t, "services", cfg.Store.Collection)
}

func TestBuild(t *testing.T) {
	src, cfg, err := loadConfig(writeConfig(t))
	require.NoError(t, err)
	defer src.Close()
	cfg.Store.DB.DSN = filepath.Join(t.TempDir(), "index.db")

	_, srv, c, err := build(context.Background(), cfg, io.Discard)
	defer c.close()
	require.NoError(t, err)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}
	rec := get("/api/service/database/0.1.0")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"get_user"`)
	_, err = xid.FromString(rec.Header().Get("x-request-id"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, get("/healthz").Code)

	rec = get("/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "index_requests_code_total")

	// seeding again against the same database is not an error
	_, _, c2, err := build(context.Background(), cfg, io.Discard)
	defer c2.close()
	require.NoError(t, err)
}

func TestUnknownStore(t *testing.T) {
	cfg := defaultConfig()
	cfg.Store.Kind = "cassandra"
	_, _, c, err := build(context.Background(), cfg, io.Discard)
	defer c.close()
	assert.Error(t, err)
}

func TestBadLogLevel(t *testing.T) {
	cfg := defaultConfig()
	cfg.Log.Level = "loud"
	_, _, c, err := build(context.Background(), cfg, io.Discard)
	defer c.close()
	assert.Error(t, err)
}

func TestUnknownRequestID(t *testing.T) {
	cfg := defaultConfig()
	cfg.HTTP.RequestID = "ulid"
	_, _, c, err := build(context.Background(), cfg, io.Discard)
	defer c.close()
	assert.Error(t, err)
}

func TestServeUntilStopped(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	cfg := defaultConfig()
	cfg.HTTP.Addr = addr
	cfg.Log.Level = "error"
	app, _, c, err := build(context.Background(), cfg, io.Discard)
	defer c.close()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run() }()
	require.Eventually(t, func() bool {
		rsp, err := http.Get("http://" + addr + "/api/list")
		if err != nil {
			return false
		}
		rsp.Body.Close()
		return rsp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	select {
	case err := <-done:
		t.Fatalf("app returned early: %v", err)
	default:
	}
	app.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}

func TestCacheNeedsRedis(t *testing.T) {
	cfg := defaultConfig()
	cfg.Store.Cache = time.Minute
	cfg.Store.Redis.Address = "127.0.0.1:1"
	cfg.Store.Redis.MaxRetry = -1
	_, _, c, err := build(context.Background(), cfg, io.Discard)
	defer c.close()
	assert.Error(t, err)
}
