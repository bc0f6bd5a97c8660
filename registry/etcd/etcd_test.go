package etcd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/infra/etcd"
	"github.com/go-slark/svcindex/logger"
	"github.com/go-slark/svcindex/registry"
	"github.com/go-slark/svcindex/registry/registrytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clientv3 "go.etcd.io/etcd/client/v3"
)

func newClient(t *testing.T) *clientv3.Client {
	t.Helper()
	endpoints := os.Getenv("INDEX_TEST_ETCD")
	if endpoints == "" {
		t.Skip("INDEX_TEST_ETCD not set")
	}
	cli, err := etcd.NewClient(context.Background(), &etcd.Config{Endpoints: strings.Split(endpoints, ",")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = cli.Close() })
	return cli
}

func namespace(t *testing.T, cli *clientv3.Client) string {
	ns := fmt.Sprintf("/svcindex-test/%d", time.Now().UnixNano())
	t.Cleanup(func() { _, _ = cli.Delete(context.Background(), ns+"/", clientv3.WithPrefix()) })
	return ns
}

func TestKeys(t *testing.T) {
	s := New(nil, Namespace("/ns/"))
	id := registry.Identity{Name: "kv", Version: registry.Version{Major: 1, Minor: 2, Patch: 3}}
	assert.Equal(t, "/ns/kv/1.2.3", s.key(id))
	assert.Equal(t, "/ns/", s.prefix())
}

func TestConformance(t *testing.T) {
	cli := newClient(t)
	registrytest.Run(t, func(t *testing.T) registry.Store {
		return New(cli, Namespace(namespace(t, cli)), Logger(logger.Nop()))
	})
}

func TestLeaseKeptAlive(t *testing.T) {
	cli := newClient(t)
	s := New(cli, Namespace(namespace(t, cli)), TTL(1), Logger(logger.Nop()))
	defer s.Close()
	ctx := context.Background()
	d := registrytest.Descriptor("leased", 1, 0, 0)
	require.NoError(t, s.Insert(ctx, d))

	time.Sleep(3 * time.Second)
	_, err := s.Lookup(ctx, d.Identity)
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, d.Identity))
	_, err = s.Lookup(ctx, d.Identity)
	assert.True(t, errors.Is(err, registry.ErrNotFound))
}

func TestUnreachableIsUnavailable(t *testing.T) {
	cli, err := clientv3.New(clientv3.Config{Endpoints: []string{"127.0.0.1:1"}, DialTimeout: 100 * time.Millisecond})
	require.NoError(t, err)
	defer cli.Close()
	s := New(cli, Logger(logger.Nop()))

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err = s.Snapshot(ctx)
	assert.True(t, errors.Is(err, registry.ErrStoreUnavailable))
	assert.True(t, errors.Is(s.Insert(ctx, registry.Bootstrap()), registry.ErrStoreUnavailable))
}
