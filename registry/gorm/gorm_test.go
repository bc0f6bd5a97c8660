package gorm

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/infra/db"
	"github.com/go-slark/svcindex/logger"
	"github.com/go-slark/svcindex/registry"
	"github.com/go-slark/svcindex/registry/registrytest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	c, err := db.New(&db.Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "index.db"), MaxOpenConn: 1}, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	s, err := NewStore(c.DB)
	require.NoError(t, err)
	return s
}

func TestConformance(t *testing.T) {
	registrytest.Run(t, func(t *testing.T) registry.Store { return newStore(t) })
}

func TestClosedDatabaseIsUnavailable(t *testing.T) {
	c, err := db.New(&db.Config{Driver: "sqlite", DSN: filepath.Join(t.TempDir(), "index.db")}, logger.Nop())
	require.NoError(t, err)
	s, err := NewStore(c.DB)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = s.Snapshot(context.Background())
	assert.True(t, errors.Is(err, registry.ErrStoreUnavailable))
	err = s.Insert(context.Background(), registry.Bootstrap())
	assert.True(t, errors.Is(err, registry.ErrStoreUnavailable))
}

func TestIndexOverGorm(t *testing.T) {
	s := newStore(t)
	require.NoError(t, registry.Seed(context.Background(), s, registry.Bootstrap()))
	idx := registry.NewIndex(s, registry.WithLogger(logger.Nop()))
	got, err := idx.Get(context.Background(), "database", "0.1.0")
	require.NoError(t, err)
	assert.Equal(t, registry.Bootstrap(), got)
}
