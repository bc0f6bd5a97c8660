// Package registrytest checks that a registry.Store behaves like the
// in-memory reference store.
package registrytest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/registry"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Descriptor(name string, major, minor, patch uint64) registry.Descriptor {
	return registry.Descriptor{
		Identity: registry.Identity{Name: name, Version: registry.Version{Major: major, Minor: minor, Patch: patch}},
		Address:  registry.Endpoint{Host: "10.0.0.1", Port: 8000 + uint16(patch)},
		Methods: []registry.Method{
			{Name: "ping", Args: []registry.Argument{}, Returns: "bool"},
			{Name: "put", Args: []registry.Argument{{Name: "key", Type: "string"}, {Name: "value", Type: "bytes"}}, Returns: "unit"},
		},
	}
}

// Run exercises a fresh, empty store returned by newStore for every subtest.
func Run(t *testing.T, newStore func(t *testing.T) registry.Store) {
	t.Run("Lifecycle", func(t *testing.T) { lifecycle(t, newStore(t)) })
	t.Run("Copies", func(t *testing.T) { copies(t, newStore(t)) })
	t.Run("ExactMatch", func(t *testing.T) { exactMatch(t, newStore(t)) })
	t.Run("Snapshot", func(t *testing.T) { snapshot(t, newStore(t)) })
	t.Run("ConcurrentInsert", func(t *testing.T) { concurrentInsert(t, newStore(t)) })
	t.Run("InvalidDescriptor", func(t *testing.T) { invalidDescriptor(t, newStore(t)) })
}

func lifecycle(t *testing.T, s registry.Store) {
	ctx := context.Background()
	d := Descriptor("kv", 1, 0, 0)

	_, err := s.Lookup(ctx, d.Identity)
	assert.True(t, errors.Is(err, registry.ErrNotFound), "%v", err)

	require.NoError(t, s.Insert(ctx, d))
	err = s.Insert(ctx, d)
	assert.True(t, errors.Is(err, registry.ErrDuplicate), "%v", err)

	got, err := s.Lookup(ctx, d.Identity)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(d, got))

	require.NoError(t, s.Remove(ctx, d.Identity))
	err = s.Remove(ctx, d.Identity)
	assert.True(t, errors.Is(err, registry.ErrNotFound), "%v", err)

	// a removed identity can be registered again
	require.NoError(t, s.Insert(ctx, d))
}

func copies(t *testing.T, s registry.Store) {
	ctx := context.Background()
	d := Descriptor("kv", 1, 0, 0)
	require.NoError(t, s.Insert(ctx, d))
	d.Methods[1].Args[0].Name = "mutated"

	got, err := s.Lookup(ctx, d.Identity)
	require.NoError(t, err)
	assert.Equal(t, "key", got.Methods[1].Args[0].Name)

	got.Methods[0].Name = "mutated"
	again, err := s.Lookup(ctx, d.Identity)
	require.NoError(t, err)
	assert.Equal(t, "ping", again.Methods[0].Name)
}

func exactMatch(t *testing.T, s registry.Store) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, Descriptor("svc", 1, 2, 3)))
	require.NoError(t, s.Insert(ctx, Descriptor("svc-extra", 1, 2, 3)))
	for _, id := range []registry.Identity{
		{Name: "svc", Version: registry.Version{Major: 1, Minor: 2, Patch: 4}},
		{Name: "svc", Version: registry.Version{Major: 1, Minor: 2}},
		{Name: "sv", Version: registry.Version{Major: 1, Minor: 2, Patch: 3}},
		{Name: "SVC", Version: registry.Version{Major: 1, Minor: 2, Patch: 3}},
	} {
		_, err := s.Lookup(ctx, id)
		assert.True(t, errors.Is(err, registry.ErrNotFound), "%s: %v", id, err)
	}
}

func snapshot(t *testing.T, s registry.Store) {
	ctx := context.Background()
	all, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	var want []registry.Descriptor
	for i := 0; i < 12; i++ {
		d := Descriptor(fmt.Sprintf("svc-%02d", i), 1, uint64(i%3), uint64(i))
		want = append(want, d)
		require.NoError(t, s.Insert(ctx, d))
	}
	all, err = s.Snapshot(ctx)
	require.NoError(t, err)
	Sort(all)
	Sort(want)
	assert.Empty(t, cmp.Diff(want, all))
}

func concurrentInsert(t *testing.T, s registry.Store) {
	ctx := context.Background()
	d := Descriptor("race", 1, 0, 0)
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Insert(ctx, d)
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, registry.ErrDuplicate), "%v", err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func invalidDescriptor(t *testing.T, s registry.Store) {
	ctx := context.Background()
	noHost := Descriptor("bad", 1, 0, 0)
	noHost.Address.Host = ""
	noMethod := Descriptor("bad", 1, 0, 1)
	noMethod.Methods[0].Name = ""
	noArg := Descriptor("bad", 1, 0, 2)
	noArg.Methods[1].Args[1].Name = ""

	for _, d := range []registry.Descriptor{noHost, noMethod, noArg} {
		err := s.Insert(ctx, d)
		assert.True(t, errors.Is(err, registry.ErrInvalidDescriptor), "%s: %v", d.Identity, err)
		_, err = s.Lookup(ctx, d.Identity)
		assert.True(t, errors.Is(err, registry.ErrNotFound), "%s: %v", d.Identity, err)
	}
}

// Sort orders descriptors by identity.
func Sort(ds []registry.Descriptor) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Identity.String() < ds[j].Identity.String() })
}
