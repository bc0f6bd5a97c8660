// Package cache puts a redis read-through cache in front of another store.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dtm-labs/rockscache"
	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/pkg/sf"
	"github.com/go-slark/svcindex/registry"
	"github.com/redis/go-redis/v9"
)

// Store caches Lookup results, misses included. Insert and Remove tag the
// cached entry as deleted after the backing store accepted the write, and
// strong consistency makes the next Lookup wait for the fresh value.
// Snapshot always reaches the backing store.
type Store struct {
	registry.Store
	rocks  *rockscache.Client
	sf     *sf.SingleFlight
	prefix string
	expire time.Duration
}

type Option func(*Store)

// Prefix is prepended to every cache key.
func Prefix(p string) Option {
	return func(s *Store) {
		s.prefix = p
	}
}

// Expire bounds how long a cached descriptor lives.
func Expire(d time.Duration) Option {
	return func(s *Store) {
		s.expire = d
	}
}

func New(next registry.Store, client *redis.Client, opts ...Option) *Store {
	s := &Store{
		Store:  next,
		sf:     sf.NewSingleFlight(),
		prefix: "svcindex:cache:",
		expire: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	o := rockscache.NewDefaultOptions()
	o.StrongConsistency = true
	s.rocks = rockscache.NewClient(client, o)
	return s
}

func (s *Store) key(id registry.Identity) string {
	return s.prefix + id.String()
}

func unavailable(err error) error {
	if errors.Is(err, registry.ErrStoreUnavailable) {
		return err
	}
	return registry.ErrStoreUnavailable.WithError(err)
}

func (s *Store) Lookup(ctx context.Context, id registry.Identity) (registry.Descriptor, error) {
	key := s.key(id)
	data, err := s.sf.Do(key, func() (any, error) {
		return s.rocks.Fetch2(ctx, key, s.expire, func() (string, error) {
			d, err := s.Store.Lookup(ctx, id)
			if errors.Is(err, registry.ErrNotFound) {
				return "", nil
			}
			if err != nil {
				return "", err
			}
			value, err := json.Marshal(d)
			return string(value), err
		})
	})
	if err != nil {
		return registry.Descriptor{}, unavailable(err)
	}
	value := data.(string)
	if value == "" {
		return registry.Descriptor{}, registry.ErrNotFound
	}
	d := registry.Descriptor{}
	if err = json.Unmarshal([]byte(value), &d); err != nil {
		return registry.Descriptor{}, unavailable(err)
	}
	return d, nil
}

func (s *Store) Insert(ctx context.Context, d registry.Descriptor) error {
	if err := s.Store.Insert(ctx, d); err != nil {
		return err
	}
	return s.invalidate(d.Identity)
}

func (s *Store) Remove(ctx context.Context, id registry.Identity) error {
	if err := s.Store.Remove(ctx, id); err != nil {
		return err
	}
	return s.invalidate(id)
}

func (s *Store) invalidate(id registry.Identity) error {
	if err := s.rocks.TagAsDeleted(s.key(id)); err != nil {
		return unavailable(err)
	}
	return nil
}
