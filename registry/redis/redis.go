package redis

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/go-slark/svcindex/registry"
	"github.com/redis/go-redis/v9"
)

// Store keeps every descriptor of a namespace in one hash, one field per
// identity. HGETALL gives Snapshot a single point in time.
type Store struct {
	client redis.UniversalClient
	key    string
}

type Option func(*Store)

// Namespace names the hash holding the descriptors.
func Namespace(ns string) Option {
	return func(s *Store) {
		s.key = ns
	}
}

func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		key:    "svcindex:services",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func unavailable(err error) error {
	return registry.ErrStoreUnavailable.WithError(err)
}

func decode(value string) (registry.Descriptor, error) {
	d := registry.Descriptor{}
	if err := json.Unmarshal([]byte(value), &d); err != nil {
		return registry.Descriptor{}, unavailable(err)
	}
	return d, nil
}

func (s *Store) Snapshot(ctx context.Context) ([]registry.Descriptor, error) {
	all, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, unavailable(err)
	}
	out := make([]registry.Descriptor, 0, len(all))
	for _, value := range all {
		d, err := decode(value)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) Lookup(ctx context.Context, id registry.Identity) (registry.Descriptor, error) {
	value, err := s.client.HGet(ctx, s.key, id.String()).Result()
	if stderrors.Is(err, redis.Nil) {
		return registry.Descriptor{}, registry.ErrNotFound
	}
	if err != nil {
		return registry.Descriptor{}, unavailable(err)
	}
	return decode(value)
}

func (s *Store) Insert(ctx context.Context, d registry.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	value, err := json.Marshal(d)
	if err != nil {
		return unavailable(err)
	}
	ok, err := s.client.HSetNX(ctx, s.key, d.Identity.String(), value).Result()
	if err != nil {
		return unavailable(err)
	}
	if !ok {
		return registry.ErrDuplicate
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, id registry.Identity) error {
	n, err := s.client.HDel(ctx, s.key, id.String()).Result()
	if err != nil {
		return unavailable(err)
	}
	if n == 0 {
		return registry.ErrNotFound
	}
	return nil
}
