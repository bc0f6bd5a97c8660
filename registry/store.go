package registry

import (
	"context"
	"fmt"
	"sync"
)

// Store holds at most one Descriptor per Identity. Every Descriptor handed
// out is a copy. Implementations report backend failures as
// ErrStoreUnavailable.
type Store interface {
	// Snapshot returns every stored descriptor as of a single instant, in no
	// particular order.
	Snapshot(ctx context.Context) ([]Descriptor, error)
	// Lookup is an exact match on identity; ErrNotFound when absent.
	Lookup(ctx context.Context, id Identity) (Descriptor, error)
	// Insert fails with ErrDuplicate when the identity is already stored.
	Insert(ctx context.Context, d Descriptor) error
	// Remove fails with ErrNotFound when the identity is absent.
	Remove(ctx context.Context, id Identity) error
}

// MemoryStore guards one map with one mutex. Readers and writers take the
// same lock, so nobody ever sees a half written descriptor.
//
// A panic while the lock is held poisons the store: that call and every
// later call fail with ErrStoreUnavailable until the process restarts.
type MemoryStore struct {
	mu       sync.Mutex
	poisoned bool
	services map[Identity]Descriptor
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		services: make(map[Identity]Descriptor),
	}
}

func (s *MemoryStore) guard(fn func(services map[Identity]Descriptor) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.poisoned {
		return ErrStoreUnavailable.WithMessage("registry: store guard poisoned")
	}
	defer func() {
		if r := recover(); r != nil {
			s.poisoned = true
			err = ErrStoreUnavailable.WithMessage("registry: store guard poisoned").WithError(fmt.Errorf("holder panicked: %v", r))
		}
	}()
	return fn(s.services)
}

func (s *MemoryStore) Snapshot(_ context.Context) ([]Descriptor, error) {
	var out []Descriptor
	err := s.guard(func(services map[Identity]Descriptor) error {
		out = make([]Descriptor, 0, len(services))
		for _, d := range services {
			out = append(out, d.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MemoryStore) Lookup(_ context.Context, id Identity) (Descriptor, error) {
	var out Descriptor
	err := s.guard(func(services map[Identity]Descriptor) error {
		d, ok := services[id]
		if !ok {
			return ErrNotFound
		}
		out = d.Clone()
		return nil
	})
	return out, err
}

func (s *MemoryStore) Insert(_ context.Context, d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	d = d.Clone()
	return s.guard(func(services map[Identity]Descriptor) error {
		if _, ok := services[d.Identity]; ok {
			return ErrDuplicate
		}
		services[d.Identity] = d
		return nil
	})
}

func (s *MemoryStore) Remove(_ context.Context, id Identity) error {
	return s.guard(func(services map[Identity]Descriptor) error {
		if _, ok := services[id]; !ok {
			return ErrNotFound
		}
		delete(services, id)
		return nil
	})
}

// Poisoned reports whether a previous holder of the guard panicked.
func (s *MemoryStore) Poisoned() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.poisoned
}
