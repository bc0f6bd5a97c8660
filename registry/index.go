package registry

import (
	"context"
	"fmt"

	"github.com/go-slark/svcindex/errors"
	"github.com/go-slark/svcindex/logger"
)

// Index validates raw caller input, runs it against a Store and maps every
// store outcome onto the index error taxonomy. Each call is a single attempt
// against the current store state.
type Index struct {
	store  Store
	logger logger.Logger
}

type Option func(*Index)

func WithLogger(l logger.Logger) Option {
	return func(i *Index) {
		i.logger = l
	}
}

func NewIndex(store Store, opts ...Option) *Index {
	i := &Index{
		store:  store,
		logger: logger.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Index) List(ctx context.Context) ([]Descriptor, error) {
	ds, err := i.store.Snapshot(ctx)
	if err != nil {
		return nil, i.classify(ctx, "list", Identity{}, err)
	}
	if ds == nil {
		ds = []Descriptor{}
	}
	return ds, nil
}

func (i *Index) Get(ctx context.Context, name, version string) (Descriptor, error) {
	id, err := ParseIdentity(name, version)
	if err != nil {
		return Descriptor{}, err
	}
	d, err := i.store.Lookup(ctx, id)
	if err != nil {
		return Descriptor{}, i.classify(ctx, "get", id, err)
	}
	return d, nil
}

func (i *Index) Register(ctx context.Context, d Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if err := i.store.Insert(ctx, d); err != nil {
		return i.classify(ctx, "register", d.Identity, err)
	}
	i.logger.Log(ctx, logger.InfoLevel, logger.Fields(logger.Service(d.Identity.Name, d.Identity.Version.String()),
		logger.Field{Key: "address", Value: d.Address.String()}), "service registered")
	return nil
}

func (i *Index) Deregister(ctx context.Context, name, version string) error {
	id, err := ParseIdentity(name, version)
	if err != nil {
		return err
	}
	if err = i.store.Remove(ctx, id); err != nil {
		return i.classify(ctx, "deregister", id, err)
	}
	i.logger.Log(ctx, logger.InfoLevel, logger.Fields(logger.Service(id.Name, id.Version.String())), "service deregistered")
	return nil
}

func (i *Index) classify(ctx context.Context, op string, id Identity, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrServiceNotFound.WithMessage(fmt.Sprintf("service %s not found", id))
	case errors.Is(err, ErrDuplicate):
		return ErrServiceExists.WithMessage(fmt.Sprintf("service %s already registered", id))
	case errors.Is(err, ErrMalformedVersion), errors.Is(err, ErrInvalidIdentity), errors.Is(err, ErrInvalidDescriptor):
		return err
	}
	i.logger.Log(ctx, logger.ErrorLevel, logger.Fields(logger.Operation(op), logger.Error(err)), "registry store unavailable")
	return ErrUnavailable.WithError(err)
}
