package mongo

import (
	"context"
	stderrors "errors"

	"github.com/go-slark/svcindex/registry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type argument struct {
	Name string `bson:"name"`
	Type string `bson:"type"`
}

type method struct {
	Name    string     `bson:"name"`
	Args    []argument `bson:"args"`
	Returns string     `bson:"returning"`
}

// document is keyed by "<name>@<version>", so the _id index enforces one
// descriptor per identity.
type document struct {
	ID      string   `bson:"_id"`
	Name    string   `bson:"name"`
	Version string   `bson:"version"`
	Host    string   `bson:"host"`
	Port    int32    `bson:"port"`
	Methods []method `bson:"methods"`
}

func fromDescriptor(d registry.Descriptor) *document {
	doc := &document{
		ID:      d.Identity.String(),
		Name:    d.Identity.Name,
		Version: d.Identity.Version.String(),
		Host:    d.Address.Host,
		Port:    int32(d.Address.Port),
		Methods: make([]method, 0, len(d.Methods)),
	}
	for _, m := range d.Methods {
		mm := method{Name: m.Name, Returns: string(m.Returns), Args: make([]argument, 0, len(m.Args))}
		for _, a := range m.Args {
			mm.Args = append(mm.Args, argument{Name: a.Name, Type: string(a.Type)})
		}
		doc.Methods = append(doc.Methods, mm)
	}
	return doc
}

func (doc *document) descriptor() (registry.Descriptor, error) {
	version, err := registry.ParseVersion(doc.Version)
	if err != nil {
		return registry.Descriptor{}, unavailable(err)
	}
	d := registry.Descriptor{
		Identity: registry.Identity{Name: doc.Name, Version: version},
		Address:  registry.Endpoint{Host: doc.Host, Port: uint16(doc.Port)},
		Methods:  make([]registry.Method, 0, len(doc.Methods)),
	}
	for _, m := range doc.Methods {
		rm := registry.Method{Name: m.Name, Returns: registry.TypeTag(m.Returns), Args: make([]registry.Argument, 0, len(m.Args))}
		for _, a := range m.Args {
			rm.Args = append(rm.Args, registry.Argument{Name: a.Name, Type: registry.TypeTag(a.Type)})
		}
		d.Methods = append(d.Methods, rm)
	}
	return d, nil
}

type Store struct {
	coll *mongo.Collection
}

func New(coll *mongo.Collection) *Store {
	return &Store{coll: coll}
}

func unavailable(err error) error {
	return registry.ErrStoreUnavailable.WithError(err)
}

func (s *Store) Snapshot(ctx context.Context) ([]registry.Descriptor, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, unavailable(err)
	}
	var docs []document
	if err = cur.All(ctx, &docs); err != nil {
		return nil, unavailable(err)
	}
	out := make([]registry.Descriptor, 0, len(docs))
	for i := range docs {
		d, err := docs[i].descriptor()
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) Lookup(ctx context.Context, id registry.Identity) (registry.Descriptor, error) {
	doc := &document{}
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id.String()}}).Decode(doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return registry.Descriptor{}, registry.ErrNotFound
	}
	if err != nil {
		return registry.Descriptor{}, unavailable(err)
	}
	return doc.descriptor()
}

func (s *Store) Insert(ctx context.Context, d registry.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	_, err := s.coll.InsertOne(ctx, fromDescriptor(d))
	if mongo.IsDuplicateKeyError(err) {
		return registry.ErrDuplicate
	}
	if err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, id registry.Identity) error {
	rsp, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return unavailable(err)
	}
	if rsp.DeletedCount == 0 {
		return registry.ErrNotFound
	}
	return nil
}
