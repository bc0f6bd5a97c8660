package gorm

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"

	"github.com/go-slark/svcindex/registry"
	"gorm.io/gorm"
)

// Service is one row per identity. Methods are kept as a JSON document.
type Service struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement"`
	Name    string `gorm:"size:255;not null;uniqueIndex:uk_identity"`
	Major   uint64 `gorm:"not null;uniqueIndex:uk_identity"`
	Minor   uint64 `gorm:"not null;uniqueIndex:uk_identity"`
	Patch   uint64 `gorm:"not null;uniqueIndex:uk_identity"`
	Host    string `gorm:"size:255;not null"`
	Port    uint16 `gorm:"not null"`
	Methods []byte `gorm:"type:text;not null"`
}

func (Service) TableName() string {
	return "service"
}

func fromDescriptor(d registry.Descriptor) (*Service, error) {
	methods, err := json.Marshal(d.Methods)
	if err != nil {
		return nil, err
	}
	return &Service{
		Name:    d.Identity.Name,
		Major:   d.Identity.Version.Major,
		Minor:   d.Identity.Version.Minor,
		Patch:   d.Identity.Version.Patch,
		Host:    d.Address.Host,
		Port:    d.Address.Port,
		Methods: methods,
	}, nil
}

func (s *Service) descriptor() (registry.Descriptor, error) {
	d := registry.Descriptor{
		Identity: registry.Identity{Name: s.Name, Version: registry.Version{Major: s.Major, Minor: s.Minor, Patch: s.Patch}},
		Address:  registry.Endpoint{Host: s.Host, Port: s.Port},
	}
	if err := json.Unmarshal(s.Methods, &d.Methods); err != nil {
		return registry.Descriptor{}, err
	}
	return d, nil
}

// Store keeps descriptors in a relational table with a unique index on
// the identity columns.
type Store struct {
	db *gorm.DB
}

// NewStore migrates the service table.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Service{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func unavailable(err error) error {
	return registry.ErrStoreUnavailable.WithError(err)
}

func byIdentity(db *gorm.DB, id registry.Identity) *gorm.DB {
	return db.Where("name = ? AND major = ? AND minor = ? AND patch = ?", id.Name, id.Version.Major, id.Version.Minor, id.Version.Patch)
}

func (s *Store) Snapshot(ctx context.Context) ([]registry.Descriptor, error) {
	var rows []Service
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Order("id").Find(&rows).Error
	})
	if err != nil {
		return nil, unavailable(err)
	}
	out := make([]registry.Descriptor, 0, len(rows))
	for i := range rows {
		d, err := rows[i].descriptor()
		if err != nil {
			return nil, unavailable(err)
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *Store) Lookup(ctx context.Context, id registry.Identity) (registry.Descriptor, error) {
	row := &Service{}
	err := byIdentity(s.db.WithContext(ctx), id).Take(row).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return registry.Descriptor{}, registry.ErrNotFound
	}
	if err != nil {
		return registry.Descriptor{}, unavailable(err)
	}
	d, err := row.descriptor()
	if err != nil {
		return registry.Descriptor{}, unavailable(err)
	}
	// names compare byte-wise even on case-insensitive collations
	if d.Identity != id {
		return registry.Descriptor{}, registry.ErrNotFound
	}
	return d, nil
}

func (s *Store) Insert(ctx context.Context, d registry.Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	row, err := fromDescriptor(d)
	if err != nil {
		return unavailable(err)
	}
	err = s.db.WithContext(ctx).Create(row).Error
	if err == nil {
		return nil
	}
	if duplicate(err) {
		return registry.ErrDuplicate
	}
	return unavailable(err)
}

func (s *Store) Remove(ctx context.Context, id registry.Identity) error {
	res := byIdentity(s.db.WithContext(ctx), id).Delete(&Service{})
	if res.Error != nil {
		return unavailable(res.Error)
	}
	if res.RowsAffected == 0 {
		return registry.ErrNotFound
	}
	return nil
}

// duplicate recognises unique index violations from both mysql and sqlite.
func duplicate(err error) bool {
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate entry") || strings.Contains(msg, "UNIQUE constraint failed")
}
