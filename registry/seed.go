package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-slark/svcindex/encoding"
	_ "github.com/go-slark/svcindex/encoding/json"
	_ "github.com/go-slark/svcindex/encoding/toml"
	"github.com/go-slark/svcindex/encoding/yaml"
)

// Bootstrap is the demonstration entry every fresh index can be seeded with.
func Bootstrap() Descriptor {
	return Descriptor{
		Identity: Identity{Name: "database", Version: Version{Major: 0, Minor: 1, Patch: 0}},
		Address:  Endpoint{Host: "127.0.0.1", Port: 1234},
		Methods: []Method{
			{
				Name:    "get_user",
				Args:    []Argument{{Name: "id", Type: "u64"}},
				Returns: "u64",
			},
		},
	}
}

// Seed inserts ds in order through the ordinary insert path.
func Seed(ctx context.Context, store Store, ds ...Descriptor) error {
	for _, d := range ds {
		if err := store.Insert(ctx, d); err != nil {
			return fmt.Errorf("seed %s: %w", d.Identity, err)
		}
	}
	return nil
}

type seedFile struct {
	Services []Descriptor `json:"services" yaml:"services" toml:"services"`
}

// LoadSeed reads descriptors from a json, yaml or toml file, chosen by
// extension.
func LoadSeed(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "yml" {
		format = yaml.Name
	}
	codec := encoding.GetCodec(format)
	if codec == nil {
		return nil, fmt.Errorf("seed %s: unsupported format %q", path, format)
	}
	sf := seedFile{}
	if err = codec.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("seed %s: %w", path, err)
	}
	for _, d := range sf.Services {
		if err = d.Validate(); err != nil {
			return nil, fmt.Errorf("seed %s: %w", path, err)
		}
	}
	return sf.Services, nil
}
