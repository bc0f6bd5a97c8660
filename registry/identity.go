package registry

import (
	"fmt"
	"math"
	"strings"

	"github.com/coreos/go-semver/semver"
)

// Version is a plain major.minor.patch triple. Two versions are equal only
// when all three parts are equal; no compatibility rules apply.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
}

// ParseVersion accepts exactly three dot separated non-negative integers
// without leading zeros, each at most math.MaxInt64. Pre-release and build
// suffixes are rejected.
func ParseVersion(raw string) (Version, error) {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return Version{}, ErrMalformedVersion.WithMessage(fmt.Sprintf("malformed version %q", raw)).WithError(err)
	}
	if v.PreRelease != "" || v.Metadata != "" || v.Major < 0 || v.Minor < 0 || v.Patch < 0 {
		return Version{}, ErrMalformedVersion.WithMessage(fmt.Sprintf("malformed version %q", raw))
	}
	out := Version{Major: uint64(v.Major), Minor: uint64(v.Minor), Patch: uint64(v.Patch)}
	// leading zeros and signs parse, but are not the canonical spelling
	if out.String() != raw {
		return Version{}, ErrMalformedVersion.WithMessage(fmt.Sprintf("malformed version %q", raw))
	}
	return out, nil
}

// Validate rejects parts above math.MaxInt64, which ParseVersion can never
// produce and Get could therefore never address.
func (v Version) Validate() error {
	if v.Major > math.MaxInt64 || v.Minor > math.MaxInt64 || v.Patch > math.MaxInt64 {
		return ErrMalformedVersion.WithMessage(fmt.Sprintf("version %s is out of range", v))
	}
	return nil
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Version) UnmarshalText(text []byte) error {
	parsed, err := ParseVersion(string(text))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Identity keys the registry. It is comparable, so it is used as a map key
// directly.
type Identity struct {
	Name    string  `json:"name" yaml:"name" toml:"name"`
	Version Version `json:"version" yaml:"version" toml:"version"`
}

func NewIdentity(name string, version Version) (Identity, error) {
	id := Identity{Name: name, Version: version}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// ParseIdentity parses the version before looking at the name, so a bad
// version always reports MalformedVersion.
func ParseIdentity(name, version string) (Identity, error) {
	v, err := ParseVersion(version)
	if err != nil {
		return Identity{}, err
	}
	return NewIdentity(name, v)
}

func (id Identity) Validate() error {
	switch {
	case id.Name == "":
		return ErrInvalidIdentity.WithMessage("service name is empty")
	case strings.TrimSpace(id.Name) != id.Name:
		return ErrInvalidIdentity.WithMessage(fmt.Sprintf("service name %q has surrounding whitespace", id.Name))
	case strings.ContainsAny(id.Name, "/@"):
		return ErrInvalidIdentity.WithMessage(fmt.Sprintf("service name %q contains '/' or '@'", id.Name))
	}
	return id.Version.Validate()
}

// String renders name@version, which is also the key used by the
// remote stores.
func (id Identity) String() string {
	return id.Name + "@" + id.Version.String()
}
