package registry

import (
	"context"
	"encoding/json"
	"math"
	"testing"

	"github.com/go-slark/svcindex/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersion(t *testing.T) {
	good := map[string]Version{
		"0.1.0":       {0, 1, 0},
		"1.2.3":       {1, 2, 3},
		"10.200.3000": {10, 200, 3000},
	}
	for raw, want := range good {
		got, err := ParseVersion(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
		assert.Equal(t, raw, got.String())
	}

	bad := []string{"", "abc", "1", "1.2", "1.2.3.4", "-1.2.3", "1.-2.3", "1.2.x", "v1.2.3", " 1.2.3", "1.2.3-beta", "1.2.3+build", "1..3", "01.2.3", "1.02.3", "1.2.00"}
	for _, raw := range bad {
		_, err := ParseVersion(raw)
		require.Error(t, err, raw)
		assert.True(t, errors.Is(err, ErrMalformedVersion), raw)
	}
}

func TestVersionRange(t *testing.T) {
	got, err := ParseVersion("9223372036854775807.0.0")
	require.NoError(t, err)
	assert.Equal(t, Version{Major: math.MaxInt64}, got)

	_, err = ParseVersion("9223372036854775808.0.0")
	assert.True(t, errors.Is(err, ErrMalformedVersion))

	// a version Get could never address is never stored
	_, err = NewIdentity("svc", Version{Major: 1 << 63})
	assert.True(t, errors.Is(err, ErrMalformedVersion))
	d := Bootstrap()
	d.Identity.Version = Version{Patch: math.MaxUint64}
	err = NewMemoryStore().Insert(context.Background(), d)
	assert.True(t, errors.Is(err, ErrMalformedVersion))
}

func TestVersionText(t *testing.T) {
	id := Identity{Name: "database", Version: Version{0, 1, 0}}
	data, err := json.Marshal(id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"database","version":"0.1.0"}`, string(data))

	var back Identity
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, id, back)

	err = json.Unmarshal([]byte(`{"name":"database","version":"zero"}`), &back)
	assert.True(t, errors.Is(err, ErrMalformedVersion))
}

func TestIdentity(t *testing.T) {
	id, err := NewIdentity("svc", Version{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, "svc@1.2.3", id.String())

	same, _ := NewIdentity("svc", Version{1, 2, 3})
	other, _ := NewIdentity("svc", Version{1, 2, 4})
	assert.True(t, id == same)
	assert.False(t, id == other)

	for _, name := range []string{"", " svc", "svc\n", "a/b", "a@b"} {
		_, err = NewIdentity(name, Version{1, 0, 0})
		assert.True(t, errors.Is(err, ErrInvalidIdentity), "%q", name)
	}
}

func TestParseIdentityVersionFirst(t *testing.T) {
	_, err := ParseIdentity("", "abc")
	assert.True(t, errors.Is(err, ErrMalformedVersion))

	_, err = ParseIdentity("", "1.0.0")
	assert.True(t, errors.Is(err, ErrInvalidIdentity))
}
