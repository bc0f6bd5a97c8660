package uid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	build, err := Builder("")
	require.NoError(t, err)
	_, err = uuid.Parse(build())
	assert.NoError(t, err)

	build, err = Builder(XID)
	require.NoError(t, err)
	_, err = xid.FromString(build())
	assert.NoError(t, err)

	build, err = Builder(Snowflake)
	require.NoError(t, err)
	a, b := build(), build()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)

	_, err = Builder("ulid")
	assert.Error(t, err)
}

func TestNodeRange(t *testing.T) {
	_, err := NewNode(1023)
	assert.NoError(t, err)
	_, err = NewNode(1024)
	assert.Error(t, err)
	id := centerID() | workID()
	assert.True(t, id >= 0 && id < 1024)
}
