package recovery

import (
	"context"
	"testing"

	"github.com/go-slark/svcindex/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	level  uint
	fields map[string]interface{}
}

type recorder struct{ entries []entry }

func (r *recorder) Log(_ context.Context, level uint, fields map[string]interface{}, _ ...interface{}) {
	r.entries = append(r.entries, entry{level: level, fields: fields})
}

func TestRecovery(t *testing.T) {
	rec := &recorder{}
	rsp, err := Recovery(rec)(func(ctx context.Context, req interface{}) (interface{}, error) {
		panic("6666")
	})(context.Background(), "$$$")

	assert.Nil(t, rsp)
	assert.Equal(t, 500, errors.Code(err))
	assert.Equal(t, errors.Panic, errors.Reason(err))
	require.Len(t, rec.entries, 1)
	assert.Equal(t, "6666", rec.entries[0].fields["error"])
	assert.Equal(t, "$$$", rec.entries[0].fields["req"])
	assert.Contains(t, rec.entries[0].fields["stack"], "recovery")
}

func TestRecoveryPassThrough(t *testing.T) {
	rec := &recorder{}
	rsp, err := Recovery(rec)(func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	})(context.Background(), nil)
	assert.NoError(t, err)
	assert.Equal(t, "ok", rsp)
	assert.Empty(t, rec.entries)
}
