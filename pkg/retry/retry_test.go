package retry

import (
	"context"
	"testing"
	"time"

	"github.com/go-slark/svcindex/errors"
	"github.com/stretchr/testify/assert"
)

var errTemporary = errors.ServiceUnavailable("TEMPORARY", "try again")

// recordTimer fires immediately and remembers every requested delay.
func recordTimer(delays *[]time.Duration) Opt {
	return Timer(func(d time.Duration) <-chan time.Time {
		*delays = append(*delays, d)
		c := make(chan time.Time, 1)
		c <- time.Now()
		return c
	})
}

func TestBackoff(t *testing.T) {
	var delays []time.Duration
	opt := NewOption(Retry(5), recordTimer(&delays))
	calls := 0
	err := opt.Retry(context.Background(), func(context.Context) error {
		calls++
		return errTemporary
	})
	assert.True(t, errors.Is(err, errTemporary))
	assert.Equal(t, 5, calls)
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond, 1600 * time.Millisecond}, delays)
}

func TestBackoffWithMaxDelay(t *testing.T) {
	var delays []time.Duration
	opt := NewOption(Retry(5), MaxDelay(time.Second), recordTimer(&delays))
	_ = opt.Retry(context.Background(), func(context.Context) error { return errTemporary })
	assert.Equal(t, []time.Duration{200 * time.Millisecond, 400 * time.Millisecond, 800 * time.Millisecond, time.Second}, delays)
}

func TestGroupOfFuncs(t *testing.T) {
	var delays []time.Duration
	opt := NewOption(Retry(3), Function(Group(Fixed, BackOff)), recordTimer(&delays))
	_ = opt.Retry(context.Background(), func(context.Context) error { return errTemporary })
	assert.Equal(t, []time.Duration{300 * time.Millisecond, 500 * time.Millisecond}, delays)
}

func TestRandomWithinJitter(t *testing.T) {
	o := NewOption(MaxJitter(50 * time.Millisecond))
	for i := 0; i < 100; i++ {
		d := Random(i, o)
		assert.True(t, d >= 0 && d < 50*time.Millisecond, d)
	}
}

func TestStopsOnSuccessOrNonRetryable(t *testing.T) {
	var delays []time.Duration
	calls := 0
	opt := NewOption(Retry(5), recordTimer(&delays))
	err := opt.Retry(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return errTemporary
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)

	permanent := errors.NotFound("GONE", "gone")
	calls = 0
	opt = NewOption(Retry(5), recordTimer(&delays), Retryable(func(err error) bool { return errors.Is(err, errTemporary) }))
	err = opt.Retry(context.Background(), func(context.Context) error {
		calls++
		return permanent
	})
	assert.True(t, errors.Is(err, permanent))
	assert.Equal(t, 1, calls)
}

func TestStopsOnContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	opt := NewOption(Retry(5), Timer(func(time.Duration) <-chan time.Time { return nil }))
	err := opt.Retry(ctx, func(context.Context) error {
		calls++
		cancel()
		return errTemporary
	})
	assert.True(t, errors.Is(err, errTemporary))
	assert.Equal(t, 1, calls)
}
