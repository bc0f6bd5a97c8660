package retry

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/go-slark/svcindex/logger"
)

type Func func(int, *Option) time.Duration

// Option describes one retry policy. Nothing in the index retries on its
// own; callers build an Option and call Retry explicitly.
type Option struct {
	retry     int
	backoff   int
	delay     time.Duration
	maxDelay  time.Duration
	maxJitter time.Duration
	f         Func
	retryable func(error) bool
	timer     func(time.Duration) <-chan time.Time
	debug     bool
}

func NewOption(opts ...Opt) *Option {
	o := &Option{
		retry:     3,
		delay:     100 * time.Millisecond,
		maxJitter: 100 * time.Millisecond,
		f:         BackOff,
		retryable: func(error) bool { return true },
		timer:     time.After,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type Opt func(*Option)

// Retry sets the total number of attempts, first one included.
func Retry(retry int) Opt {
	return func(o *Option) {
		if retry > 0 {
			o.retry = retry
		}
	}
}

func Delay(delay time.Duration) Opt {
	return func(o *Option) {
		o.delay = delay
	}
}

func MaxDelay(maxDelay time.Duration) Opt {
	return func(o *Option) {
		o.maxDelay = maxDelay
	}
}

func MaxJitter(maxJitter time.Duration) Opt {
	return func(o *Option) {
		o.maxJitter = maxJitter
	}
}

func Function(f Func) Opt {
	return func(o *Option) {
		o.f = f
	}
}

// Retryable limits retries to errors for which fn reports true.
func Retryable(fn func(error) bool) Opt {
	return func(o *Option) {
		o.retryable = fn
	}
}

func Debug(debug bool) Opt {
	return func(o *Option) {
		o.debug = debug
	}
}

func Timer(timer func(d time.Duration) <-chan time.Time) Opt {
	return func(o *Option) {
		o.timer = timer
	}
}

func BackOff(n int, o *Option) time.Duration {
	// 1 << 63 would overflow signed int64 (time.Duration), thus 62.
	max := 62
	if o.backoff == 0 {
		if o.delay <= 0 {
			o.delay = 1
		}
		o.backoff = max - int(math.Floor(math.Log2(float64(o.delay))))
	}
	if n > o.backoff {
		n = o.backoff
	}
	return o.delay << n
}

func Fixed(_ int, o *Option) time.Duration {
	return o.delay
}

func Random(_ int, o *Option) time.Duration {
	if o.maxJitter <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(o.maxJitter)))
}

func Group(fs ...Func) Func {
	return func(n int, o *Option) time.Duration {
		var total time.Duration
		for _, f := range fs {
			d := f(n, o)
			if total > math.MaxInt64-d {
				return math.MaxInt64
			}
			total += d
		}
		return total
	}
}

// Retry calls fn until it succeeds, returns a non retryable error, the
// attempts run out or ctx is done. The last error from fn is returned.
func (o *Option) Retry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for n := 1; n <= o.retry; n++ {
		err = fn(ctx)
		if err == nil || !o.retryable(err) || n == o.retry {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-o.timer(o.wait(ctx, n)):
		}
	}
	return err
}

func (o *Option) wait(ctx context.Context, n int) time.Duration {
	d := o.f(n, o)
	if o.maxDelay > 0 && d > o.maxDelay {
		d = o.maxDelay
	}
	if o.debug {
		logger.Log(ctx, logger.DebugLevel, map[string]interface{}{"times": n, "delay_time": d, "max_delay": o.maxDelay}, "retrying")
	}
	return d
}
