package limiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// TBLimiter is a token bucket shared by every index replica through redis.
// While redis is unreachable it falls back to a local bucket and probes
// redis in the background until it answers again.
type TBLimiter struct {
	rate     int
	burst    int
	redis    redis.UniversalClient
	alive    atomic.Bool
	l        sync.Mutex
	tokenKey string
	tsKey    string
	monitor  bool
	limiter  *rate.Limiter
	stop     chan struct{}
	once     sync.Once
}

func NewTBLimiter(limit, burst int, client redis.UniversalClient, key string) *TBLimiter {
	l := &TBLimiter{
		rate:     limit,
		burst:    burst,
		redis:    client,
		tokenKey: fmt.Sprintf("token_bucket:key:%s:tokens", key),
		tsKey:    fmt.Sprintf("token_bucket:key:%s:ts", key),
		limiter:  rate.NewLimiter(rate.Every(time.Second/time.Duration(limit)), burst),
		stop:     make(chan struct{}),
	}
	l.alive.Store(true)
	return l
}

func (l *TBLimiter) Allow(ctx context.Context) bool {
	return l.AllowN(ctx, time.Now(), 1)
}

// the script returns nil (redis.Nil) when the request is denied
var tokenScript = redis.NewScript(`
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local requested = tonumber(ARGV[4])
local fill_time = capacity/rate
local ttl = math.floor(fill_time*2)
if ttl < 1 then
	ttl = 1
end
local last_tokens = tonumber(redis.call("get", KEYS[1]))
if last_tokens == nil then
	last_tokens = capacity
end

local last_refreshed = tonumber(redis.call("get", KEYS[2]))
if last_refreshed == nil then
	last_refreshed = 0
end

local delta = math.max(0, now-last_refreshed)
local filled_tokens = math.min(capacity, last_tokens+(delta*rate))
local allowed = filled_tokens >= requested
local new_tokens = filled_tokens
if allowed then
	new_tokens = filled_tokens - requested
end

redis.call("setex", KEYS[1], ttl, new_tokens)
redis.call("setex", KEYS[2], ttl, now)

return allowed
`)

func (l *TBLimiter) AllowN(ctx context.Context, now time.Time, n int) bool {
	if !l.alive.Load() {
		return l.limiter.AllowN(now, n)
	}

	keys := []string{l.tokenKey, l.tsKey}
	args := []interface{}{
		strconv.Itoa(l.rate),
		strconv.Itoa(l.burst),
		strconv.FormatInt(now.Unix(), 10),
		strconv.Itoa(n),
	}
	result, err := tokenScript.Run(ctx, l.redis, keys, args...).Result()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	if err != nil {
		l.startMonitor()
		return l.limiter.AllowN(now, n)
	}

	code, ok := result.(int64)
	if !ok {
		l.startMonitor()
		return l.limiter.AllowN(now, n)
	}
	return code == 1
}

// Stop ends the background redis probe, if one is running.
func (l *TBLimiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

func (l *TBLimiter) startMonitor() {
	l.l.Lock()
	defer l.l.Unlock()

	if l.monitor {
		return
	}
	l.monitor = true
	l.alive.Store(false)
	go l.waitForRedis()
}

func (l *TBLimiter) waitForRedis() {
	tk := time.NewTicker(100 * time.Millisecond)
	defer func() {
		tk.Stop()
		l.l.Lock()
		l.monitor = false
		l.l.Unlock()
	}()

	for {
		select {
		case <-l.stop:
			return
		case <-tk.C:
			if result, err := l.redis.Ping(context.Background()).Result(); err == nil && result == "PONG" {
				l.alive.Store(true)
				return
			}
		}
	}
}
