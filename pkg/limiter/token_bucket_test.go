package limiter

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestLocal(t *testing.T) {
	l := NewLocal(1, 3)
	allowed := 0
	for i := 0; i < 10; i++ {
		if l.Allow(context.Background()) {
			allowed++
		}
	}
	assert.Equal(t, 3, allowed)
}

func TestTBLimiterFallsBackWhenRedisIsDown(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer client.Close()
	l := NewTBLimiter(1, 2, client, "fallback")
	defer l.Stop()

	allowed := 0
	for i := 0; i < 5; i++ {
		if l.Allow(context.Background()) {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)
	assert.False(t, l.alive.Load())
}

func TestTBLimiter(t *testing.T) {
	addr := os.Getenv("INDEX_TEST_REDIS")
	if addr == "" {
		t.Skip("INDEX_TEST_REDIS not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	key := "test-" + time.Now().Format("150405.000000")
	l := NewTBLimiter(5, 10, client, key)
	defer l.Stop()

	allowed := 0
	for i := 0; i < 30; i++ {
		if l.Allow(context.Background()) {
			allowed++
		}
	}
	assert.True(t, allowed >= 10 && allowed < 30, allowed)
}
