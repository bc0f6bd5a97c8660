package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Address         string        `json:"address"`
	Password        string        `json:"password"`
	DB              int           `json:"db"`
	DialTimeout     time.Duration `json:"dial_timeout"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	PoolTimeout     time.Duration `json:"pool_timeout"`
	MaxRetry        int           `json:"max_retry"`
	PoolSize        int           `json:"pool_size"`
	MinIdleConns    int           `json:"min_idle_conns"`
	MaxRetryBackoff time.Duration `json:"max_retry_backoff"`
	Tracing         bool          `json:"tracing"`
}

type Client struct {
	*redis.Client
}

// NewClient dials and pings. Zero durations and sizes keep the go-redis
// defaults.
func NewClient(ctx context.Context, c *Config) (*Client, error) {
	options := &redis.Options{
		Network:         "tcp",
		Addr:            c.Address,
		Password:        c.Password,
		DB:              c.DB,
		DialTimeout:     c.DialTimeout,
		ReadTimeout:     c.ReadTimeout,
		WriteTimeout:    c.WriteTimeout,
		PoolTimeout:     c.PoolTimeout,
		MaxRetries:      c.MaxRetry,
		PoolSize:        c.PoolSize,
		MinIdleConns:    c.MinIdleConns,
		MaxRetryBackoff: c.MaxRetryBackoff,
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	if c.Tracing {
		if err := redisotel.InstrumentTracing(client); err != nil {
			_ = client.Close()
			return nil, err
		}
	}
	return &Client{Client: client}, nil
}
