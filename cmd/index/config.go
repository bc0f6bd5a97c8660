package main

import (
	"time"

	"github.com/go-slark/svcindex/config"
	"github.com/go-slark/svcindex/config/source/env"
	"github.com/go-slark/svcindex/config/source/file"
	"github.com/go-slark/svcindex/infra/db"
	"github.com/go-slark/svcindex/infra/etcd"
	"github.com/go-slark/svcindex/infra/mongo"
	"github.com/go-slark/svcindex/infra/redis"
)

type HTTPConfig struct {
	Addr         string        `json:"addr"`
	BasePath     string        `json:"base_path"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	StopTimeout  time.Duration `json:"stop_timeout"`
	Metrics      string        `json:"metrics"` // path on the API port, empty to disable
	CORS         []string      `json:"cors"`    // allowed origins
	RateLimit    float64       `json:"rate_limit"`
	Burst        int           `json:"burst"`
	Shedding     int64         `json:"shedding"`   // cpu threshold in millicpu, 0 disables
	RequestID    string        `json:"request_id"` // uuid, xid or snowflake
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json or text
	Caller bool   `json:"caller"`
}

type TraceConfig struct {
	Enabled bool    `json:"enabled"`
	Ratio   float64 `json:"ratio"`
	Stdout  bool    `json:"stdout"`
}

type StoreConfig struct {
	Kind       string        `json:"kind"` // memory, gorm, etcd, redis or mongo
	Namespace  string        `json:"namespace"`
	TTL        int64         `json:"ttl"` // etcd lease seconds
	Collection string        `json:"collection"`
	DB         db.Config     `json:"db"`
	Etcd       etcd.Config   `json:"etcd"`
	Redis      redis.Config  `json:"redis"`
	Mongo      mongo.Config  `json:"mongo"`
	Timeout    time.Duration `json:"timeout"`

	// Cache puts a redis lookup cache, on the redis settings above, in
	// front of the store. Zero disables it.
	Cache time.Duration `json:"cache"`
}

type SeedConfig struct {
	Bootstrap bool   `json:"bootstrap"`
	File      string `json:"file"`
}

type Config struct {
	Name  string      `json:"name"`
	HTTP  HTTPConfig  `json:"http"`
	Pprof string      `json:"pprof"` // side listener for pprof and metrics
	Log   LogConfig   `json:"log"`
	Trace TraceConfig `json:"trace"`
	Store StoreConfig `json:"store"`
	Seed  SeedConfig  `json:"seed"`
}

func defaultConfig() *Config {
	return &Config{
		Name: "svcindex",
		HTTP: HTTPConfig{
			Addr:        ":8000",
			BasePath:    "/",
			StopTimeout: 5 * time.Second,
			Metrics:     "/metrics",
			RateLimit:   1000,
			Burst:       2000,
		},
		Log:   LogConfig{Level: "info", Format: "json"},
		Trace: TraceConfig{Ratio: 1},
		Store: StoreConfig{
			Kind:       "memory",
			Namespace:  "svcindex",
			Collection: "services",
			Timeout:    5 * time.Second,
		},
		Seed: SeedConfig{Bootstrap: true},
	}
}

// loadConfig layers the environment (INDEX_*) over the file, when one is
// given, over the defaults.
func loadConfig(path string) (*config.Config, *Config, error) {
	srcs := make([]config.Source, 0, 2)
	if path != "" {
		srcs = append(srcs, file.NewFile(path))
	}
	srcs = append(srcs, env.New())
	c := config.New(config.WithSource(srcs...))
	if err := c.Load(); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	cfg := defaultConfig()
	if err := c.Unmarshal(cfg); err != nil {
		_ = c.Close()
		return nil, nil, err
	}
	return c, cfg, nil
}
