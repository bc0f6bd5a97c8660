package config

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-slark/svcindex/encoding"
	_ "github.com/go-slark/svcindex/encoding/json"
	_ "github.com/go-slark/svcindex/encoding/toml"
	_ "github.com/go-slark/svcindex/encoding/yaml"
	"github.com/go-slark/svcindex/logger"
	"github.com/go-slark/svcindex/pkg/routine"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// Config merges its sources in order into one tree. A change in any source
// reloads all of them and fires the watchers of every changed key.
type Config struct {
	mu        sync.RWMutex
	values    map[string]any
	watchers  map[string][]func(*Config)
	srcs      []Source
	delimiter string
	logger    logger.Logger
}

type Option func(*Config)

func WithSource(srcs ...Source) Option {
	return func(c *Config) {
		c.srcs = append(c.srcs, srcs...)
	}
}

func WithDelimiter(delimiter string) Option {
	return func(c *Config) {
		c.delimiter = delimiter
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Config) {
		c.logger = l
	}
}

func New(opts ...Option) *Config {
	c := &Config{
		values:    make(map[string]any),
		watchers:  make(map[string][]func(*Config)),
		delimiter: ".",
		logger:    logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads every source once and then follows their changes in the
// background until Close.
func (c *Config) Load() error {
	values, err := c.read()
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.values = values
	c.mu.Unlock()

	for _, src := range c.srcs {
		src := src
		routine.GoSafe(context.TODO(), func() {
			for range src.Watch() {
				c.reload()
			}
		})
	}
	return nil
}

func (c *Config) read() (map[string]any, error) {
	values := make(map[string]any)
	for _, src := range c.srcs {
		data, err := src.Load()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}
		codec := encoding.GetCodec(src.Format())
		if codec == nil {
			return nil, fmt.Errorf("config: no codec for format %q", src.Format())
		}
		layer := make(map[string]any)
		if err = codec.Unmarshal(data, &layer); err != nil {
			return nil, errors.Wrapf(err, "config: decode %s", src.Format())
		}
		merge(values, normalize(layer).(map[string]any))
	}
	return values, nil
}

func (c *Config) reload() {
	values, err := c.read()
	if err != nil {
		c.logger.Log(context.TODO(), logger.ErrorLevel, map[string]interface{}{"error": err}, "config reload")
		return
	}
	c.mu.Lock()
	keys := changed(flatten(c.values, "", c.delimiter, nil), flatten(values, "", c.delimiter, nil))
	c.values = values
	var handlers []func(*Config)
	for prefix, fns := range c.watchers {
		for _, key := range keys {
			if matches(key, prefix, c.delimiter) {
				handlers = append(handlers, fns...)
				break
			}
		}
	}
	c.mu.Unlock()

	if len(keys) > 0 {
		c.logger.Log(context.TODO(), logger.InfoLevel, map[string]interface{}{"keys": keys}, "config changed")
	}
	for _, handle := range handlers {
		handle := handle
		routine.GoSafe(context.TODO(), func() { handle(c) })
	}
}

// Watch calls fn after a reload changed prefix itself or any key below it.
// An empty prefix watches everything.
func (c *Config) Watch(prefix string, fn func(*Config)) {
	c.mu.Lock()
	c.watchers[prefix] = append(c.watchers[prefix], fn)
	c.mu.Unlock()
}

// Get returns nil when key is absent.
func (c *Config) Get(key string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if key == "" {
		return c.values
	}
	v, _ := lookup(c.values, strings.Split(key, c.delimiter))
	return v
}

func (c *Config) GetString(key string) string {
	return cast.ToString(c.Get(key))
}

func (c *Config) GetInt(key string) int {
	return cast.ToInt(c.Get(key))
}

func (c *Config) GetBool(key string) bool {
	return cast.ToBool(c.Get(key))
}

func (c *Config) GetDuration(key string) time.Duration {
	return cast.ToDuration(c.Get(key))
}

// Unmarshal decodes the subtree at key, or the whole tree, into v using its
// json tags. Strings convert to numbers, bools and durations.
func (c *Config) Unmarshal(v any, key ...string) error {
	var input any
	if len(key) == 0 {
		input = c.Get("")
	} else {
		input = c.Get(key[0])
	}
	if input == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           v,
		TagName:          "json",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return dec.Decode(input)
}

func (c *Config) Close() error {
	var err error
	for _, src := range c.srcs {
		if e := src.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
