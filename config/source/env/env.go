package env

import (
	"context"
	"os"
	"strings"

	"github.com/go-slark/svcindex/encoding"
	"github.com/go-slark/svcindex/encoding/json"
)

// Env reads variables carrying one of its prefixes. The rest of the name is
// lowercased and split on "__" into nested keys, so INDEX_HTTP__ADDR sets
// http.addr. Values stay strings.
type Env struct {
	prefix []string
	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Env)

func Prefix(prefix ...string) Option {
	return func(e *Env) {
		e.prefix = prefix
	}
}

func New(opts ...Option) *Env {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Env{
		prefix: []string{"INDEX_"},
		ctx:    ctx,
		cancel: cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Env) Load() ([]byte, error) {
	mp := make(map[string]any)
	for _, kv := range os.Environ() {
		key, value, _ := strings.Cut(kv, "=")
		prefix, ok := e.match(key)
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimPrefix(strings.TrimPrefix(key, prefix), "_"))
		if key == "" {
			continue
		}
		set(mp, strings.Split(key, "__"), value)
	}
	return encoding.GetCodec(json.Name).Marshal(mp)
}

func set(mp map[string]any, paths []string, value string) {
	for _, p := range paths[:len(paths)-1] {
		next, ok := mp[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			mp[p] = next
		}
		mp = next
	}
	mp[paths[len(paths)-1]] = value
}

func (e *Env) match(key string) (string, bool) {
	for _, prefix := range e.prefix {
		if strings.HasPrefix(key, prefix) {
			return prefix, true
		}
	}
	return "", false
}

// Watch never fires. The process environment is fixed once started.
func (e *Env) Watch() <-chan struct{} {
	return e.ctx.Done()
}

func (e *Env) Close() error {
	e.cancel()
	return nil
}

func (e *Env) Format() string {
	return json.Name
}
