package config

import (
	"fmt"
	"reflect"
	"strings"
)

// normalize converts every nested map to map[string]any.
func normalize(v any) any {
	switch m := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(m))
		for k, vv := range m {
			out[k] = normalize(vv)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, vv := range m {
			out[fmt.Sprintf("%v", k)] = normalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(m))
		for i, vv := range m {
			out[i] = normalize(vv)
		}
		return out
	}
	return v
}

// merge copies src into dest. Nested maps merge key by key, anything else
// in src replaces what dest had.
func merge(dest, src map[string]any) {
	for sk, sv := range src {
		sm, sok := sv.(map[string]any)
		dm, dok := dest[sk].(map[string]any)
		if sok && dok {
			merge(dm, sm)
			continue
		}
		if sok {
			cp := make(map[string]any, len(sm))
			merge(cp, sm)
			dest[sk] = cp
			continue
		}
		dest[sk] = sv
	}
}

// lookup walks paths through nested maps.
func lookup(m map[string]any, paths []string) (any, bool) {
	var cur any = m
	for _, p := range paths {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = mm[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// flatten lists every leaf under its delimited key.
func flatten(src map[string]any, prefix, delimiter string, out map[string]any) map[string]any {
	if out == nil {
		out = make(map[string]any)
	}
	for k, v := range src {
		p := k
		if prefix != "" {
			p = prefix + delimiter + k
		}
		if m, ok := v.(map[string]any); ok && len(m) > 0 {
			flatten(m, p, delimiter, out)
			continue
		}
		out[p] = v
	}
	return out
}

// changed lists the keys whose leaf value differs between before and after.
func changed(before, after map[string]any) []string {
	var keys []string
	for k, v := range after {
		if old, ok := before[k]; !ok || !reflect.DeepEqual(old, v) {
			keys = append(keys, k)
		}
	}
	for k := range before {
		if _, ok := after[k]; !ok {
			keys = append(keys, k)
		}
	}
	return keys
}

func matches(key, prefix, delimiter string) bool {
	return prefix == "" || key == prefix || strings.HasPrefix(key, prefix+delimiter)
}
