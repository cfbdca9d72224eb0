// Package provider binds every requirement key to the function that fetches
// its current value.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/web3-frozen/anchor-autopilot/internal/requirement"
)

// ErrNoProvider is returned for a key nothing was registered for.
var ErrNoProvider = errors.New("no provider")

// Func fetches the current value of one key.
type Func func(ctx context.Context) (any, error)

// Registry maps keys to fetch functions. Registration happens at startup;
// Fetch is safe for concurrent use afterwards.
type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]Func)}
}

// Register binds key to fn, replacing an earlier binding.
func (r *Registry) Register(key string, fn Func) {
	r.funcs[key] = fn
}

// Fetch runs the function bound to key.
func (r *Registry) Fetch(ctx context.Context, key string) (any, error) {
	fn, ok := r.funcs[key]
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrNoProvider)
	}
	return fn(ctx)
}

// Keys returns the registered keys, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.funcs))
	for k := range r.funcs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Missing returns the catalog keys with no registered function, in catalog
// order.
func (r *Registry) Missing(catalog []requirement.Entry) []string {
	var out []string
	for _, e := range catalog {
		if _, ok := r.funcs[e.Key]; !ok {
			out = append(out, e.Key)
		}
	}
	return out
}
