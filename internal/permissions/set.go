// Package permissions evaluates the caller's permission keys. It only gates
// rendering; the backend remains the authority.
package permissions

import (
	"context"
	"sort"
	"strings"
)

// Set is an immutable set of permission keys such as "customers.edit".
// The nil Set is valid and denies everything.
type Set struct {
	keys map[string]struct{}
}

// NewSet normalises keys into a Set.
func NewSet(keys ...string) *Set {
	s := &Set{keys: make(map[string]struct{}, len(keys))}
	for _, k := range keys {
		k = normalize(k)
		if k == "" {
			continue
		}
		s.keys[k] = struct{}{}
	}
	return s
}

// Has reports whether key is granted.
func (s *Set) Has(key string) bool {
	if s == nil {
		return false
	}
	_, ok := s.keys[normalize(key)]
	return ok
}

// HasAll reports whether every key is granted. An empty request is granted.
func (s *Set) HasAll(keys ...string) bool {
	for _, k := range keys {
		if !s.Has(k) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one key is granted.
func (s *Set) HasAny(keys ...string) bool {
	for _, k := range keys {
		if s.Has(k) {
			return true
		}
	}
	return false
}

// Len returns the number of granted keys.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Keys returns the granted keys sorted.
func (s *Set) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.keys))
	for k := range s.keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

type contextKey struct{}

// WithSet stores s in ctx.
func WithSet(ctx context.Context, s *Set) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the request's Set, or nil when none was loaded.
func FromContext(ctx context.Context) *Set {
	s, _ := ctx.Value(contextKey{}).(*Set)
	return s
}
