// Package cache stores serialized API responses keyed by versioned request keys.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented response cache. A zero TTL keeps the entry until it
// is deleted.
type Cache interface {
	// Get returns the cached value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeletePrefix removes every key starting with prefix and returns how many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
	Close() error
}

// Noop is a Cache that stores nothing.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Noop) Delete(context.Context, ...string) error                  { return nil }
func (Noop) DeletePrefix(context.Context, string) (int, error)        { return 0, nil }
func (Noop) Close() error                                             { return nil }
