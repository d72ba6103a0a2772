// Package kv provides the small string key-value store that backs local
// expense persistence and the session state.
package kv

import (
	"context"
	"time"
)

// Store is a flat string key-value store. A zero ttl means the entry never
// expires.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error

	Close() error
}

// BackendType selects a Store implementation.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
	RedisBackend  BackendType = "redis"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend, RedisBackend:
		return true
	default:
		return false
	}
}

// BackendTypes returns all valid backend types.
func BackendTypes() []BackendType {
	return []BackendType{SQLiteBackend, MemoryBackend, RedisBackend}
}
