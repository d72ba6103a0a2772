// Package artifact keeps generated export files until the client fetches
// them.
package artifact

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("artifact not found or expired")

// Artifact is a generated file.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

// Store holds artifacts for a limited time. Put returns the download key.
type Store interface {
	Put(ctx context.Context, a Artifact) (string, error)
	Get(ctx context.Context, key string) (Artifact, error)
	Close() error
}

// BackendType selects a Store implementation.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	RedisBackend  BackendType = "redis"
)

func (bt BackendType) IsValid() bool {
	return bt == MemoryBackend || bt == RedisBackend
}
