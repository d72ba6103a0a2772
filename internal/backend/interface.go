package backend

import (
	"context"

	"github.com/ggonsajang/comcard/internal/kv"
	"github.com/ggonsajang/comcard/internal/store"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// BackendResult contains the wired stores and their cleanup function.
type BackendResult struct {
	// Expenses is the persistence gateway handed to the rest of the app.
	Expenses store.ExpenseStore
	// KV is the local key-value store, shared with the session state.
	KV kv.Store
	// Remote is true when Expenses talks to the remote database first.
	Remote bool
	// Pingers are the health checks of the opened connections.
	Pingers []Pinger
	Cleanup CleanupFunc
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Local key-value backend.
	KVType       kv.BackendType
	SQLiteDBPath string
	RedisURL     string
	RedisPrefix  string

	// Remote database; used only when both values are real.
	RemoteURL string
	RemoteKey string
}
