package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ggonsajang/comcard/internal/kv"
	"github.com/ggonsajang/comcard/internal/storage"
	"github.com/ggonsajang/comcard/internal/store"
	"github.com/ggonsajang/comcard/internal/store/local"
	"github.com/ggonsajang/comcard/internal/store/remote"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger     *slog.Logger
	openRemote func(ctx context.Context, cfg remote.Config) (RemoteStore, error)
}

// RemoteStore is the remote gateway plus its lifecycle hooks.
type RemoteStore interface {
	store.ExpenseStore
	Pinger
	Close() error
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
		openRemote: func(ctx context.Context, cfg remote.Config) (RemoteStore, error) {
			return remote.Open(ctx, cfg)
		},
	}
}

// CreateBackend opens the local key-value store, builds the local expense
// store on top of it and, when a remote database is configured, puts the
// remote store in front with local fallback. A remote database that cannot
// be reached at startup is logged and skipped.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	kvs, err := f.openKV(ctx, config)
	if err != nil {
		return nil, err
	}

	result := &BackendResult{
		KV:       kvs,
		Expenses: local.New(kvs, local.WithLogger(f.logger)),
		Cleanup:  kvs.Close,
	}
	if p, ok := kvs.(Pinger); ok {
		result.Pingers = append(result.Pingers, p)
	}

	rcfg := config.Remote()
	if !rcfg.Configured() {
		f.logger.Info("Remote database not configured, using local store only",
			"kv_backend", config.KVType.String())
		return result, nil
	}

	rs, err := f.openRemote(ctx, rcfg)
	if err != nil {
		f.logger.Warn("Remote database unavailable, using local store only", "error", err)
		return result, nil
	}

	result.Expenses = NewFallback(rs, result.Expenses, f.logger)
	result.Remote = true
	result.Pingers = append(result.Pingers, rs)
	result.Cleanup = func() error {
		return errors.Join(rs.Close(), kvs.Close())
	}

	f.logger.Info("Initialized remote store with local fallback",
		"kv_backend", config.KVType.String())
	return result, nil
}

func (f *DefaultFactory) openKV(ctx context.Context, config Config) (kv.Store, error) {
	switch config.KVType {
	case kv.SQLiteBackend:
		s, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite key-value store", "db_path", config.SQLiteDBPath)
		return s, nil
	case kv.RedisBackend:
		s, err := kv.NewRedis(ctx, config.RedisURL, config.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis store: %w", err)
		}
		f.logger.Info("Initialized Redis key-value store", "prefix", config.RedisPrefix)
		return s, nil
	case kv.MemoryBackend:
		f.logger.Info("Initialized in-memory key-value store")
		return kv.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported kv backend: %s", config.KVType)
	}
}
