package backend

import (
	"errors"
	"fmt"

	"github.com/ggonsajang/comcard/internal/config"
	"github.com/ggonsajang/comcard/internal/kv"
	"github.com/ggonsajang/comcard/internal/store/remote"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	kvType := kv.BackendType(appConfig.KVBackend)
	if !kvType.IsValid() {
		return Config{}, fmt.Errorf("invalid kv backend in config: %s", appConfig.KVBackend)
	}

	return Config{
		KVType:       kvType,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		RedisURL:     appConfig.RedisURL,
		RedisPrefix:  appConfig.RedisPrefix,
		RemoteURL:    appConfig.RemoteDatabaseURL,
		RemoteKey:    appConfig.RemoteDatabaseKey,
	}, nil
}

// Remote returns the remote store settings.
func (c Config) Remote() remote.Config {
	return remote.Config{URL: c.RemoteURL, Key: c.RemoteKey}
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.KVType.IsValid() {
		return fmt.Errorf("invalid kv backend: %s", c.KVType)
	}

	switch c.KVType {
	case kv.SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("SQLite database path is required for sqlite backend")
		}
	case kv.RedisBackend:
		if c.RedisURL == "" {
			return errors.New("Redis URL is required for redis backend")
		}
	case kv.MemoryBackend:
	}

	return nil
}
