package artifact

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Redis stores artifacts as base64 blobs with an expiry, so any server
// instance can serve a download.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	newKey func() string
}

var _ Store = (*Redis)(nil)

type redisEnvelope struct {
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Data        string    `json:"data"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix + "artifact:", ttl: ttl, newKey: uuid.NewString}
}

func (r *Redis) Put(ctx context.Context, a Artifact) (string, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	raw, err := json.Marshal(redisEnvelope{
		Name:        a.Name,
		ContentType: a.ContentType,
		Data:        base64.StdEncoding.EncodeToString(a.Data),
		CreatedAt:   a.CreatedAt,
	})
	if err != nil {
		return "", fmt.Errorf("encode artifact: %w", err)
	}

	key := r.newKey()
	if err := r.client.Set(ctx, r.prefix+key, raw, r.ttl).Err(); err != nil {
		return "", fmt.Errorf("store artifact: %w", err)
	}
	return key, nil
}

func (r *Redis) Get(ctx context.Context, key string) (Artifact, error) {
	raw, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Artifact{}, ErrNotFound
	}
	if err != nil {
		return Artifact{}, fmt.Errorf("load artifact: %w", err)
	}

	var env redisEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Artifact{}, fmt.Errorf("decode artifact: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(env.Data)
	if err != nil {
		return Artifact{}, fmt.Errorf("decode artifact data: %w", err)
	}
	return Artifact{Name: env.Name, ContentType: env.ContentType, Data: data, CreatedAt: env.CreatedAt}, nil
}

// Close is a no-op; the client is owned by the caller.
func (r *Redis) Close() error {
	return nil
}
