package repository

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// PendingMarker is stored while the first request holding a key is still
// running.
const PendingMarker = "__pending__"

// IdempotencyStore remembers the response of checkout requests carrying an
// Idempotency-Key header.
type IdempotencyStore interface {
	// Reserve claims key for a new request. It returns false when the key is
	// already claimed or completed.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Get returns the stored value, "" when the key is unknown.
	Get(ctx context.Context, key string) (string, error)
	Complete(ctx context.Context, key, value string, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}

type RedisIdempotencyStore struct {
	client *redis.Client
}

func NewRedisIdempotencyStore(client *redis.Client) IdempotencyStore {
	return &RedisIdempotencyStore{client: client}
}

func (r *RedisIdempotencyStore) idemKey(key string) string {
	return "idem:checkout:" + key
}

func (r *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, r.idemKey(key), PendingMarker, ttl).Result()
}

func (r *RedisIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.idemKey(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

func (r *RedisIdempotencyStore) Complete(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, r.idemKey(key), value, ttl).Err()
}

func (r *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.idemKey(key)).Err()
}
