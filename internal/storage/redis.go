package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const seenKeyPrefix = "event:seen:"

// SeenClient is the subset of redis.Cmdable used by RedisSeenCache.
type SeenClient interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// RedisSeenCache remembers persisted content hashes across runs so a
// later run can skip the database round trip.
type RedisSeenCache struct {
	client SeenClient
	ttl    time.Duration
}

func NewRedisSeenCache(client SeenClient, ttl time.Duration) *RedisSeenCache {
	return &RedisSeenCache{client: client, ttl: ttl}
}

func (c *RedisSeenCache) Seen(ctx context.Context, contentHash string) (bool, error) {
	n, err := c.client.Exists(ctx, seenKeyPrefix+contentHash).Result()
	if err != nil {
		return false, &StorageError{Message: err.Error(), Retryable: true, Cause: ErrCauseCacheFailure, Err: err}
	}
	return n > 0, nil
}

// Mark records contentHash. It reports whether the hash was new.
func (c *RedisSeenCache) Mark(ctx context.Context, contentHash string) (bool, error) {
	ok, err := c.client.SetNX(ctx, seenKeyPrefix+contentHash, time.Now().Unix(), c.ttl).Result()
	if err != nil {
		return false, &StorageError{Message: err.Error(), Retryable: true, Cause: ErrCauseCacheFailure, Err: err}
	}
	return ok, nil
}

var _ SeenClient = (*redis.Client)(nil)
