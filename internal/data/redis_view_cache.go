package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relayworks/jobrelay/internal/core"
)

const viewCacheKeyPrefix = "jobrelay:view:"

// defaultViewTTL bounds memory growth; a miss after expiry just falls back to
// the store.
const defaultViewTTL = 15 * time.Minute

// RedisViewCache caches terminal job views in Redis. Only completed views are
// ever written, and a completed view is write-once by the store's completion
// guard, so cached entries cannot diverge from the store.
type RedisViewCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ core.TerminalViewCache = (*RedisViewCache)(nil)

// NewRedisViewCache creates a new RedisViewCache with the given Redis client.
// A non-positive TTL selects the default.
func NewRedisViewCache(client redis.UniversalClient, ttl time.Duration) *RedisViewCache {
	if ttl <= 0 {
		ttl = defaultViewTTL
	}
	return &RedisViewCache{client: client, ttl: ttl}
}

// Get retrieves a cached terminal view. A missing key is (nil, nil).
func (c *RedisViewCache) Get(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, errors.New("id cannot be empty")
	}

	result, err := c.client.Get(ctx, viewCacheKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return []byte(result), nil
}

// Set stores a terminal view with the configured TTL.
func (c *RedisViewCache) Set(ctx context.Context, id string, view []byte) error {
	if id == "" {
		return errors.New("id cannot be empty")
	}
	if len(view) == 0 {
		return errors.New("view cannot be empty")
	}

	if err := c.client.Set(ctx, viewCacheKeyPrefix+id, view, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
