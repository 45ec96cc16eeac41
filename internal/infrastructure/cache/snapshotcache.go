// Package cache provides the Redis-backed fast paths: the snapshot cache the
// read surface serves from, and the per-link poll lock.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	sharedConfig "stagewatch/internal/shared/config"
)

const snapshotKeyPrefix = "snapshot:"

// NewRedisClient builds a client from the shared Redis settings.
func NewRedisClient(cfg *sharedConfig.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.GetAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// RedisSnapshotCache mirrors the durable snapshot rows. The poll cycle
// refreshes an entry after every successful commit; readers that miss here
// fall back to the database.
type RedisSnapshotCache struct {
	client *redis.Client
}

func NewRedisSnapshotCache(client *redis.Client) *RedisSnapshotCache {
	return &RedisSnapshotCache{client: client}
}

// buildKey formats snapshot:{play_id}:{city_norm}.
func (c *RedisSnapshotCache) buildKey(playID uint, cityNorm string) string {
	return fmt.Sprintf("%s%d:%s", snapshotKeyPrefix, playID, cityNorm)
}

func (c *RedisSnapshotCache) Set(ctx context.Context, playID uint, cityNorm string, payload json.RawMessage, ttl time.Duration) error {
	key := c.buildKey(playID, cityNorm)

	if err := c.client.Set(ctx, key, []byte(payload), ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache snapshot: %w", err)
	}
	return nil
}

// Get returns the cached payload, or nil without error on a miss.
func (c *RedisSnapshotCache) Get(ctx context.Context, playID uint, cityNorm string) (json.RawMessage, error) {
	key := c.buildKey(playID, cityNorm)

	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached snapshot: %w", err)
	}
	return json.RawMessage(val), nil
}

func (c *RedisSnapshotCache) Invalidate(ctx context.Context, playID uint, cityNorm string) error {
	key := c.buildKey(playID, cityNorm)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached snapshot: %w", err)
	}
	return nil
}
