package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pollLockKeyPrefix = "poll_lock:"

// RedisPollLock serializes poll cycles per source link across poller
// instances. The TTL bounds how long a crashed holder can block a link.
type RedisPollLock struct {
	client *redis.Client
}

func NewRedisPollLock(client *redis.Client) *RedisPollLock {
	return &RedisPollLock{client: client}
}

func (l *RedisPollLock) buildKey(linkID uint) string {
	return fmt.Sprintf("%s%d", pollLockKeyPrefix, linkID)
}

// TryAcquire atomically claims the link via SetNX. Returns false when
// another poller already holds it.
func (l *RedisPollLock) TryAcquire(ctx context.Context, linkID uint, ttl time.Duration) (bool, error) {
	acquired, err := l.client.SetNX(ctx, l.buildKey(linkID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire poll lock: %w", err)
	}
	return acquired, nil
}

func (l *RedisPollLock) Release(ctx context.Context, linkID uint) error {
	if err := l.client.Del(ctx, l.buildKey(linkID)).Err(); err != nil {
		return fmt.Errorf("failed to release poll lock: %w", err)
	}
	return nil
}
