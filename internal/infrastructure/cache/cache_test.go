package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return client, mr
}

func TestRedisSnapshotCache(t *testing.T) {
	client, mr := setupTestRedis(t)
	cache := NewRedisSnapshotCache(client)
	ctx := context.Background()

	t.Run("miss returns nil payload without error", func(t *testing.T) {
		payload, err := cache.Get(ctx, 1, "shanghai")
		require.NoError(t, err)
		assert.Nil(t, payload)
	})

	t.Run("set then get round-trips", func(t *testing.T) {
		err := cache.Set(ctx, 1, "shanghai", json.RawMessage(`{"status":"on_sale"}`), 10*time.Minute)
		require.NoError(t, err)

		payload, err := cache.Get(ctx, 1, "shanghai")
		require.NoError(t, err)
		assert.JSONEq(t, `{"status":"on_sale"}`, string(payload))
	})

	t.Run("entries expire after the TTL", func(t *testing.T) {
		err := cache.Set(ctx, 2, "beijing", json.RawMessage(`{}`), time.Minute)
		require.NoError(t, err)

		mr.FastForward(2 * time.Minute)

		payload, err := cache.Get(ctx, 2, "beijing")
		require.NoError(t, err)
		assert.Nil(t, payload)
	})

	t.Run("cities do not collide", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, 3, "shanghai", json.RawMessage(`{"city":"sh"}`), time.Minute))
		require.NoError(t, cache.Set(ctx, 3, "chengdu", json.RawMessage(`{"city":"cd"}`), time.Minute))

		payload, err := cache.Get(ctx, 3, "shanghai")
		require.NoError(t, err)
		assert.JSONEq(t, `{"city":"sh"}`, string(payload))
	})

	t.Run("invalidate removes the entry", func(t *testing.T) {
		require.NoError(t, cache.Set(ctx, 4, "shanghai", json.RawMessage(`{}`), time.Minute))
		require.NoError(t, cache.Invalidate(ctx, 4, "shanghai"))

		payload, err := cache.Get(ctx, 4, "shanghai")
		require.NoError(t, err)
		assert.Nil(t, payload)
	})
}

func TestRedisPollLock(t *testing.T) {
	client, mr := setupTestRedis(t)
	lock := NewRedisPollLock(client)
	ctx := context.Background()

	t.Run("second acquire is refused while held", func(t *testing.T) {
		acquired, err := lock.TryAcquire(ctx, 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)

		acquired, err = lock.TryAcquire(ctx, 1, time.Minute)
		require.NoError(t, err)
		assert.False(t, acquired)
	})

	t.Run("release frees the link", func(t *testing.T) {
		require.NoError(t, lock.Release(ctx, 1))

		acquired, err := lock.TryAcquire(ctx, 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("lock expires with its TTL", func(t *testing.T) {
		acquired, err := lock.TryAcquire(ctx, 2, time.Minute)
		require.NoError(t, err)
		require.True(t, acquired)

		mr.FastForward(2 * time.Minute)

		acquired, err = lock.TryAcquire(ctx, 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, acquired)
	})

	t.Run("different links are independent", func(t *testing.T) {
		a, err := lock.TryAcquire(ctx, 10, time.Minute)
		require.NoError(t, err)
		b, err2 := lock.TryAcquire(ctx, 11, time.Minute)
		require.NoError(t, err2)
		assert.True(t, a)
		assert.True(t, b)
	})
}
