package ratelimit_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediagate/ratelimit"
)

// redisClient connects to the Redis named by MEDIAGATE_TEST_REDIS, skipping
// the test when the variable is unset.
func redisClient(t *testing.T) *redis.Client {
	t.Helper()

	addr := os.Getenv("MEDIAGATE_TEST_REDIS")
	if addr == "" {
		t.Skip("MEDIAGATE_TEST_REDIS not set")
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, rdb.Ping(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func newRedisStore(t *testing.T, requests int, window time.Duration) *ratelimit.RedisStore {
	t.Helper()

	store, err := ratelimit.NewRedisStore(
		redisClient(t),
		map[string]ratelimit.Rule{loginRoute: {Requests: requests, Window: window}},
		ratelimit.WithKeyPrefix(fmt.Sprintf("mediagate:test:%d", time.Now().UnixNano())),
	)
	require.NoError(t, err)
	return store
}

func TestNewRedisStore_Validation(t *testing.T) {
	_, err := ratelimit.NewRedisStore(nil, nil)
	assert.Error(t, err)

	_, err = ratelimit.NewRedisStore(
		redis.NewClient(&redis.Options{}),
		map[string]ratelimit.Rule{loginRoute: {Requests: 0, Window: time.Minute}},
	)
	assert.Error(t, err)
}

func TestRedisStore_Boundary(t *testing.T) {
	store := newRedisStore(t, 5, time.Minute)
	ctx := context.Background()

	for i := range 5 {
		dec, err := store.Check(ctx, "10.0.0.1", loginRoute, time.Now())
		require.NoError(t, err)
		assert.True(t, dec.Allowed, "request %d", i+1)
	}

	dec, err := store.Check(ctx, "10.0.0.1", loginRoute, time.Now())
	require.NoError(t, err)
	assert.False(t, dec.Allowed)
	assert.Greater(t, dec.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, dec.RetryAfter, time.Minute)
}

func TestRedisStore_WindowExpiry(t *testing.T) {
	store := newRedisStore(t, 1, 200*time.Millisecond)
	ctx := context.Background()

	dec, err := store.Check(ctx, "a", loginRoute, time.Now())
	require.NoError(t, err)
	require.True(t, dec.Allowed)

	dec, err = store.Check(ctx, "a", loginRoute, time.Now())
	require.NoError(t, err)
	require.False(t, dec.Allowed)

	time.Sleep(250 * time.Millisecond)

	dec, err = store.Check(ctx, "a", loginRoute, time.Now())
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestRedisStore_IdentityIsolation(t *testing.T) {
	store := newRedisStore(t, 1, time.Minute)
	ctx := context.Background()

	dec, err := store.Check(ctx, "a", loginRoute, time.Now())
	require.NoError(t, err)
	require.True(t, dec.Allowed)

	dec, err = store.Check(ctx, "a", loginRoute, time.Now())
	require.NoError(t, err)
	require.False(t, dec.Allowed)

	dec, err = store.Check(ctx, "b", loginRoute, time.Now())
	require.NoError(t, err)
	assert.True(t, dec.Allowed)
}

func TestRedisStore_UnconfiguredRouteUnlimited(t *testing.T) {
	store := newRedisStore(t, 1, time.Minute)
	ctx := context.Background()

	for range 10 {
		dec, err := store.Check(ctx, "a", "files", time.Now())
		require.NoError(t, err)
		assert.True(t, dec.Allowed)
	}
}
