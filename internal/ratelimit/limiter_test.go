package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lshigami/examhall/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLimiterFixedWindow(t *testing.T) {
	mr, client := newRedis(t)
	l := NewRedisLimiter(client, 2, time.Minute).(*redisLimiter)
	now := time.Date(2025, 1, 13, 9, 0, 10, 0, time.UTC)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i, want := range []bool{true, true, false, false} {
		ok, err := l.Allow(ctx, "submit:s1")
		require.NoError(t, err)
		assert.Equal(t, want, ok, "hit %d", i+1)
	}

	ok, err := l.Allow(ctx, "submit:s2")
	require.NoError(t, err)
	assert.True(t, ok, "keys are counted separately")

	key := fmt.Sprintf("ratelimit:submit:s1:%d", now.UnixNano()/int64(time.Minute))
	require.True(t, mr.Exists(key))
	assert.Equal(t, "4", mustGet(t, mr, key))
	assert.Equal(t, time.Minute, mr.TTL(key))

	// The next window starts a fresh count.
	now = now.Add(time.Minute)
	ok, err = l.Allow(ctx, "submit:s1")
	require.NoError(t, err)
	assert.True(t, ok)

	// Stale buckets expire on their own.
	mr.FastForward(time.Minute)
	assert.False(t, mr.Exists(key))
}

func TestRedisLimiterReportsStoreErrors(t *testing.T) {
	mr, client := newRedis(t)
	l := NewRedisLimiter(client, 2, time.Minute)
	mr.Close()

	_, err := l.Allow(context.Background(), "submit:s1")
	assert.Error(t, err)
}

func TestNewPicksRedisWhenConfigured(t *testing.T) {
	_, client := newRedis(t)
	cfg := &config.Config{RateLimit: config.RateLimit{SubmitLimit: 3, SubmitWindow: time.Minute}}
	assert.IsType(t, &redisLimiter{}, New(cfg, client))

	cfg.RateLimit.SubmitWindow = 0
	assert.IsType(t, noopLimiter{}, New(cfg, client))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
