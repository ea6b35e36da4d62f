package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sylvester-francis/atcc-interview-test/internal/ratelimit"
)

func newRedisLimiter(t *testing.T) (*ratelimit.RedisLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return ratelimit.NewRedis(client, ""), mr
}

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects past max without counting", func(t *testing.T) {
		lim, mr := newRedisLimiter(t)
		for i := 0; i < 5; i++ {
			d, err := lim.Allow(ctx, "auth:10.0.0.1", 5, 15*time.Minute)
			require.NoError(t, err)
			require.True(t, d.Allowed)
		}
		d, err := lim.Allow(ctx, "auth:10.0.0.1", 5, 15*time.Minute)
		require.NoError(t, err)
		require.False(t, d.Allowed)
		require.Equal(t, 5, d.Count)

		got, err := mr.Get("rl:auth:10.0.0.1")
		require.NoError(t, err)
		require.Equal(t, "5", got)

		other, err := lim.Allow(ctx, "auth:10.0.0.2", 5, 15*time.Minute)
		require.NoError(t, err)
		require.True(t, other.Allowed)
	})

	t.Run("window expires", func(t *testing.T) {
		lim, mr := newRedisLimiter(t)
		for i := 0; i < 3; i++ {
			_, _ = lim.Allow(ctx, "contact:ip", 3, time.Hour)
		}
		d, _ := lim.Allow(ctx, "contact:ip", 3, time.Hour)
		require.False(t, d.Allowed)

		mr.FastForward(time.Hour + time.Second)
		d, err := lim.Allow(ctx, "contact:ip", 3, time.Hour)
		require.NoError(t, err)
		require.True(t, d.Allowed)
		require.Equal(t, 1, d.Count)
	})

	t.Run("ttl is set on first hit", func(t *testing.T) {
		lim, mr := newRedisLimiter(t)
		_, err := lim.Allow(ctx, "admin:ip", 100, 5*time.Minute)
		require.NoError(t, err)
		require.Equal(t, 5*time.Minute, mr.TTL("rl:admin:ip"))
	})

	t.Run("undo", func(t *testing.T) {
		lim, mr := newRedisLimiter(t)
		_, _ = lim.Allow(ctx, "auth:ip", 5, time.Minute)
		_, _ = lim.Allow(ctx, "auth:ip", 5, time.Minute)
		require.NoError(t, lim.Undo(ctx, "auth:ip"))
		got, _ := mr.Get("rl:auth:ip")
		require.Equal(t, "1", got)

		require.NoError(t, lim.Undo(ctx, "auth:missing"))
		require.False(t, mr.Exists("rl:auth:missing"))
	})

	t.Run("falls back when redis is down", func(t *testing.T) {
		lim, mr := newRedisLimiter(t)
		mr.Close()
		for i := 0; i < 2; i++ {
			d, err := lim.Allow(ctx, "auth:ip", 2, time.Minute)
			require.NoError(t, err)
			require.True(t, d.Allowed)
		}
		d, err := lim.Allow(ctx, "auth:ip", 2, time.Minute)
		require.NoError(t, err)
		require.False(t, d.Allowed)
	})

	t.Run("nil client without fallback fails open", func(t *testing.T) {
		lim := &ratelimit.RedisLimiter{}
		d, err := lim.Allow(ctx, "k", 1, time.Minute)
		require.Error(t, err)
		require.True(t, d.Allowed)
	})
}

func TestRedisLimiterPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	for prefix, want := range map[string]string{"": "rl:", "atcc-rl": "atcc-rl:", "site:": "site:"} {
		lim := ratelimit.NewRedis(client, prefix)
		_, err := lim.Allow(context.Background(), "auth:10.0.0.9", 5, time.Minute)
		require.NoError(t, err)
		v, err := mr.Get(want + "auth:10.0.0.9")
		require.NoError(t, err, "prefix %q", prefix)
		require.Equal(t, "1", v)
	}
}
