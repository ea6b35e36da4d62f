package ratelimit

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// allowScript increments the window counter unless it already reached the
// limit, so rejected requests never push the count past max. The window
// starts with the first hit.
var allowScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
local limit = tonumber(ARGV[2])
if current >= limit then
  local ttl = redis.call("PTTL", KEYS[1])
  return {0, current, ttl}
end
current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {1, current, ttl}
`)

// undoScript decrements a live window without going below zero.
var undoScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current > 0 then
  return redis.call("DECR", KEYS[1])
end
return 0
`)

// RedisLimiter shares windows between processes. When redis fails the
// Fallback limiter answers instead so traffic is still counted locally.
type RedisLimiter struct {
	Client   *redis.Client
	Prefix   string
	Fallback Limiter
}

// NewRedis stores windows under "<prefix>:<key>". An empty prefix means "rl".
func NewRedis(client *redis.Client, prefix string) *RedisLimiter {
	prefix = strings.TrimSuffix(prefix, ":")
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{
		Client:   client,
		Prefix:   prefix + ":",
		Fallback: NewMemory(),
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	if l.Client == nil {
		return l.fallbackAllow(ctx, key, limit, window, nil)
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	res, err := allowScript.Run(ctx, l.Client, []string{l.Prefix + key}, window.Milliseconds(), limit).Result()
	if err != nil {
		return l.fallbackAllow(ctx, key, limit, window, err)
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) < 3 {
		return l.fallbackAllow(ctx, key, limit, window, errUnexpectedReply)
	}
	allowed, _ := vals[0].(int64)
	count, _ := vals[1].(int64)
	ttlMs, _ := vals[2].(int64)
	if ttlMs < 0 {
		ttlMs = window.Milliseconds()
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   allowed == 1,
		Count:     int(count),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().UTC().Add(time.Duration(ttlMs) * time.Millisecond),
	}, nil
}

func (l *RedisLimiter) Undo(ctx context.Context, key string) error {
	if l.Client == nil {
		if l.Fallback != nil {
			return l.Fallback.Undo(ctx, key)
		}
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := undoScript.Run(ctx, l.Client, []string{l.Prefix + key}).Err(); err != nil {
		if l.Fallback != nil {
			return l.Fallback.Undo(ctx, key)
		}
		return err
	}
	return nil
}

func (l *RedisLimiter) fallbackAllow(ctx context.Context, key string, limit int, window time.Duration, cause error) (Decision, error) {
	if cause != nil {
		log.Warn().Err(cause).Str("key", key).Msg("ratelimit: redis unavailable, using local window")
	}
	if l.Fallback != nil {
		return l.Fallback.Allow(ctx, key, limit, window)
	}
	if cause == nil {
		cause = errNoBackend
	}
	return Decision{Allowed: true, Limit: limit, Remaining: limit, ResetAt: time.Now().UTC().Add(window)}, cause
}
