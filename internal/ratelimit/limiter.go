// Package ratelimit implements fixed window request counters keyed by an
// arbitrary string, backed by redis with an in-process fallback.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Limiter counts hits per key within a window. A rejected hit is not
// counted, so Count never exceeds Limit. Undo takes back one hit, used
// when a request should not have counted after all.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error)
	Undo(ctx context.Context, key string) error
}

// MemoryLimiter keeps windows in a map. Counts are lost on restart.
type MemoryLimiter struct {
	mu        sync.Mutex
	items     map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

type entry struct {
	count   int
	resetAt time.Time
}

const sweepEvery = time.Minute

func NewMemory() *MemoryLimiter {
	return &MemoryLimiter{
		items: make(map[string]entry),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (l *MemoryLimiter) WithClock(now func() time.Time) *MemoryLimiter {
	l.now = now
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Decision, error) {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweep(now)

	curr, ok := l.items[key]
	if !ok || !now.Before(curr.resetAt) {
		curr = entry{resetAt: now.Add(window)}
	}
	if curr.count >= limit {
		l.items[key] = curr
		return Decision{Allowed: false, Count: curr.count, Limit: limit, Remaining: 0, ResetAt: curr.resetAt}, nil
	}
	curr.count++
	l.items[key] = curr
	return Decision{
		Allowed:   true,
		Count:     curr.count,
		Limit:     limit,
		Remaining: limit - curr.count,
		ResetAt:   curr.resetAt,
	}, nil
}

func (l *MemoryLimiter) Undo(_ context.Context, key string) error {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	curr, ok := l.items[key]
	if !ok || !now.Before(curr.resetAt) || curr.count == 0 {
		return nil
	}
	curr.count--
	l.items[key] = curr
	return nil
}

func (l *MemoryLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < sweepEvery {
		return
	}
	l.lastSweep = now
	for k, v := range l.items {
		if !now.Before(v.resetAt) {
			delete(l.items, k)
		}
	}
}
