package repofake

import (
	"context"
	"sync"
	"time"

	"github.com/sylvester-francis/atcc-interview-test/internal/apperr"
)

type resetRow struct {
	userID string
	exp    time.Time
	used   bool
}

type Tokens struct {
	mu   sync.Mutex
	rows map[string]*resetRow
}

func NewTokens() *Tokens { return &Tokens{rows: map[string]*resetRow{}} }

func (f *Tokens) StoreReset(_ context.Context, userID, tokenHash string, exp time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.userID == userID {
			r.used = true
		}
	}
	f.rows[tokenHash] = &resetRow{userID: userID, exp: exp.UTC()}
	return nil
}

func (f *Tokens) ConsumeReset(ctx context.Context, tokenHash string, now time.Time, apply func(context.Context, string) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rows[tokenHash]
	switch {
	case !ok:
		return apperr.ErrInvalidToken
	case r.used:
		return apperr.ErrTokenUsed
	case now.UTC().After(r.exp):
		return apperr.ErrTokenExpired
	}
	if err := apply(ctx, r.userID); err != nil {
		return err
	}
	r.used = true
	return nil
}

func (f *Tokens) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, r := range f.rows {
		if r.used || r.exp.Before(now) {
			delete(f.rows, k)
			n++
		}
	}
	return n, nil
}
