// Package session keeps server-side login state keyed by an opaque id that
// travels in a signed cookie.
package session

import (
	"context"
	"time"

	"github.com/sylvester-francis/atcc-interview-test/internal/apperr"
)

// ErrNotFound is returned for unknown and expired sessions.
var ErrNotFound = apperr.ErrSessionNotFound

// Session is the server-side record. ID is the storage key and is never
// serialized into the record itself.
type Session struct {
	ID         string    `json:"-"`
	UserID     string    `json:"userId,omitempty"`
	CSRFSecret string    `json:"csrfSecret,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// Authenticated reports whether a user is logged in on this session.
func (s *Session) Authenticated() bool { return s != nil && s.UserID != "" }

// Store persists sessions. Save replaces the record and resets its TTL.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
