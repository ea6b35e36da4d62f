package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sylvester-francis/atcc-interview-test/internal/csrf"
	"github.com/sylvester-francis/atcc-interview-test/internal/utils"
)

const (
	idBytes = 32
	// touchEvery limits how often a read-only request re-saves the session
	// to slide its expiry.
	touchEvery = time.Minute
)

// Options configure a Manager.
type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool   // set the Secure cookie flag (production)
	Secret     string // signs cookie values
}

// Manager ties a Store to the session cookie.
type Manager struct {
	store  Store
	opts   Options
	secret []byte
	now    func() time.Time
}

func NewManager(store Store, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "atcc.sid"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Manager{store: store, opts: opts, secret: []byte(opts.Secret), now: time.Now}
}

// WithClock replaces the time source.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

func (m *Manager) TTL() time.Duration { return m.opts.TTL }

func (m *Manager) CookieName() string { return m.opts.CookieName }

// Load returns the session named by the request cookie, or nil when there
// is none, the signature does not match or the record expired.
func (m *Manager) Load(c echo.Context) (*Session, error) {
	ck, err := c.Cookie(m.opts.CookieName)
	if err != nil || ck.Value == "" {
		return nil, nil
	}
	id, ok := m.unsign(ck.Value)
	if !ok {
		return nil, nil
	}
	s, err := m.store.Get(c.Request().Context(), id)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !m.now().Before(s.ExpiresAt) {
		return nil, nil
	}
	return s, nil
}

// New returns an unsaved session with a fresh id and CSRF secret.
func (m *Manager) New() (*Session, error) {
	id, err := utils.RandomHex(idBytes)
	if err != nil {
		return nil, err
	}
	secret, err := csrf.NewSecret()
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	return &Session{ID: id, CSRFSecret: secret, CreatedAt: now, ExpiresAt: now.Add(m.opts.TTL)}, nil
}

// Ensure returns s, creating and saving a new session when s is nil and
// issuing a CSRF secret when s has none yet.
func (m *Manager) Ensure(c echo.Context, s *Session) (*Session, error) {
	if s != nil && s.CSRFSecret != "" {
		return s, nil
	}
	if s == nil {
		ns, err := m.New()
		if err != nil {
			return nil, err
		}
		return ns, m.Save(c, ns)
	}
	secret, err := csrf.NewSecret()
	if err != nil {
		return nil, err
	}
	s.CSRFSecret = secret
	return s, m.Save(c, s)
}

// Save persists s with a full TTL and refreshes the cookie, sliding the
// expiry forward.
func (m *Manager) Save(c echo.Context, s *Session) error {
	s.ExpiresAt = m.now().UTC().Add(m.opts.TTL)
	if err := m.store.Save(c.Request().Context(), s, m.opts.TTL); err != nil {
		return err
	}
	m.setCookie(c, m.sign(s.ID), int(m.opts.TTL/time.Second))
	return nil
}

// Touch saves s when the last save is older than touchEvery.
func (m *Manager) Touch(c echo.Context, s *Session) error {
	lastSaved := s.ExpiresAt.Add(-m.opts.TTL)
	if m.now().Sub(lastSaved) < touchEvery {
		return nil
	}
	return m.Save(c, s)
}

// Regenerate discards old (which may be nil) and returns a new unsaved
// session. The id and CSRF secret both change, which defeats fixation
// and invalidates tokens issued before login.
func (m *Manager) Regenerate(c echo.Context, old *Session) (*Session, error) {
	if old != nil {
		if err := m.store.Delete(c.Request().Context(), old.ID); err != nil {
			return nil, err
		}
	}
	return m.New()
}

// Destroy deletes s and expires the cookie.
func (m *Manager) Destroy(c echo.Context, s *Session) error {
	var err error
	if s != nil {
		err = m.store.Delete(c.Request().Context(), s.ID)
	}
	m.setCookie(c, "", -1)
	return err
}

// DestroyByID removes a record without touching cookies.
func (m *Manager) DestroyByID(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

func (m *Manager) setCookie(c echo.Context, value string, maxAge int) {
	ck := &http.Cookie{
		Name:     m.opts.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   maxAge,
	}
	if maxAge > 0 {
		ck.Expires = m.now().Add(time.Duration(maxAge) * time.Second)
	}
	c.SetCookie(ck)
}

func (m *Manager) sign(id string) string {
	return id + "." + m.mac(id)
}

func (m *Manager) unsign(v string) (string, bool) {
	id, sig, ok := strings.Cut(v, ".")
	if !ok || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(m.mac(id))) {
		return "", false
	}
	return id, true
}

func (m *Manager) mac(id string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
