package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/sylvester-francis/atcc-interview-test/internal/apperr"
	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/session"
)

func newManager() (*session.Manager, *session.MemoryStore) {
	store := session.NewMemoryStore()
	return session.NewManager(store, session.Options{Secret: "middleware-test"}), store
}

// login stores a session for userID and returns its cookie.
func login(t *testing.T, mgr *session.Manager, userID string) (*http.Cookie, *session.Session) {
	t.Helper()
	s, err := mgr.New()
	require.NoError(t, err)
	s.UserID = userID
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, mgr.Save(c, s))
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == mgr.CookieName() {
			return ck, s
		}
	}
	t.Fatal("session cookie not set")
	return nil, nil
}

type fakeUsers struct {
	users map[string]*model.User
	err   error
	calls int
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.Wrapf(apperr.ErrNotFound, "user %s", id)
	}
	cp := *u
	return &cp, nil
}

var errStoreDown = errors.New("store down")

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func atoi(t *testing.T, s string) int {
	t.Helper()
	n, err := strconv.Atoi(s)
	require.NoError(t, err)
	return n
}

func trimNL(s string) string { return strings.TrimRight(s, "\n") }
