package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/sylvester-francis/atcc-interview-test/internal/session"
)

func newContext(cookies ...*http.Cookie) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %s not set", name)
	return nil
}

func TestManager(t *testing.T) {
	store := session.NewMemoryStore()
	mgr := session.NewManager(store, session.Options{Secret: "test-secret", Secure: true})

	t.Run("save sets a hardened cookie", func(t *testing.T) {
		c, rec := newContext()
		s, err := mgr.New()
		require.NoError(t, err)
		require.NotEmpty(t, s.CSRFSecret)
		require.NoError(t, mgr.Save(c, s))

		ck := cookieFrom(t, rec, "atcc.sid")
		require.True(t, ck.HttpOnly)
		require.True(t, ck.Secure)
		require.Equal(t, http.SameSiteStrictMode, ck.SameSite)
		require.Equal(t, 86400, ck.MaxAge)
		require.True(t, strings.HasPrefix(ck.Value, s.ID+"."))
	})

	t.Run("load round trip", func(t *testing.T) {
		c, rec := newContext()
		s, _ := mgr.New()
		s.UserID = "user-1"
		require.NoError(t, mgr.Save(c, s))

		c2, _ := newContext(cookieFrom(t, rec, "atcc.sid"))
		got, err := mgr.Load(c2)
		require.NoError(t, err)
		require.NotNil(t, got)
		require.Equal(t, "user-1", got.UserID)
		require.True(t, got.Authenticated())
	})

	t.Run("forged cookie ignored", func(t *testing.T) {
		c, rec := newContext()
		s, _ := mgr.New()
		require.NoError(t, mgr.Save(c, s))
		ck := cookieFrom(t, rec, "atcc.sid")

		for _, v := range []string{s.ID, s.ID + ".bad", "." + strings.Split(ck.Value, ".")[1], "garbage"} {
			c2, _ := newContext(&http.Cookie{Name: "atcc.sid", Value: v})
			got, err := mgr.Load(c2)
			require.NoError(t, err)
			require.Nil(t, got, v)
		}
	})

	t.Run("no cookie", func(t *testing.T) {
		c, _ := newContext()
		got, err := mgr.Load(c)
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("regenerate changes id and secret", func(t *testing.T) {
		c, _ := newContext()
		old, _ := mgr.New()
		require.NoError(t, mgr.Save(c, old))

		fresh, err := mgr.Regenerate(c, old)
		require.NoError(t, err)
		require.NotEqual(t, old.ID, fresh.ID)
		require.NotEqual(t, old.CSRFSecret, fresh.CSRFSecret)

		_, err = store.Get(context.Background(), old.ID)
		require.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("ensure creates and fills in", func(t *testing.T) {
		c, rec := newContext()
		s, err := mgr.Ensure(c, nil)
		require.NoError(t, err)
		require.NotEmpty(t, s.CSRFSecret)
		cookieFrom(t, rec, "atcc.sid")

		bare := &session.Session{ID: "bare", UserID: "u1"}
		c, _ = newContext()
		got, err := mgr.Ensure(c, bare)
		require.NoError(t, err)
		require.Same(t, bare, got)
		require.NotEmpty(t, got.CSRFSecret)
		stored, err := store.Get(context.Background(), "bare")
		require.NoError(t, err)
		require.Equal(t, got.CSRFSecret, stored.CSRFSecret)
	})

	t.Run("destroy expires cookie", func(t *testing.T) {
		c, rec := newContext()
		s, _ := mgr.New()
		require.NoError(t, mgr.Save(c, s))
		c2, rec2 := newContext(cookieFrom(t, rec, "atcc.sid"))
		require.NoError(t, mgr.Destroy(c2, s))
		require.Equal(t, -1, cookieFrom(t, rec2, "atcc.sid").MaxAge)

		_, err := store.Get(context.Background(), s.ID)
		require.ErrorIs(t, err, session.ErrNotFound)
	})
}

func TestManagerSlidingExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := session.NewMemoryStore().WithClock(clock)
	mgr := session.NewManager(store, session.Options{Secret: "k"}).WithClock(clock)

	c, rec := newContext()
	s, _ := mgr.New()
	require.NoError(t, mgr.Save(c, s))
	ck := cookieFrom(t, rec, "atcc.sid")
	firstExpiry := s.ExpiresAt

	now = now.Add(30 * time.Second)
	c2, rec2 := newContext(ck)
	require.NoError(t, mgr.Touch(c2, s))
	require.Empty(t, rec2.Result().Cookies(), "touch inside a minute is a no-op")

	now = now.Add(20 * time.Hour)
	c3, _ := newContext(ck)
	require.NoError(t, mgr.Touch(c3, s))
	require.True(t, s.ExpiresAt.After(firstExpiry))

	// 23h after the last touch the session is still alive.
	now = now.Add(23 * time.Hour)
	c4, _ := newContext(ck)
	got, err := mgr.Load(c4)
	require.NoError(t, err)
	require.NotNil(t, got)

	// Past 24h without activity it is gone.
	now = now.Add(2 * time.Hour)
	c5, _ := newContext(ck)
	got, err = mgr.Load(c5)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := session.NewRedisStore(client)
	ctx := context.Background()

	s := &session.Session{ID: "abc", UserID: "u1", CSRFSecret: "sec", CreatedAt: time.Now().UTC()}
	require.NoError(t, store.Save(ctx, s, 24*time.Hour))
	require.Equal(t, 24*time.Hour, mr.TTL("sess:abc"))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, "abc", got.ID)
	require.Equal(t, "u1", got.UserID)
	require.Equal(t, "sec", got.CSRFSecret)

	raw, _ := mr.Get("sess:abc")
	require.NotContains(t, raw, `"abc"`, "id is the key, not part of the record")

	mr.FastForward(25 * time.Hour)
	_, err = store.Get(ctx, "abc")
	require.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, store.Save(ctx, s, time.Hour))
	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Get(ctx, "abc")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestMemoryStoreExpiry(t *testing.T) {
	now := time.Now()
	store := session.NewMemoryStore().WithClock(func() time.Time { return now })
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &session.Session{ID: "x"}, time.Minute))

	_, err := store.Get(ctx, "x")
	require.NoError(t, err)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "x")
	require.ErrorIs(t, err, session.ErrNotFound)
	require.Equal(t, 0, store.Len())
}
