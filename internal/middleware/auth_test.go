package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/sylvester-francis/atcc-interview-test/internal/middleware"
	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/session"
)

func newGateServer(mgr *session.Manager, users middleware.UserFinder) *echo.Echo {
	e := echo.New()
	e.Use(middleware.LoadSession(mgr))
	e.Use(middleware.CheckAuth(users))
	whoami := func(c echo.Context) error {
		u := middleware.CurrentUser(c)
		if u == nil {
			return c.String(http.StatusOK, "guest")
		}
		return c.String(http.StatusOK, u.Username)
	}
	e.GET("/", whoami)
	e.GET("/auth/me", whoami, middleware.RequireAuth())
	e.GET("/admin/users", whoami, middleware.RequireAuth(), middleware.RequireRole(users, model.RoleAdmin))
	e.POST("/admin/users/:id/role", whoami, middleware.RequireRole(users, model.RoleAdmin))
	return e
}

func get(e *echo.Echo, path string, ck *http.Cookie, accept string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if accept != "" {
		req.Header.Set(echo.HeaderAccept, accept)
	}
	if ck != nil {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGates(t *testing.T) {
	mgr, _ := newManager()
	users := &fakeUsers{users: map[string]*model.User{
		"admin":   {ID: "admin", Username: "root", Role: model.RoleAdmin, IsActive: true},
		"retired": {ID: "retired", Username: "old", Role: model.RoleAdmin, IsActive: false},
		"member":  {ID: "member", Username: "kavya", Role: model.RoleUser, IsActive: true},
		"editor":  {ID: "editor", Username: "ed", Role: model.RoleEditor, IsActive: true},
	}}
	e := newGateServer(mgr, users)

	t.Run("no session redirects pages", func(t *testing.T) {
		rec := get(e, "/auth/me", nil, "text/html")
		require.Equal(t, http.StatusFound, rec.Code)
		require.Equal(t, "/auth/login", rec.Header().Get(echo.HeaderLocation))
	})

	t.Run("no session gives json clients 401", func(t *testing.T) {
		rec := get(e, "/admin/users", nil, "application/json")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"error":"authentication required"}`, rec.Body.String())
	})

	t.Run("anonymous session is not a login", func(t *testing.T) {
		ck, _ := login(t, mgr, "")
		rec := get(e, "/auth/me", ck, "application/json")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("admin passes", func(t *testing.T) {
		ck, _ := login(t, mgr, "admin")
		rec := get(e, "/admin/users", ck, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "root", rec.Body.String())
	})

	t.Run("user role forbidden whatever the body says", func(t *testing.T) {
		ck, _ := login(t, mgr, "member")
		req := httptest.NewRequest(http.MethodPost, "/admin/users/member/role?role=admin", nil)
		req.Header.Set(echo.HeaderAccept, "application/json")
		req.AddCookie(ck)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())

		rec = get(e, "/admin/users", ck, "text/html")
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), "Access Denied")
	})

	t.Run("editor not on admin only route", func(t *testing.T) {
		ck, _ := login(t, mgr, "editor")
		require.Equal(t, http.StatusForbidden, get(e, "/admin/users", ck, "").Code)
	})

	t.Run("inactive admin forbidden", func(t *testing.T) {
		ck, _ := login(t, mgr, "retired")
		require.Equal(t, http.StatusForbidden, get(e, "/admin/users", ck, "").Code)
	})

	t.Run("deleted user forbidden", func(t *testing.T) {
		ck, _ := login(t, mgr, "ghost")
		require.Equal(t, http.StatusForbidden, get(e, "/admin/users", ck, "").Code)
	})

	t.Run("check auth attaches active users only", func(t *testing.T) {
		ck, _ := login(t, mgr, "member")
		require.Equal(t, "kavya", get(e, "/", ck, "").Body.String())

		ck, _ = login(t, mgr, "retired")
		require.Equal(t, "guest", get(e, "/", ck, "").Body.String())

		require.Equal(t, "guest", get(e, "/", nil, "").Body.String())
	})
}

func TestRequireRoleStoreError(t *testing.T) {
	mgr, _ := newManager()
	users := &fakeUsers{err: errStoreDown}
	e := newGateServer(mgr, users)

	ck, _ := login(t, mgr, "admin")
	rec := get(e, "/admin/users", ck, "application/json")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "store down")

	// CheckAuth only logs.
	require.Equal(t, http.StatusOK, get(e, "/", ck, "").Code)
}

func TestRequireRoleLoadsUserOnce(t *testing.T) {
	mgr, _ := newManager()
	users := &fakeUsers{users: map[string]*model.User{
		"admin": {ID: "admin", Username: "root", Role: model.RoleAdmin, IsActive: true},
	}}
	e := newGateServer(mgr, users)
	ck, _ := login(t, mgr, "admin")

	require.Equal(t, http.StatusOK, get(e, "/admin/users", ck, "").Code)
	require.Equal(t, 1, users.calls)
}
