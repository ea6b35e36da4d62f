package view_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/sylvester-francis/atcc-interview-test/internal/view"
)

func TestForbidden(t *testing.T) {
	e := echo.New()

	t.Run("html page", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
		req.Header.Set(echo.HeaderAccept, "text/html,application/xhtml+xml")
		rec := httptest.NewRecorder()
		require.NoError(t, view.Forbidden(e.NewContext(req, rec)))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
		require.Contains(t, rec.Body.String(), "Access Denied")
	})

	t.Run("json client", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/users/1/role", nil)
		req.Header.Set(echo.HeaderAccept, "application/json")
		rec := httptest.NewRecorder()
		require.NoError(t, view.Forbidden(e.NewContext(req, rec)))
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())
	})
}

func TestNotFound(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, view.NotFound(e.NewContext(req, rec)))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Page Not Found")
}

func TestWantsJSON(t *testing.T) {
	e := echo.New()
	for name, tc := range map[string]struct {
		path, accept, xhr string
		want              bool
	}{
		"api path":    {path: "/api/events", want: true},
		"xhr":         {path: "/admin", xhr: "XMLHttpRequest", want: true},
		"json accept": {path: "/admin", accept: "application/json", want: true},
		"browser":     {path: "/admin", accept: "text/html,application/json;q=0.9", want: false},
		"nothing":     {path: "/admin", want: false},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.accept != "" {
				req.Header.Set(echo.HeaderAccept, tc.accept)
			}
			if tc.xhr != "" {
				req.Header.Set("X-Requested-With", tc.xhr)
			}
			require.Equal(t, tc.want, view.WantsJSON(e.NewContext(req, httptest.NewRecorder())))
		})
	}
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = view.ErrorHandler
	e.GET("/boom", func(echo.Context) error { return errors.New("db down") })
	e.POST("/big", func(echo.Context) error { return echo.ErrStatusRequestEntityTooLarge })

	cases := []struct {
		name, method, path string
		status             int
		body               string
	}{
		{"unknown route", http.MethodGet, "/missing", http.StatusNotFound, `{"error":"not found"}`},
		{"plain error hides cause", http.MethodGet, "/boom", http.StatusInternalServerError, `{"error":"Something went wrong. Please try again later."}`},
		{"http error keeps status", http.MethodPost, "/big", http.StatusRequestEntityTooLarge, `{"error":"Request Entity Too Large"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			req.Header.Set(echo.HeaderAccept, "application/json")
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			require.Equal(t, tc.status, rec.Code)
			require.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}
