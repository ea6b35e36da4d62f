package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/sylvester-francis/atcc-interview-test/internal/middleware"
)

func TestValidateID(t *testing.T) {
	e := echo.New()
	e.GET("/events/:id", ok, middleware.ValidateID("id"))
	e.GET("/events/", ok, middleware.ValidateID("id"))

	for name, tc := range map[string]struct {
		path string
		code int
		body string
	}{
		"valid":   {path: "/events/" + uuid.NewString(), code: http.StatusOK, body: "ok"},
		"invalid": {path: "/events/42", code: http.StatusBadRequest, body: `{"error":"Invalid id format"}`},
		"missing": {path: "/events/", code: http.StatusBadRequest, body: `{"error":"Missing id parameter"}`},
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			require.Equal(t, tc.code, rec.Code)
			require.Equal(t, tc.body, trimNL(rec.Body.String()))
		})
	}
}
