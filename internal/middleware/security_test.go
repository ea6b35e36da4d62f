package middleware_test

import (
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/sylvester-francis/atcc-interview-test/internal/middleware"
)

func TestSecureHeaders(t *testing.T) {
	for name, production := range map[string]bool{"development": false, "production": true} {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			e.Use(middleware.SecureHeaders(production))
			e.Use(middleware.RequestLogger())
			e.GET("/health", ok)

			rec := get(e, "/health", nil, "")
			require.Equal(t, http.StatusOK, rec.Code)
			require.Equal(t, "nosniff", rec.Header().Get(echo.HeaderXContentTypeOptions))
			require.Equal(t, "DENY", rec.Header().Get(echo.HeaderXFrameOptions))
			require.Contains(t, rec.Header().Get(echo.HeaderContentSecurityPolicy), "default-src 'self'")
			require.Equal(t, "strict-origin-when-cross-origin", rec.Header().Get(echo.HeaderReferrerPolicy))
			// httptest requests are plain HTTP, so HSTS never shows up here.
			require.Empty(t, rec.Header().Get(echo.HeaderStrictTransportSecurity))
		})
	}
}
