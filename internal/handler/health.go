package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sylvester-francis/atcc-interview-test/internal/middleware"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "OK", "timestamp": time.Now().UTC().Format(time.RFC3339Nano)})
}

// CSRFToken returns the token the CSRF guard minted for this request.
func CSRFToken(c echo.Context) error {
	t := middleware.CSRFToken(c)
	if t == "" {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "CSRF token unavailable"})
	}
	return c.JSON(http.StatusOK, echo.Map{"csrfToken": t})
}
