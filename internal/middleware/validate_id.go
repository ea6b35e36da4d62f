package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ValidateID rejects requests whose route parameter param is missing or
// not a UUID before any lookup happens.
func ValidateID(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			v := c.Param(param)
			if v == "" {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Missing " + param + " parameter"})
			}
			if _, err := uuid.Parse(v); err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid " + param + " format"})
			}
			return next(c)
		}
	}
}
