package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/apperr"
	"github.com/sylvester-francis/atcc-interview-test/internal/view"
)

// RequireRole returns a middleware that only lets through active users
// holding one of roles. The user is loaded fresh on every request so a
// role change or deactivation takes effect immediately, and is attached to
// the context for the handler. Requests without a login are treated as
// in RequireAuth.
func RequireRole(users UserFinder, roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := CurrentSession(c)
			if !s.Authenticated() {
				return unauthenticated(c)
			}
			u, err := findUser(c, users, s.UserID)
			if errors.Is(err, apperr.ErrNotFound) {
				return view.Forbidden(c)
			}
			if err != nil {
				log.Error().Err(err).Str("user_id", s.UserID).Msg("role: user lookup failed")
				return view.ServerError(c)
			}
			if !u.IsActive || !allowed[u.Role] {
				log.Info().Str("user_id", u.ID).Str("role", u.Role).Str("path", c.Request().URL.Path).Msg("role: access denied")
				return view.Forbidden(c)
			}
			setUser(c, u)
			return next(c)
		}
	}
}
