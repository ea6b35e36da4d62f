package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/session"
)

// LoadSession attaches the session named by the cookie, if any, and slides
// its expiry. A broken store is logged and the request continues without
// a session; the gates downstream then treat it as anonymous.
func LoadSession(mgr *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s, err := mgr.Load(c)
			if err != nil {
				log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("session: load failed")
				return next(c)
			}
			if s != nil {
				if err := mgr.Touch(c, s); err != nil {
					log.Warn().Err(err).Msg("session: touch failed")
				}
				SetSession(c, s)
			}
			return next(c)
		}
	}
}
