package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/apperr"
	"github.com/sylvester-francis/atcc-interview-test/internal/model"
	"github.com/sylvester-francis/atcc-interview-test/internal/view"
)

// LoginPath is where page requests without a session are sent.
const LoginPath = "/auth/login"

// UserFinder loads the account behind a session. A missing user must be
// reported with an error matching apperr.ErrNotFound.
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// RequireAuth rejects requests whose session carries no user: page
// requests are redirected to the login page, JSON clients get 401.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !CurrentSession(c).Authenticated() {
				return unauthenticated(c)
			}
			return next(c)
		}
	}
}

// CheckAuth attaches the active user of the session, if any. It never
// rejects a request.
func CheckAuth(users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			s := CurrentSession(c)
			if !s.Authenticated() {
				return next(c)
			}
			u, err := findUser(c, users, s.UserID)
			switch {
			case err == nil && u.IsActive:
				setUser(c, u)
			case err != nil && !errors.Is(err, apperr.ErrNotFound):
				log.Warn().Err(err).Str("user_id", s.UserID).Msg("auth: user lookup failed")
			}
			return next(c)
		}
	}
}

func unauthenticated(c echo.Context) error {
	if view.WantsJSON(c) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	return c.Redirect(http.StatusFound, LoginPath)
}

func findUser(c echo.Context, users UserFinder, id string) (*model.User, error) {
	if u := CurrentUser(c); u != nil && u.ID == id {
		return u, nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	return users.GetByID(ctx, id)
}
