package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/csrf"
	"github.com/sylvester-francis/atcc-interview-test/internal/session"
)

const (
	CSRFHeader    = "X-CSRF-Token"
	csrfAltHeader = "CSRF-Token"
	csrfField     = "_csrf"
)

// CSRFConfig configures the double-submit guard.
type CSRFConfig struct {
	// Skipper exempts requests, usually by matched route path.
	Skipper  echomw.Skipper
	Sessions *session.Manager
}

// CSRF issues a per-session secret on safe requests and exposes a fresh
// token for it, then requires a matching token on every unsafe request.
// A missing secret or token and a token that fails verification are
// reported separately, both as 403.
func CSRF(cfg CSRFConfig) echo.MiddlewareFunc {
	if cfg.Skipper == nil {
		cfg.Skipper = echomw.DefaultSkipper
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if isSafeMethod(c.Request().Method) {
				issueToken(c, cfg.Sessions)
				return next(c)
			}
			if cfg.Skipper(c) || csrfSkipped(c) {
				return next(c)
			}

			s := CurrentSession(c)
			token := tokenFromRequest(c)
			if s == nil || s.CSRFSecret == "" || token == "" {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "CSRF token missing"})
			}
			if !csrf.Verify(s.CSRFSecret, token) {
				log.Info().Str("path", c.Request().URL.Path).Str("ip", c.RealIP()).Msg("csrf: invalid token")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "Invalid CSRF token"})
			}
			return next(c)
		}
	}
}

// IssueToken makes sure the session has a secret and publishes a fresh
// token for it. Handlers call it after replacing the session on login or
// logout so the response carries a token bound to the new secret.
func IssueToken(c echo.Context, mgr *session.Manager) string {
	issueToken(c, mgr)
	return CSRFToken(c)
}

func issueToken(c echo.Context, mgr *session.Manager) {
	s, err := mgr.Ensure(c, CurrentSession(c))
	if err != nil {
		log.Error().Err(err).Msg("csrf: cannot issue secret")
		return
	}
	SetSession(c, s)
	token, err := csrf.Token(s.CSRFSecret)
	if err != nil {
		log.Error().Err(err).Msg("csrf: cannot mint token")
		return
	}
	c.Set(ctxCSRFToken, token)
	c.Response().Header().Set(CSRFHeader, token)
}

func isSafeMethod(m string) bool {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// tokenFromRequest looks in the headers, then the form, then a JSON body.
func tokenFromRequest(c echo.Context) string {
	r := c.Request()
	if t := r.Header.Get(CSRFHeader); t != "" {
		return t
	}
	if t := r.Header.Get(csrfAltHeader); t != "" {
		return t
	}
	ct := r.Header.Get(echo.HeaderContentType)
	switch {
	case strings.HasPrefix(ct, echo.MIMEApplicationForm), strings.HasPrefix(ct, echo.MIMEMultipartForm):
		return c.FormValue(csrfField)
	case strings.HasPrefix(ct, echo.MIMEApplicationJSON):
		if r.Body == nil {
			return ""
		}
		raw, err := io.ReadAll(r.Body)
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(raw))
		if err != nil {
			return ""
		}
		var body struct {
			CSRF string `json:"_csrf"`
		}
		if json.Unmarshal(raw, &body) != nil {
			return ""
		}
		return body.CSRF
	}
	return ""
}

// SkipPaths returns a Skipper that matches the route paths given.
func SkipPaths(paths ...string) echomw.Skipper {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return func(c echo.Context) bool { return set[c.Path()] }
}
