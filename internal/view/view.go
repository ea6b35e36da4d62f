// Package view renders the few HTML pages the site serves itself: the
// access denied, not found and server error pages.
package view

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var files embed.FS

var pages = template.Must(template.ParseFS(files, "templates/*.html"))

// Page is the data every error page receives.
type Page struct {
	Title   string
	Message string
	Status  int
}

// WantsJSON reports whether the client asked for a machine readable reply:
// an Accept header naming JSON, an XHR request or a /api/ path.
func WantsJSON(c echo.Context) bool {
	r := c.Request()
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest") {
		return true
	}
	accept := r.Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}

// Forbidden answers 403 with the access denied page, or JSON for API
// clients.
func Forbidden(c echo.Context) error {
	if WantsJSON(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return render(c, http.StatusForbidden, "forbidden.html", Page{
		Title:   "Access Denied",
		Message: "You do not have permission to view this page.",
		Status:  http.StatusForbidden,
	})
}

// NotFound answers 404.
func NotFound(c echo.Context) error {
	if WantsJSON(c) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	}
	return render(c, http.StatusNotFound, "not_found.html", Page{
		Title:   "Page Not Found",
		Message: "The page you are looking for does not exist.",
		Status:  http.StatusNotFound,
	})
}

// ServerError answers 500 without leaking err to the client.
func ServerError(c echo.Context) error {
	if WantsJSON(c) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Something went wrong. Please try again later."})
	}
	return render(c, http.StatusInternalServerError, "error.html", Page{
		Title:   "Server Error",
		Message: "Something went wrong. Please try again later.",
		Status:  http.StatusInternalServerError,
	})
}

func render(c echo.Context, status int, name string, p Page) error {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, p); err != nil {
		log.Err(err).Str("template", name).Msg("render page")
		return c.String(status, p.Title)
	}
	return c.HTMLBlob(status, buf.Bytes())
}

// ErrorHandler is the echo HTTPErrorHandler. 404 and 500 get the site's
// pages; other HTTP errors keep their status and message as JSON.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	msg := any(http.StatusText(status))
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status, msg = he.Code, he.Message
	}

	var werr error
	switch status {
	case http.StatusNotFound:
		werr = NotFound(c)
	case http.StatusInternalServerError:
		log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		werr = ServerError(c)
	default:
		if m, ok := msg.(string); ok {
			msg = echo.Map{"error": m}
		}
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(status)
		} else {
			werr = c.JSON(status, msg)
		}
	}
	if werr != nil {
		log.Warn().Err(werr).Msg("error handler: write failed")
	}
}
