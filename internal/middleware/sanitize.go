package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/sylvester-francis/atcc-interview-test/internal/validation"
)

const maxMultipartMemory = 8 << 20

// Sanitize drops operator ($-prefixed) and prototype keys from the query
// string, url-encoded and multipart forms, and JSON bodies before any
// handler binds them. A body that is not valid JSON is left for Bind to
// reject.
func Sanitize() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			if r.URL.RawQuery != "" {
				q := r.URL.Query()
				if validation.SanitizeValues(q) {
					r.URL.RawQuery = q.Encode()
				}
			}
			if r.Body == nil || r.Body == http.NoBody {
				return next(c)
			}

			ct := r.Header.Get(echo.HeaderContentType)
			switch {
			case strings.HasPrefix(ct, echo.MIMEApplicationJSON):
				if err := sanitizeJSONBody(r); err != nil {
					return err
				}
			case strings.HasPrefix(ct, echo.MIMEApplicationForm):
				if err := r.ParseForm(); err == nil {
					validation.SanitizeValues(r.PostForm)
					validation.SanitizeValues(r.Form)
				}
			case strings.HasPrefix(ct, echo.MIMEMultipartForm):
				if err := r.ParseMultipartForm(maxMultipartMemory); err == nil {
					validation.SanitizeValues(r.MultipartForm.Value)
					validation.SanitizeValues(r.Form)
				}
			}
			return next(c)
		}
	}
}

func sanitizeJSONBody(r *http.Request) error {
	raw, err := io.ReadAll(r.Body)
	_ = r.Body.Close()
	if err != nil {
		// BodyLimit reports oversize bodies through the read error.
		return err
	}
	restore := func(b []byte) {
		r.Body = io.NopCloser(bytes.NewReader(b))
		r.ContentLength = int64(len(b))
		r.Header.Set(echo.HeaderContentLength, strconv.Itoa(len(b)))
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		restore(raw)
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(validation.Sanitize(v)); err != nil {
		restore(raw)
		return nil
	}
	restore(bytes.TrimRight(buf.Bytes(), "\n"))
	return nil
}
