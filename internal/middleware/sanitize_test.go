package middleware_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/sylvester-francis/atcc-interview-test/internal/middleware"
)

func TestSanitize(t *testing.T) {
	e := echo.New()
	e.Use(middleware.Sanitize())
	e.Any("/echo", func(c echo.Context) error {
		switch {
		case strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON):
			raw, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return err
			}
			return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, raw)
		case c.Request().Method == http.MethodPost:
			form, err := c.FormParams()
			if err != nil {
				return err
			}
			return c.JSON(http.StatusOK, form)
		default:
			return c.JSON(http.StatusOK, c.QueryParams())
		}
	})

	t.Run("query string", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/echo?city=Toronto&$where=1&filter[$ne]=x&__proto__=y", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var got url.Values
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, url.Values{"city": {"Toronto"}}, got)
	})

	t.Run("url encoded form", func(t *testing.T) {
		body := url.Values{"email": {"a@b.ca"}, "$gt": {""}, "constructor": {"x"}}.Encode()
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var got url.Values
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		require.Equal(t, url.Values{"email": {"a@b.ca"}}, got)
	})

	t.Run("json body at every depth", func(t *testing.T) {
		body := `{"email":{"$ne":null},"profile":{"prototype":{"admin":true},"bio":"<b>hi</b>"},"tags":[{"$gt":""},"x",1234567890123456789],"views":3}`
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"email":{},"profile":{"bio":"<b>hi</b>"},"tags":[{},"x",1234567890123456789],"views":3}`, rec.Body.String())
	})

	t.Run("invalid json left for bind", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"$ne":`))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, `{"$ne":`, rec.Body.String())
	})
}
