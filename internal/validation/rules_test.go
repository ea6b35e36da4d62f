package validation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sylvester-francis/atcc-interview-test/internal/validation"
)

func TestErrors(t *testing.T) {
	t.Run("length", func(t *testing.T) {
		e := validation.NewErrors()
		e.Length("name", "", 2, 100)
		e.Length("subject", "", 0, 200)
		e.Length("message", "short", 10, 2000)
		require.Equal(t, "name is required", e["name"])
		require.NotContains(t, e, "subject")
		require.Contains(t, e["message"], "between 10 and 2000")
	})

	t.Run("first message wins", func(t *testing.T) {
		e := validation.NewErrors()
		e.Add("email", "first")
		e.Add("email", "second")
		require.Equal(t, "first", e["email"])
		require.False(t, e.OK())
	})

	t.Run("phone", func(t *testing.T) {
		e := validation.NewErrors()
		e.Phone("phone", "+1 (416) 555-0199", false)
		e.Phone("other", "", false)
		require.True(t, e.OK())

		e.Phone("bad", "0123", false)
		require.Contains(t, e, "bad")
	})

	t.Run("email", func(t *testing.T) {
		require.True(t, validation.IsEmail("info@atcccanada.ca"))
		require.False(t, validation.IsEmail("Info <info@atcccanada.ca>"))
		require.False(t, validation.IsEmail("root@localhost"))
		require.False(t, validation.IsEmail("not-an-email"))
	})

	t.Run("one of", func(t *testing.T) {
		e := validation.NewErrors()
		e.OneOf("status", "published", []string{"draft", "published"}, true)
		e.OneOf("category", "", []string{"news"}, false)
		require.True(t, e.OK())
		e.OneOf("role", "root", []string{"admin"}, true)
		require.Equal(t, "Invalid role", e["role"])
	})

	t.Run("username", func(t *testing.T) {
		e := validation.NewErrors()
		e.Username("username", "kavi_01")
		require.True(t, e.OK())
		e.Username("u2", "no spaces")
		require.Contains(t, e, "u2")
	})
}

func TestStripHTML(t *testing.T) {
	require.Equal(t, "Hello world & friends", validation.StripHTML("<p>Hello <b>world</b> &amp; friends</p>"))
	require.Equal(t, "hi", validation.CleanText(" <i>hi</i> "))
	require.Equal(t, "", validation.CleanText("<script>alert(1)</script>"))
	require.Equal(t, "", validation.StripHTML(""))
}
