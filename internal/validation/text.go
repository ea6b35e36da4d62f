package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// StripHTML removes every tag from s and returns plain text. Entities that
// the policy escapes are decoded again; output escaping is left to the
// renderer that finally prints the value.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	return html.UnescapeString(strict.Sanitize(s))
}

// CleanText trims and strips markup from a single line or free-text field.
func CleanText(s string) string {
	return strings.TrimSpace(StripHTML(s))
}
