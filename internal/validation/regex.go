package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxSearchTermLength bounds free-text search input.
const MaxSearchTermLength = 100

// SafePattern turns a search term into a case-insensitive pattern that
// matches the term literally. ok is false when the term is not a string,
// is blank or is longer than MaxSearchTermLength characters.
func SafePattern(term any) (string, bool) {
	s, isString := term.(string)
	if !isString || s == "" || utf8.RuneCountInString(s) > MaxSearchTermLength {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return "(?i)" + regexp.QuoteMeta(s), true
}

// SafeRegex compiles SafePattern. Compilation cannot fail for a quoted
// literal but the error is still checked.
func SafeRegex(term any) (*regexp.Regexp, bool) {
	p, ok := SafePattern(term)
	if !ok {
		return nil, false
	}
	re, err := regexp.Compile(p)
	if err != nil {
		return nil, false
	}
	return re, true
}

// SQLPattern is SafePattern without the inline flag, for MySQL REGEXP
// whose case sensitivity follows the column collation (utf8mb4 *_ci).
func SQLPattern(term any) (string, bool) {
	p, ok := SafePattern(term)
	if !ok {
		return "", false
	}
	return strings.TrimPrefix(p, "(?i)"), true
}
