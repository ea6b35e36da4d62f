// Package validation strips dangerous keys from untrusted input, builds
// literal search patterns and checks form fields.
package validation

import (
	"net/url"
	"strings"
)

// blockedKeys are property names that can rewrite object prototypes in
// JavaScript consumers of the same payload.
var blockedKeys = map[string]bool{
	"__proto__":   true,
	"constructor": true,
	"prototype":   true,
}

// IsDangerousKey reports whether a client supplied key must be dropped:
// query operators start with '$' and prototype names are blocked outright.
func IsDangerousKey(k string) bool {
	return strings.HasPrefix(k, "$") || blockedKeys[k]
}

// Sanitize returns v with every dangerous mapping key removed at any depth.
// Slices are walked so maps nested inside them are cleaned too. Scalars are
// returned as is. The input is not modified.
func Sanitize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if IsDangerousKey(k) {
				continue
			}
			out[k] = Sanitize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Sanitize(val)
		}
		return out
	default:
		return v
	}
}

// SanitizeValues drops dangerous keys from query or form values. It reports
// whether anything was removed.
func SanitizeValues(vals url.Values) bool {
	removed := false
	for k := range vals {
		if IsDangerousKey(k) || hasDangerousSegment(k) {
			delete(vals, k)
			removed = true
		}
	}
	return removed
}

// hasDangerousSegment catches bracket notation such as filter[$ne] or
// a[__proto__][x] that body parsers expand into nested objects.
func hasDangerousSegment(k string) bool {
	if !strings.Contains(k, "[") {
		return false
	}
	for _, seg := range strings.FieldsFunc(k, func(r rune) bool { return r == '[' || r == ']' || r == '.' }) {
		if IsDangerousKey(seg) {
			return true
		}
	}
	return false
}
