package validation

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Errors collects field level messages. The zero value is not usable; use
// NewErrors.
type Errors map[string]string

func NewErrors() Errors { return Errors{} }

// Add keeps the first message recorded for a field.
func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) OK() bool { return len(e) == 0 }

var (
	phoneRe    = regexp.MustCompile(`^[\+]?[1-9][\d]{0,15}$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	websiteRe  = regexp.MustCompile(`^https?://[^\s]+$`)
)

// Length checks rune length of an already trimmed value. A lo of zero makes
// the field optional and a hi of zero leaves it unbounded.
func (e Errors) Length(field, v string, lo, hi int) {
	n := utf8.RuneCountInString(v)
	if n == 0 && lo > 0 {
		e.Add(field, field+" is required")
		return
	}
	if n < lo || (hi > 0 && n > hi) {
		if hi > 0 {
			e.Add(field, field+" must be between "+strconv.Itoa(lo)+" and "+strconv.Itoa(hi)+" characters")
		} else {
			e.Add(field, field+" must be at least "+strconv.Itoa(lo)+" characters")
		}
	}
}

// Email validates address syntax. Empty is accepted unless required.
func (e Errors) Email(field, v string, required bool) {
	if v == "" {
		if required {
			e.Add(field, field+" is required")
		}
		return
	}
	if !IsEmail(v) {
		e.Add(field, "Please provide a valid email")
	}
}

// Phone accepts an optional leading '+' and up to 16 digits.
func (e Errors) Phone(field, v string, required bool) {
	if v == "" {
		if required {
			e.Add(field, field+" is required")
		}
		return
	}
	if !phoneRe.MatchString(NormalizePhone(v)) {
		e.Add(field, "Please provide a valid phone number")
	}
}

// OneOf checks membership. Empty is accepted unless required.
func (e Errors) OneOf(field, v string, allowed []string, required bool) {
	if v == "" {
		if required {
			e.Add(field, field+" is required")
		}
		return
	}
	for _, a := range allowed {
		if v == a {
			return
		}
	}
	e.Add(field, "Invalid "+field)
}

func (e Errors) Username(field, v string) {
	e.Length(field, v, 3, 30)
	if v != "" && !usernameRe.MatchString(v) {
		e.Add(field, field+" may contain only letters, numbers and underscores")
	}
}

func (e Errors) Website(field, v string) {
	if v != "" && !websiteRe.MatchString(v) {
		e.Add(field, "Please provide a valid website URL")
	}
}

// IsEmail is a strict-enough check: a bare address with a dotted domain.
func IsEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return false
	}
	at := strings.LastIndex(v, "@")
	return at > 0 && strings.Contains(v[at+1:], ".")
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// NormalizePhone drops the separators people type between digit groups.
func NormalizePhone(v string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", ".", "").Replace(strings.TrimSpace(v))
}
