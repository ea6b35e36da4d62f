package config

import (
	"strconv"
	"strings"
	"time"
)

// Policy names used when tagging routes.
const (
	PolicyGeneral       = "general"
	PolicyAuth          = "auth"
	PolicyAdmin         = "admin"
	PolicyContentCreate = "content-create"
	PolicyContact       = "contact"
	PolicyPasswordReset = "password-reset"
)

// RateLimitPolicy is one named fixed window. Message and RetryAfter are the
// human readable parts of the 429 body.
type RateLimitPolicy struct {
	Name           string
	Window         time.Duration
	Max            int
	Message        string
	RetryAfter     string
	SkipSuccessful bool // successful responses give their hit back
}

type RateLimitConfig struct {
	Enabled  bool
	Prefix   string
	Policies map[string]RateLimitPolicy
}

// Policy returns the named policy; unknown names fall back to general.
func (c RateLimitConfig) Policy(name string) RateLimitPolicy {
	if p, ok := c.Policies[name]; ok {
		return p
	}
	return c.Policies[PolicyGeneral]
}

// DefaultPolicies is the stock table before env overrides.
func DefaultPolicies() map[string]RateLimitPolicy {
	list := []RateLimitPolicy{
		{Name: PolicyGeneral, Window: 15 * time.Minute, Max: 1000,
			Message: "Too many requests, please try again later.", RetryAfter: "15 minutes"},
		{Name: PolicyAuth, Window: 15 * time.Minute, Max: 5, SkipSuccessful: true,
			Message: "Too many login attempts, please try again later.", RetryAfter: "15 minutes"},
		{Name: PolicyAdmin, Window: 5 * time.Minute, Max: 100,
			Message: "Too many admin operations, please slow down.", RetryAfter: "5 minutes"},
		{Name: PolicyContentCreate, Window: time.Hour, Max: 10,
			Message: "Too many content creation attempts, please try again later.", RetryAfter: "1 hour"},
		{Name: PolicyContact, Window: time.Hour, Max: 3,
			Message: "Too many form submissions, please try again later.", RetryAfter: "1 hour"},
		{Name: PolicyPasswordReset, Window: time.Hour, Max: 3,
			Message: "Too many password reset attempts, please try again later.", RetryAfter: "1 hour"},
	}
	m := make(map[string]RateLimitPolicy, len(list))
	for _, p := range list {
		m[p.Name] = p
	}
	return m
}

// LoadRateLimitConfig applies RATE_LIMIT_<NAME>_MAX and RATE_LIMIT_<NAME>_WINDOW
// on top of DefaultPolicies. NAME is the policy name upper-cased with '-'
// replaced by '_', e.g. RATE_LIMIT_CONTENT_CREATE_MAX.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:  envBool("RATE_LIMIT_ENABLED", true),
		Prefix:   envStr("RATE_LIMIT_PREFIX", "rl"),
		Policies: DefaultPolicies(),
	}
	for name, p := range cfg.Policies {
		env := "RATE_LIMIT_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		if n := envInt(env+"_MAX", p.Max); n > 0 {
			p.Max = n
		}
		if w := envDur(env+"_WINDOW", p.Window); w > 0 {
			if w != p.Window {
				p.RetryAfter = humanDuration(w)
			}
			p.Window = w
		}
		cfg.Policies[name] = p
	}
	return cfg
}

func envStr(k, d string) string { return getenv(k, d) }

// humanDuration renders whole hours or minutes the way the stock hints read.
func humanDuration(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return plural(int(d.Round(time.Second)/time.Second), "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
