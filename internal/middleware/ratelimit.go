package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/sylvester-francis/atcc-interview-test/internal/config"
	"github.com/sylvester-francis/atcc-interview-test/internal/ratelimit"
)

// RateLimits hands out the per-policy middleware for one limiter.
type RateLimits struct {
	cfg config.RateLimitConfig
	lim ratelimit.Limiter
}

func NewRateLimits(cfg config.RateLimitConfig, lim ratelimit.Limiter) *RateLimits {
	return &RateLimits{cfg: cfg, lim: lim}
}

// For returns the middleware of the named policy. With rate limiting
// disabled it is a pass-through.
func (r *RateLimits) For(name string) echo.MiddlewareFunc {
	if !r.cfg.Enabled || r.lim == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return RateLimit(r.cfg.Policy(name), r.lim)
}

// RateLimit counts requests per client IP in the policy's fixed window.
// Every response carries the RateLimit-* headers; a request over the limit
// gets 429 with the policy message and never reaches next. Limiter errors
// fail open.
func RateLimit(policy config.RateLimitPolicy, lim ratelimit.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := rateKey(policy.Name, c)

			d, err := lim.Allow(ctx, key, policy.Max, policy.Window)
			if err != nil {
				log.Warn().Err(err).Str("policy", policy.Name).Str("key", key).Msg("ratelimit: limiter error, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("RateLimit-Remaining", strconv.Itoa(d.Remaining))
			reset := resetSeconds(d.ResetAt)
			h.Set("RateLimit-Reset", strconv.Itoa(reset))

			if !d.Allowed {
				h.Set("Retry-After", strconv.Itoa(reset))
				log.Info().Str("policy", policy.Name).Str("ip", c.RealIP()).Str("path", c.Request().URL.Path).Msg("ratelimit: blocked")
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":      policy.Message,
					"retryAfter": policy.RetryAfter,
				})
			}

			err = next(c)
			if policy.SkipSuccessful && err == nil && c.Response().Status < http.StatusBadRequest {
				if uerr := lim.Undo(ctx, key); uerr != nil {
					log.Warn().Err(uerr).Str("key", key).Msg("ratelimit: undo failed")
				}
			}
			return err
		}
	}
}

func rateKey(policy string, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return policy + ":" + ip
}

func resetSeconds(at time.Time) int {
	secs := int(math.Ceil(time.Until(at).Seconds()))
	if secs < 0 {
		return 0
	}
	return secs
}
