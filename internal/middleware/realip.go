package middleware

import (
	"net"

	"github.com/labstack/echo/v4"
)

// ClientIP picks how c.RealIP() resolves the caller, and through it the
// rate-limit keys. Outside production the socket address is used and
// forwarding headers are ignored. In production X-Forwarded-For is honoured
// only when the request arrives from loopback, a private range or one of
// trusted; the rightmost untrusted hop is the client.
func ClientIP(production bool, trusted ...*net.IPNet) echo.IPExtractor {
	if !production {
		return echo.ExtractIPDirect()
	}
	opts := make([]echo.TrustOption, 0, len(trusted))
	for _, n := range trusted {
		opts = append(opts, echo.TrustIPRange(n))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}
