package middleware

import (
	"net"

	"github.com/labstack/echo/v4"
)

// TrustedProxies configures how c.RealIP() resolves the client address.
// Forwarding headers (X-Forwarded-For, X-Real-IP) are honored only when the
// direct peer falls inside one of the given CIDR ranges. The per-IP rate
// limiter on the divination endpoint depends on this: without it every
// client behind the reverse proxy would share one bucket.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) {
	opts := make([]echo.TrustOption, 0, len(trustedCIDRs)+2)
	opts = append(opts,
		echo.TrustLoopback(true),
		echo.TrustPrivateNet(false),
	)
	for _, cidr := range trustedCIDRs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			// Invalid ranges are a deploy-time mistake; skip rather than refuse
			// to start.
			continue
		}
		opts = append(opts, echo.TrustIPRange(network))
	}
	e.IPExtractor = echo.ExtractIPFromXFFHeader(opts...)
}
