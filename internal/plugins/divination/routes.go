package divination

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up divination routes on the given API group.
// The query endpoint is rate limited per client IP to protect the
// upstream oracle.
func RegisterRoutes(g *echo.Group, h *Handler, rateLimit echo.MiddlewareFunc) {
	g.POST("/divination", h.Divine, rateLimit)
}
