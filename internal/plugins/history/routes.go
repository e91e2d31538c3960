package history

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up all history routes on the given API group.
// Order matters: /grouped and /prune must register before /:id so the
// router doesn't swallow them as path parameters.
func RegisterRoutes(g *echo.Group, h *Handler) {
	g.GET("/history", h.List)
	g.GET("/history/grouped", h.Grouped)
	g.POST("/history", h.Create)
	g.POST("/history/prune", h.Prune)
	g.GET("/history/:id", h.Get)
	g.PUT("/history/:id", h.Update)
	g.DELETE("/history/:id", h.Delete)
}
