package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/liurenlab/liuren/internal/config"
	"github.com/liurenlab/liuren/internal/middleware"
	"github.com/liurenlab/liuren/internal/plugins/divination"
	"github.com/liurenlab/liuren/internal/plugins/history"
)

// RegisterRoutes builds the plugin stack (repository -> service -> handler)
// and registers all routes. This is the single place where routes are
// aggregated.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check endpoint for container orchestration.
	e.GET("/healthz", a.health)

	// History repository depends on the configured backend.
	var repo history.Repository
	switch a.Config.History.Backend {
	case config.BackendMariaDB:
		repo = history.NewMariaDBRepository(a.DB)
	default:
		repo = history.NewRedisRepository(a.Redis, a.Config.History.Key)
	}

	historySvc := history.NewService(repo, a.Config.History.RetentionDays)

	oracle := divination.NewHTTPOracle(a.Config.Oracle.URL, a.Config.Oracle.Timeout)
	divinationSvc := divination.NewService(oracle,
		a.Config.TimeParsePolicy == config.ParseFallbackToNow)

	api := e.Group("/api/v1")

	// The history service doubles as the divination recorder: successful
	// queries are saved without blocking on storage failures.
	divination.RegisterRoutes(api,
		divination.NewHandler(divinationSvc, historySvc),
		middleware.RateLimit(a.Config.RateLimitPerMinute, time.Minute),
	)
	history.RegisterRoutes(api, history.NewHandler(historySvc))
}

// health pings the active history backend.
func (a *App) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	if a.Redis != nil {
		if err := a.Redis.Ping(ctx).Err(); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "redis unreachable"})
		}
	}
	if a.DB != nil {
		if err := a.DB.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "mariadb unreachable"})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
