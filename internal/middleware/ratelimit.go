package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// window tracks request counts for one client IP.
type window struct {
	count int
	start time.Time
}

// RateLimit caps requests per client IP to maxRequests within the given
// period, answering 429 past the cap. Counting uses fixed windows kept in
// memory; stale windows are swept inline once per period instead of from a
// background goroutine, so the limiter holds no resources when idle. The
// divination endpoint sits in front of a third-party oracle, which is the
// reason for limiting at all.
func RateLimit(maxRequests int, period time.Duration) echo.MiddlewareFunc {
	var (
		mu        sync.Mutex
		windows   = make(map[string]*window)
		lastSweep time.Time
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			now := time.Now()

			mu.Lock()
			if now.Sub(lastSweep) > period {
				for key, w := range windows {
					if now.Sub(w.start) > period {
						delete(windows, key)
					}
				}
				lastSweep = now
			}

			w, ok := windows[ip]
			if !ok || now.Sub(w.start) > period {
				windows[ip] = &window{count: 1, start: now}
				mu.Unlock()
				return next(c)
			}

			w.count++
			over := w.count > maxRequests
			mu.Unlock()

			if over {
				return c.JSON(http.StatusTooManyRequests, map[string]string{
					"error":   http.StatusText(http.StatusTooManyRequests),
					"message": "Rate limit exceeded. Please try again later.",
				})
			}
			return next(c)
		}
	}
}
