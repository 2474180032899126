package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	"kitchen-service/prometheus"
)

// MetricsMiddleware records count and latency of every request, labelled
// with the route pattern rather than the raw path
func MetricsMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()

		err := next(c)
		if err != nil {
			c.Error(err)
		}

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		prometheus.RecordHTTPRequest(c.Request().Method, path, c.Response().Status, time.Since(start))
		return nil
	}
}
