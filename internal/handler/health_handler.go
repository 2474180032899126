package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kitchen-service/pkg/cache"
	"kitchen-service/pkg/database"
	"kitchen-service/pkg/logger"
)

const healthTimeout = 2 * time.Second

// HealthChecker reports whether the database and cache are reachable
type HealthChecker struct {
	db    *gorm.DB
	cache cache.Cache
}

// NewHealthChecker creates a checker. A nil cache is reported as disabled.
func NewHealthChecker(db *gorm.DB, c cache.Cache) *HealthChecker {
	return &HealthChecker{db: db, cache: c}
}

// Check answers 200 when every dependency responds and 503 otherwise
func (h *HealthChecker) Check(c echo.Context) error {
	log := logger.FromEcho(c)
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	status := http.StatusOK
	body := echo.Map{"status": "ok", "database": "up", "cache": "disabled"}

	if err := database.Ping(ctx, h.db); err != nil {
		log.Error("Database health check failed", zap.Error(err))
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["database"] = "down"
	}

	if h.cache != nil {
		body["cache"] = "up"
		if err := h.cache.Ping(ctx); err != nil {
			log.Error("Cache health check failed", zap.Error(err))
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["cache"] = "down"
		}
	}

	return c.JSON(status, body)
}
