package handlers

import (
	"context"
	"net/http"
	"time"

	"firmbill/internal/caching"
	"firmbill/internal/services"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 3 * time.Second

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlers handles health check and monitoring endpoints
type HealthHandlers struct {
	db       Pinger
	cacheSvc caching.CacheService
	archive  services.DocumentArchive
	version  string
	started  time.Time
}

// NewHealthHandlers creates a new health handlers instance. archive may be nil
// when document storage is not configured.
func NewHealthHandlers(db Pinger, cacheSvc caching.CacheService, archive services.DocumentArchive, version string) *HealthHandlers {
	return &HealthHandlers{
		db:       db,
		cacheSvc: cacheSvc,
		archive:  archive,
		version:  version,
		started:  time.Now(),
	}
}

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Uptime    string            `json:"uptime"`
	Version   string            `json:"version"`
}

// HealthCheck reports every dependency, answering 206 when one is down
func (h *HealthHandlers) HealthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	health := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  make(map[string]string),
		Version:   h.version,
		Uptime:    time.Since(h.started).Round(time.Second).String(),
	}

	record := func(name string, err error) {
		if err != nil {
			health.Services[name] = "unhealthy"
			health.Status = "degraded"
			return
		}
		health.Services[name] = "healthy"
	}

	record("database", h.db.Ping(ctx))
	record("cache", h.cacheSvc.Ping(ctx))
	if h.archive == nil {
		health.Services["storage"] = "disabled"
	} else {
		record("storage", h.archive.EnsureBucket(ctx))
	}

	statusCode := http.StatusOK
	if health.Status == "degraded" {
		statusCode = http.StatusPartialContent
	}
	return c.JSON(statusCode, health)
}

// ReadinessCheck determines if the application is ready to serve traffic
func (h *HealthHandlers) ReadinessCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status":  "not_ready",
			"message": "database unavailable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ready",
		"message": "All systems operational",
	})
}

// LivenessCheck determines if the application is running
func (h *HealthHandlers) LivenessCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "alive",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
