package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Pinger reports storage reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthRoutes registers liveness, readiness and metrics endpoints.
type HealthRoutes struct {
	db      Pinger
	metrics http.Handler
}

// NewHealthRoutes constructs health routes. db and metrics may be nil.
func NewHealthRoutes(db Pinger, metrics http.Handler) *HealthRoutes {
	return &HealthRoutes{db: db, metrics: metrics}
}

// RegisterRoutes registers health endpoints.
func (h *HealthRoutes) RegisterRoutes(s *echo.Echo) {
	s.GET("/health", h.handleHealth)
	s.GET("/healthz", h.handleReady)
	if h.metrics != nil {
		s.GET("/metrics", echo.WrapHandler(h.metrics))
	}
}

func (h *HealthRoutes) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthRoutes) handleReady(c echo.Context) error {
	if h.db == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
