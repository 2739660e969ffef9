package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Pinger is any dependency the health check can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthStatus is the health check response body.
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
	Breakers  map[string]string `json:"circuit_breakers,omitempty"`
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	database Pinger
	redis    Pinger
	breakers func() map[string]string
	logger   *logrus.Logger
}

// NewHealthHandler creates a new health handler. Nil dependencies are
// reported as not configured.
func NewHealthHandler(database, redis Pinger, breakers func() map[string]string, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{
		database: database,
		redis:    redis,
		breakers: breakers,
		logger:   logger,
	}
}

// GetHealth reports "ok", "degraded" when redis is down and "unhealthy"
// when the database is down.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := HealthStatus{
		Status:    "ok",
		Service:   "lineup-api",
		Timestamp: time.Now(),
		Checks:    make(map[string]string),
	}

	if h.database != nil {
		if err := h.database.Ping(ctx); err != nil {
			response.Status = "unhealthy"
			response.Checks["database"] = "failed: " + err.Error()
		} else {
			response.Checks["database"] = "ok"
		}
	} else {
		response.Checks["database"] = "not_configured"
	}

	// the cache is optional, losing it only degrades the service
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			if response.Status == "ok" {
				response.Status = "degraded"
			}
			response.Checks["redis"] = "failed: " + err.Error()
		} else {
			response.Checks["redis"] = "ok"
		}
	} else {
		response.Checks["redis"] = "not_configured"
	}

	if h.breakers != nil {
		response.Breakers = h.breakers()
	}

	statusCode := http.StatusOK
	if response.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
		h.logger.WithField("checks", response.Checks).Warn("Health check failed")
	}

	c.JSON(statusCode, response)
}
