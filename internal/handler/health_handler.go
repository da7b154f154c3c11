package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/studentevent/api/pkg/database"
	pkgredis "github.com/studentevent/api/pkg/redis"
)

// HealthHandler reports service and dependency health
type HealthHandler struct {
	db      *database.PostgresDB
	redis   *pkgredis.Client
	service string
	version string
}

// NewHealthHandler creates a new health handler. redis may be nil
// when the queue runs in-process.
func NewHealthHandler(db *database.PostgresDB, redis *pkgredis.Client, service, version string) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, service: service, version: version}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}

	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			checks["postgres"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			checks["postgres"] = "up"
		}
	}
	if h.redis != nil {
		if err := h.redis.HealthCheck(c.Request.Context()); err != nil {
			checks["redis"] = "down"
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "up"
		}
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"service": h.service,
		"version": h.version,
		"status":  overall,
		"checks":  checks,
	})
}

// Ready handles GET /ready. Readiness only needs the database; the
// service works without Redis.
func (h *HealthHandler) Ready(c *gin.Context) {
	if h.db != nil {
		if err := h.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
