package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/TalaGit/tala_pos/internal/cache"
	"github.com/TalaGit/tala_pos/internal/service"
	"github.com/TalaGit/tala_pos/internal/utils"
)

var startTime = time.Now()

// HealthHandler provides health endpoint.
type HealthHandler struct {
	db    *sqlx.DB
	redis *cache.RedisClient
	probe service.ConnectivityChecker
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db *sqlx.DB, redis *cache.RedisClient, probe service.ConnectivityChecker) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, probe: probe}
}

// GetHealth responds with database, cache and upstream connectivity status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()

	dbStatus := "connected"
	if err := h.db.PingContext(ctx); err != nil {
		dbStatus = "disconnected"
	}

	redisStatus := "connected"
	if err := h.redis.Ping(ctx); err != nil {
		redisStatus = "disconnected"
	}

	upstream := "reachable"
	if !h.probe.Online(ctx) {
		upstream = "unreachable"
	}

	status := "healthy"
	if dbStatus != "connected" {
		status = "degraded"
	}

	utils.Success(c, 200, "Service is healthy", gin.H{
		"status":   status,
		"version":  "1.0.0",
		"uptime":   int(time.Since(startTime).Seconds()),
		"database": dbStatus,
		"redis":    redisStatus,
		"upstream": upstream,
	})
}
