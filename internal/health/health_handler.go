package health

import (
	"context"
	"net/http"
	"time"

	"github.com/mingttam/employee-management/internal/shared/apperror"
	"github.com/mingttam/employee-management/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pingTimeout = 2 * time.Second

type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	db     Pinger
	rdb    *redis.Client
	logger *zap.Logger
}

// NewHandler reports on db and, when rdb is non-nil, on redis.
func NewHandler(db Pinger, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("health.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("health.handler")
	}
	return &Handler{db: db, rdb: rdb, logger: l}
}

func (h *Handler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
	defer cancel()

	status := gin.H{"database": "up"}
	healthy := true

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error("database ping failed", zap.Error(err))
		status["database"] = "down"
		healthy = false
	}

	// Redis only backs the cache, so it never fails the check.
	if h.rdb != nil {
		status["redis"] = "up"
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			h.logger.Warn("redis ping failed", zap.Error(err))
			status["redis"] = "down"
		}
	}

	if !healthy {
		response.Error(c, http.StatusServiceUnavailable, apperror.CodeServiceUnavailable, "Service unavailable", status)
		return
	}
	response.Success(c, http.StatusOK, "OK", status)
}

func RegisterRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/healthz", handler.Check)
}
