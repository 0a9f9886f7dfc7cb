package app

import (
	"context"

	"github.com/mingttam/employee-management/internal/config"
	"github.com/mingttam/employee-management/internal/middleware"
	"github.com/mingttam/employee-management/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BuildApp connects the infrastructure, installs the global middleware and
// registers every module on router. The returned func releases connections.
func BuildApp(router *gin.Engine, cfg *config.Config) (func(ctx context.Context), error) {
	logger := zap.L().Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled() {
		rdb, err = connection.ConnectRedisWithRetry(cfg.Redis.Addr, cfg.Database.MaxRetries, logger)
		if err != nil {
			// The list cache and idempotency are optional.
			logger.Warn("redis unavailable, continuing without cache", zap.Error(err))
			rdb = nil
		}
	}

	router.Use(
		middleware.ContextLogger(zap.L().Named("http")),
		middleware.CORS(cfg.CORS.AllowedOrigins),
		middleware.RateLimitByIP(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst),
	)

	registerModules(router, cfg, sqlDB, gormDB, rdb)

	cleanup := func(ctx context.Context) {
		if rdb != nil {
			if err := rdb.Close(); err != nil {
				logger.Warn("close redis failed", zap.Error(err))
			}
		}
		if err := sqlDB.Close(); err != nil {
			logger.Warn("close database failed", zap.Error(err))
		}
	}
	return cleanup, nil
}
