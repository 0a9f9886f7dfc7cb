package app

import (
	"database/sql"

	"github.com/mingttam/employee-management/internal/config"
	"github.com/mingttam/employee-management/internal/employee"
	"github.com/mingttam/employee-management/internal/health"
	"github.com/mingttam/employee-management/internal/messaging/kafka"
	"github.com/mingttam/employee-management/internal/shared/password"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) {
	logger := zap.L()

	// --- Repositories ---
	employeeRepo := employee.NewRepository(gormDB)

	var outboxRepo kafka.OutboxRepository
	if cfg.Kafka.Enabled() {
		outboxRepo = kafka.NewOutboxRepository(db)
	}

	// --- Services ---
	hasher := password.NewBcryptHasher(cfg.Security.BcryptCost)
	employeeService := employee.NewServiceWithOutbox(db, employeeRepo, hasher, outboxRepo, rdb, logger)

	// --- Handlers ---
	employeeHandler := employee.NewHandler(employeeService, logger)
	healthHandler := health.NewHandler(db, rdb, logger)

	// --- Routes Registration ---
	health.RegisterRoutes(router, healthHandler)

	api := router.Group("/api")
	{
		employee.RegisterRoutes(api, employeeHandler, rdb, logger)
	}
}
