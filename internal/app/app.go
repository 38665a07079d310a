package app

import (
	"context"
	"fmt"

	"go-timeoff/internal/shared/config"
	"go-timeoff/internal/shared/connection"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BuildApp connects the stores and registers every route on router. The
// returned shutdown drains the notification dispatcher and closes connections.
func BuildApp(router *gin.Engine, cfg *config.Config) (func(ctx context.Context), error) {
	logger := zap.L().Named("app")

	gormDB, err := connection.ConnectGORMWithRetry(
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBPort,
		cfg.DBSSLMode,
		5,
	)
	if err != nil {
		return nil, err
	}
	logger.Info("database connection established")

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}

	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required")
	}
	redisClient, err := connection.ConnectRedisWithRetry(cfg.RedisAddr, 5)
	if err != nil {
		return nil, err
	}
	logger.Info("redis connection established")

	modules, err := registerModules(router, cfg, sqlDB, gormDB, redisClient, logger)
	if err != nil {
		return nil, err
	}

	shutdown := func(ctx context.Context) {
		if err := modules.closeDispatcher(ctx); err != nil {
			logger.Warn("notification dispatcher shutdown incomplete", zap.Error(err))
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
		if err := sqlDB.Close(); err != nil {
			logger.Warn("database close failed", zap.Error(err))
		}
	}
	return shutdown, nil
}
