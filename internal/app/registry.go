package app

import (
	"context"
	"database/sql"

	"go-timeoff/internal/approval"
	"go-timeoff/internal/employee"
	"go-timeoff/internal/messaging/kafka"
	"go-timeoff/internal/middleware"
	"go-timeoff/internal/quota"
	"go-timeoff/internal/rbac"
	"go-timeoff/internal/request"
	"go-timeoff/internal/shared/config"
	"go-timeoff/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type modules struct {
	closeDispatcher func(ctx context.Context) error
}

func registerModules(
	router *gin.Engine,
	cfg *config.Config,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
	logger *zap.Logger,
) (*modules, error) {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	requestRepo := request.NewRepository(gormDB)
	quotaRepo := quota.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)

	// --- RBAC Core ---
	policy, err := rbac.LoadPolicyFile(cfg.RBACPolicyPath)
	if err != nil {
		return nil, err
	}
	enforcer, err := rbac.NewEnforcer(policy)
	if err != nil {
		return nil, err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer, logger)
	if err := rbacService.LoadEmployeeRoles(context.Background()); err != nil {
		return nil, err
	}

	// --- Services ---
	directory := employee.NewDirectory(employeeRepo, rdb, logger)
	approvalRouter := approval.NewRouter(directory, logger)
	ledger := quota.NewLedger(quotaRepo, cfg.Quota.DefaultAllowance, logger)

	dispatcher, closeDispatcher, err := newDispatcher(cfg, requestRepo, directory, approvalRouter, logger)
	if err != nil {
		return nil, err
	}

	requestService := request.NewService(db, requestRepo, request.Dependencies{
		Counter:    counterRepo,
		Outbox:     outboxRepo,
		Ledger:     ledger,
		Router:     approvalRouter,
		Directory:  directory,
		Dispatcher: dispatcher,
	}, logger)

	// --- Handlers ---
	requestHandler := request.NewHandler(requestService, logger)
	quotaHandler := quota.NewHandler(ledger, logger)
	approvalHandler := approval.NewHandler(approvalRouter, logger)
	rbacHandler := rbac.NewHandler(rbacService, logger)

	// --- Routes Registration ---
	router.Use(middleware.ContextLogger(logger))
	router.Use(middleware.RateLimitByIP(rate.Limit(20), 40))

	writeGuards := []gin.HandlerFunc{
		middleware.RateLimitByUser(rate.Limit(5), 10),
		middleware.Idempotency(rdb, logger),
	}

	api := router.Group("/api/v1")
	{
		request.RegisterRoutes(api, requestHandler, rbacService, cfg.JWTSecret, writeGuards...)
		quota.RegisterRoutes(api, quotaHandler, rbacService, cfg.JWTSecret)
		approval.RegisterRoutes(api, approvalHandler, rbacService, cfg.JWTSecret)
		rbac.RegisterRoutes(api, rbacHandler, cfg.JWTSecret)
	}

	return &modules{
		closeDispatcher: closeDispatcher,
	}, nil
}
