package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-timeoff/internal/messaging/kafka"
	"go-timeoff/internal/messaging/kafka/producer"
	"go-timeoff/internal/quota"
	"go-timeoff/internal/shared/config"
	"go-timeoff/internal/shared/connection"

	"go.uber.org/zap"
)

// RunWorker relays outbox rows to Kafka and runs the scheduled quota reconcile.
func RunWorker(cfg *config.Config) error {
	logger := zap.L().Named("app.worker")

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
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	if cfg.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, 5)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	outboxRepo := kafka.NewOutboxRepository(sqlDB)
	ledger := quota.NewLedger(quota.NewRepository(gormDB), cfg.Quota.DefaultAllowance, logger)

	scheduler, err := quota.NewReconcileScheduler(cfg.Quota.ReconcileCron, quota.ReconcileJob{
		Ledger: ledger,
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("QUOTA_RECONCILE_CRON: %w", err)
	}
	scheduler.Start()
	logger.Info("quota reconcile scheduled", zap.String("cron", cfg.Quota.ReconcileCron))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go producer.ProcessOutboxEvents(
		ctx,
		outboxRepo,
		kafkaWriter,
		logger,
		3*time.Second,
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("worker shutting down")
	cancel()
	<-scheduler.Stop().Done()

	return nil
}
