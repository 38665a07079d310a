package app

import (
	"context"
	"time"

	"go-timeoff/internal/approval"
	"go-timeoff/internal/employee"
	"go-timeoff/internal/notification"
	"go-timeoff/internal/request"
	"go-timeoff/internal/shared/config"
	"go-timeoff/internal/shared/connection"

	"go.uber.org/zap"
)

// newNotifier wires the enabled delivery channels. A channel without
// credentials is left unset and skipped by the notifier.
func newNotifier(
	cfg *config.Config,
	store notification.RequestStore,
	directory employee.Directory,
	router approval.Router,
	logger *zap.Logger,
) (*notification.Notifier, error) {
	n := cfg.Notification

	translator, err := notification.NewTranslator(n.Locale)
	if err != nil {
		return nil, err
	}

	deps := notification.NotifierDeps{
		Store:      store,
		Directory:  directory,
		Router:     router,
		Translator: translator,
		Locale:     n.Locale,
	}
	if n.TelegramEnabled() {
		deps.Messenger = notification.NewTelegramClient(n.TelegramAPIURL, n.TelegramBotToken, n.Timeout)
		deps.ChatID = n.TelegramChatID
	} else {
		logger.Warn("telegram notifications disabled: TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID missing")
	}
	if n.EmailEnabled() {
		deps.Mailer = notification.NewSMTPSender(n.SMTPHost, n.SMTPPort, n.SMTPUser, n.SMTPPassword, n.SMTPFrom)
	} else {
		logger.Warn("email notifications disabled: SMTP_HOST or SMTP_FROM missing")
	}

	return notification.NewNotifier(deps, logger), nil
}

// newDispatcher returns the dispatcher the request service hands jobs to, and
// a shutdown func that flushes it.
func newDispatcher(
	cfg *config.Config,
	store notification.RequestStore,
	directory employee.Directory,
	router approval.Router,
	logger *zap.Logger,
) (request.Dispatcher, func(ctx context.Context) error, error) {
	if cfg.Notification.Transport == config.TransportKafka {
		writer := connection.NewKafkaWriter(cfg.KafkaBroker, true)
		dispatcher := notification.NewKafkaDispatcher(writer, logger)
		logger.Info("notification jobs published to kafka", zap.String("broker", cfg.KafkaBroker))
		return dispatcher, func(context.Context) error { return writer.Close() }, nil
	}

	notifier, err := newNotifier(cfg, store, directory, router, logger)
	if err != nil {
		return nil, nil, err
	}
	queue := notification.NewQueue(
		notifier,
		cfg.Notification.Workers,
		cfg.Notification.Buffer,
		notificationJobTimeout(cfg),
		logger,
	)
	queue.Start()
	logger.Info("notification jobs handled in process", zap.Int("workers", cfg.Notification.Workers))
	return queue, queue.Stop, nil
}

func notificationJobTimeout(cfg *config.Config) time.Duration {
	// one Telegram call plus one SMTP session per job
	return 2*cfg.Notification.Timeout + 5*time.Second
}
