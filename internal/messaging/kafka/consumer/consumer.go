package consumer

import (
	"context"
	"encoding/json"

	"go-timeoff/internal/events"
	"go-timeoff/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is the subset of *kafkago.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type JobHandler interface {
	Handle(ctx context.Context, job events.NotificationJob) error
}

// ConsumeNotificationJobs commits each message before handling it, so a crash
// mid-delivery drops the notification instead of sending it twice.
func ConsumeNotificationJobs(
	ctx context.Context,
	reader MessageReader,
	handler JobHandler,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.notification")
	log.Info("notification consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("notification consumer stopped")
				return
			}
			log.Error("fetch notification message failed", zap.Error(err))
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit notification message failed", zap.Error(err))
			continue
		}

		var job events.NotificationJob
		if err := json.Unmarshal(msg.Value, &job); err != nil {
			log.Error("decode notification job failed", zap.Int64("offset", msg.Offset), zap.Error(err))
			continue
		}

		jobCtx := ctx
		if job.TraceID != "" {
			jobCtx = contextutil.WithRequestID(ctx, job.TraceID)
		}

		if err := handler.Handle(jobCtx, job); err != nil {
			log.Warn("notification job failed",
				zap.String("request_id", job.RequestID),
				zap.String("kind", string(job.Kind)),
				zap.Error(err),
			)
			continue
		}

		log.Debug("notification job handled",
			zap.String("request_id", job.RequestID),
			zap.String("kind", string(job.Kind)),
		)
	}
}
