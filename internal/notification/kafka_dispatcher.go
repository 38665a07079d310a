package notification

import (
	"context"
	"encoding/json"

	"go-timeoff/internal/events"
	"go-timeoff/internal/messaging/kafka/producer"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaDispatcher hands jobs to cmd/consumer through a Kafka topic. The writer
// is expected to be asynchronous so Dispatch returns immediately.
type KafkaDispatcher struct {
	writer producer.MessageWriter
	logger *zap.Logger
}

func NewKafkaDispatcher(writer producer.MessageWriter, logger ...*zap.Logger) *KafkaDispatcher {
	l := zap.L().Named("notification.kafka_dispatcher")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.kafka_dispatcher")
	}
	return &KafkaDispatcher{writer: writer, logger: l}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, job events.NotificationJob) {
	payload, err := json.Marshal(job)
	if err != nil {
		d.logger.Error("encode notification job failed", zap.String("request_id", job.RequestID), zap.Error(err))
		return
	}

	msg := kafkago.Message{
		Topic: events.NotificationTopic,
		Key:   []byte(job.RequestID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "kind", Value: []byte(job.Kind)},
		},
	}
	if err := d.writer.WriteMessages(ctx, msg); err != nil {
		d.logger.Warn("publish notification job failed",
			zap.String("request_id", job.RequestID),
			zap.String("kind", string(job.Kind)),
			zap.Error(err),
		)
	}
}
