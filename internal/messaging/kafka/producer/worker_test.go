package producer_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"go-timeoff/internal/messaging/kafka"
	"go-timeoff/internal/messaging/kafka/producer"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeOutbox struct {
	pending []kafka.OutboxEvent
	sent    []string
	failed  map[string]string
	listErr error
}

func (f *fakeOutbox) WithTx(*sql.Tx) kafka.OutboxRepository            { return f }
func (f *fakeOutbox) Create(context.Context, kafka.OutboxEvent) error { return nil }
func (f *fakeOutbox) ListPending(_ context.Context, limit, _ int) ([]kafka.OutboxEvent, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if len(f.pending) > limit {
		return f.pending[:limit], nil
	}
	return f.pending, nil
}
func (f *fakeOutbox) MarkSent(_ context.Context, id string) error {
	f.sent = append(f.sent, id)
	return nil
}
func (f *fakeOutbox) MarkFailed(_ context.Context, id, reason string) error {
	if f.failed == nil {
		f.failed = map[string]string{}
	}
	f.failed[id] = reason
	return nil
}

type fakeWriter struct {
	msgs   []kafkago.Message
	failOn string
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	for _, m := range msgs {
		if string(m.Key) == w.failOn {
			return errors.New("broker unavailable")
		}
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestProcessPending(t *testing.T) {
	t.Run("publishes with headers and marks sent", func(t *testing.T) {
		repo := &fakeOutbox{pending: []kafka.OutboxEvent{
			{ID: "o1", RequestID: "rid-1", AggregateType: "request", AggregateID: "r1", EventType: "request_created", Topic: "topic", Payload: []byte(`{}`)},
		}}
		w := &fakeWriter{}

		sent, err := producer.ProcessPending(context.Background(), repo, w, zap.NewNop())

		assert.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Equal(t, []string{"o1"}, repo.sent)
		assert.Len(t, w.msgs, 1)
		assert.Equal(t, "r1", string(w.msgs[0].Key))
		assert.Len(t, w.msgs[0].Headers, 3)
		assert.Equal(t, "request_id", w.msgs[0].Headers[2].Key)
	})

	t.Run("write failure marks row failed and continues", func(t *testing.T) {
		repo := &fakeOutbox{pending: []kafka.OutboxEvent{
			{ID: "o1", AggregateID: "bad", Topic: "topic", Payload: []byte(`{}`)},
			{ID: "o2", AggregateID: "good", Topic: "topic", Payload: []byte(`{}`)},
		}}
		w := &fakeWriter{failOn: "bad"}

		sent, err := producer.ProcessPending(context.Background(), repo, w, zap.NewNop())

		assert.NoError(t, err)
		assert.Equal(t, 1, sent)
		assert.Equal(t, "broker unavailable", repo.failed["o1"])
		assert.Equal(t, []string{"o2"}, repo.sent)
	})

	t.Run("list error", func(t *testing.T) {
		repo := &fakeOutbox{listErr: errors.New("db down")}

		sent, err := producer.ProcessPending(context.Background(), repo, &fakeWriter{}, zap.NewNop())

		assert.Error(t, err)
		assert.Zero(t, sent)
	})
}
