package notification_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-timeoff/internal/events"
	"go-timeoff/internal/notification"
	"go-timeoff/internal/shared/contextutil"

	"github.com/stretchr/testify/assert"
)

type handlerFunc func(ctx context.Context, job events.NotificationJob) error

func (f handlerFunc) Handle(ctx context.Context, job events.NotificationJob) error { return f(ctx, job) }

func TestQueue_RunsJobsDetachedFromCaller(t *testing.T) {
	got := make(chan context.Context, 1)
	q := notification.NewQueue(handlerFunc(func(ctx context.Context, job events.NotificationJob) error {
		got <- ctx
		return nil
	}), 1, 4, time.Second)
	q.Start()

	caller, cancel := context.WithCancel(contextutil.WithRequestID(context.Background(), "caller-rid"))
	q.Dispatch(caller, events.NotificationJob{Kind: events.NotificationNew, RequestID: "r1", TraceID: "trace-1"})
	cancel()

	select {
	case ctx := <-got:
		assert.NoError(t, ctx.Err())
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline)
		assert.Equal(t, "trace-1", contextutil.GetRequestID(ctx))
	case <-time.After(2 * time.Second):
		t.Fatal("job not handled")
	}
	assert.NoError(t, q.Stop(context.Background()))
}

func TestQueue_DropsWhenFull(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var mu sync.Mutex
	var handled []string

	q := notification.NewQueue(handlerFunc(func(ctx context.Context, job events.NotificationJob) error {
		if job.RequestID == "blocker" {
			started <- struct{}{}
			<-release
		}
		mu.Lock()
		handled = append(handled, job.RequestID)
		mu.Unlock()
		return nil
	}), 1, 1, 5*time.Second)
	q.Start()

	q.Dispatch(context.Background(), events.NotificationJob{RequestID: "blocker"})
	<-started
	q.Dispatch(context.Background(), events.NotificationJob{RequestID: "queued"})
	q.Dispatch(context.Background(), events.NotificationJob{RequestID: "dropped"})
	close(release)

	assert.NoError(t, q.Stop(context.Background()))
	assert.Equal(t, []string{"blocker", "queued"}, handled)
}

func TestQueue_FailuresAreSwallowed(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	q := notification.NewQueue(handlerFunc(func(ctx context.Context, job events.NotificationJob) error {
		mu.Lock()
		calls++
		mu.Unlock()
		if job.RequestID == "boom" {
			panic("telegram exploded")
		}
		return errors.New("telegram down")
	}), 1, 4, time.Second)
	q.Start()

	q.Dispatch(context.Background(), events.NotificationJob{RequestID: "a"})
	q.Dispatch(context.Background(), events.NotificationJob{RequestID: "boom"})
	q.Dispatch(context.Background(), events.NotificationJob{RequestID: "b"})

	assert.NoError(t, q.Stop(context.Background()))
	assert.Equal(t, 3, calls, "each job is attempted exactly once")
}

func TestQueue_DispatchAfterStopIsNoop(t *testing.T) {
	q := notification.NewQueue(handlerFunc(func(ctx context.Context, job events.NotificationJob) error {
		t.Error("handler must not run")
		return nil
	}), 1, 1, time.Second)
	q.Start()
	assert.NoError(t, q.Stop(context.Background()))

	assert.NotPanics(t, func() {
		q.Dispatch(context.Background(), events.NotificationJob{RequestID: "late"})
	})
}
