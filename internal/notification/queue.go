package notification

import (
	"context"
	"sync"
	"time"

	"go-timeoff/internal/events"
	"go-timeoff/internal/shared/contextutil"

	"go.uber.org/zap"
)

type Handler interface {
	Handle(ctx context.Context, job events.NotificationJob) error
}

// Queue is the in-process Dispatcher: a bounded buffer drained by a fixed
// worker pool. Jobs that do not fit are dropped, and every job runs once
// under its own timeout, independent of the dispatching request.
type Queue struct {
	handler Handler
	workers int
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan events.NotificationJob
	wg     sync.WaitGroup
}

func NewQueue(handler Handler, workers, buffer int, timeout time.Duration, logger ...*zap.Logger) *Queue {
	l := zap.L().Named("notification.queue")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.queue")
	}
	if workers < 1 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Queue{
		handler: handler,
		workers: workers,
		timeout: timeout,
		logger:  l,
		jobs:    make(chan events.NotificationJob, buffer),
	}
}

func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.work(i)
	}
	q.logger.Info("notification queue started", zap.Int("workers", q.workers), zap.Int("buffer", cap(q.jobs)))
}

// Dispatch never blocks. ctx is only read for log fields.
func (q *Queue) Dispatch(ctx context.Context, job events.NotificationJob) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		q.logger.Warn("notification queue closed, job dropped",
			zap.String("request_id", job.RequestID),
			zap.String("kind", string(job.Kind)),
		)
		return
	}

	select {
	case q.jobs <- job:
	default:
		q.logger.Warn("notification queue full, job dropped",
			zap.String("trace_id", contextutil.GetRequestID(ctx)),
			zap.String("request_id", job.RequestID),
			zap.String("kind", string(job.Kind)),
		)
	}
}

// Stop refuses new jobs and waits for queued ones until ctx ends.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("notification queue drained")
		return nil
	case <-ctx.Done():
		q.logger.Warn("notification queue stop timed out", zap.Int("pending", len(q.jobs)))
		return ctx.Err()
	}
}

func (q *Queue) work(id int) {
	defer q.wg.Done()
	for job := range q.jobs {
		q.run(id, job)
	}
}

func (q *Queue) run(worker int, job events.NotificationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = contextutil.WithRequestID(ctx, job.TraceID)
	}

	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("notification job panicked",
				zap.Int("worker", worker),
				zap.String("request_id", job.RequestID),
				zap.Any("panic", r),
			)
		}
	}()

	if err := q.handler.Handle(ctx, job); err != nil {
		q.logger.Warn("notification delivery failed",
			zap.Int("worker", worker),
			zap.String("request_id", job.RequestID),
			zap.String("kind", string(job.Kind)),
			zap.String("trace_id", job.TraceID),
			zap.Error(err),
		)
		return
	}
	q.logger.Debug("notification delivered",
		zap.Int("worker", worker),
		zap.String("request_id", job.RequestID),
		zap.String("kind", string(job.Kind)),
	)
}
