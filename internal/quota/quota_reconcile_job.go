package quota

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const reconcileTimeout = 4 * time.Minute

// ReconcileJob recomputes usage for the month containing Clock().
type ReconcileJob struct {
	Ledger Ledger
	Clock  func() time.Time
	Logger *zap.Logger
}

func (j ReconcileJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
	defer cancel()
	_, _ = j.RunOnce(ctx)
}

func (j ReconcileJob) RunOnce(ctx context.Context) (int, error) {
	clock := j.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := j.Logger
	if logger == nil {
		logger = zap.L()
	}

	now := clock().UTC()
	n, err := j.Ledger.ReconcileMonth(ctx, now.Year(), int(now.Month()))
	if err != nil {
		logger.Error("scheduled quota reconcile failed",
			zap.Int("year", now.Year()),
			zap.Int("month", int(now.Month())),
			zap.Error(err),
		)
		return n, err
	}
	return n, nil
}

// NewReconcileScheduler returns a stopped cron that runs job on schedule and skips
// a tick while the previous run is still going.
func NewReconcileScheduler(schedule string, job ReconcileJob) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if _, err := c.AddJob(schedule, job); err != nil {
		return nil, err
	}
	return c, nil
}
