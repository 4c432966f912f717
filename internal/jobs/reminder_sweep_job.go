package jobs

import (
	"context"
	"time"

	"github.com/hartwood-buildings/crm-api/internal/service"
	"go.uber.org/zap"
)

// ReminderSweepJobName is the name of the reminder sweep job
const ReminderSweepJobName = "reminder_sweep"

// ReminderSweeper evaluates staleness rules and upserts follow-up reminders.
type ReminderSweeper interface {
	Sweep(ctx context.Context) (*service.SweepResult, error)
}

// ReminderSweepJob runs the reminder engine across leads, quotes and
// opportunities. The sweep is idempotent, so overlapping schedules are safe;
// the scheduler additionally skips runs while one is still in flight.
type ReminderSweepJob struct {
	sweeper ReminderSweeper
	logger  *zap.Logger
	timeout time.Duration
}

// NewReminderSweepJob creates a new reminder sweep job.
// The timeout controls how long a single sweep is allowed to run.
func NewReminderSweepJob(sweeper ReminderSweeper, logger *zap.Logger, timeout time.Duration) *ReminderSweepJob {
	return &ReminderSweepJob{
		sweeper: sweeper,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes one reminder sweep.
// This is called by the scheduler according to the cron expression.
func (j *ReminderSweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting reminder sweep job")

	result, err := j.sweeper.Sweep(ctx)
	if err != nil {
		j.logger.Error("reminder sweep failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("reminder sweep job completed",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("skipped", result.Skipped),
		zap.Int("errors", result.Errors),
		zap.Duration("duration", time.Since(start)))
}

// RegisterReminderSweepJob registers the reminder sweep with the scheduler.
// If runOnStartup is true, one sweep runs immediately in a background
// goroutine so a fresh deployment surfaces stale work without waiting for
// the first cron tick.
func RegisterReminderSweepJob(scheduler *Scheduler, sweeper ReminderSweeper, logger *zap.Logger, cronExpr string, timeout time.Duration, runOnStartup bool) error {
	job := NewReminderSweepJob(sweeper, logger, timeout)

	if runOnStartup {
		go job.Run()
	}

	return scheduler.AddJob(ReminderSweepJobName, cronExpr, job.Run)
}
