package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// QuoteExpiryJobName is the name of the quote expiry job
const QuoteExpiryJobName = "quote_expiry"

// QuoteExpirer marks sent quotes past their validity date as expired.
type QuoteExpirer interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// QuoteExpiryJob expires SENT and VIEWED quotes whose valid_until has passed.
type QuoteExpiryJob struct {
	expirer QuoteExpirer
	logger  *zap.Logger
	timeout time.Duration
}

// NewQuoteExpiryJob creates a new quote expiry job.
func NewQuoteExpiryJob(expirer QuoteExpirer, logger *zap.Logger, timeout time.Duration) *QuoteExpiryJob {
	return &QuoteExpiryJob{
		expirer: expirer,
		logger:  logger,
		timeout: timeout,
	}
}

// Run executes one expiry pass.
func (j *QuoteExpiryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()

	expired, err := j.expirer.ExpireOverdue(ctx)
	if err != nil {
		j.logger.Error("quote expiry job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	if expired > 0 {
		j.logger.Info("quote expiry job completed",
			zap.Int("expired", expired),
			zap.Duration("duration", time.Since(start)))
	}
}

// RegisterQuoteExpiryJob registers the quote expiry job with the scheduler.
func RegisterQuoteExpiryJob(scheduler *Scheduler, expirer QuoteExpirer, logger *zap.Logger, cronExpr string, timeout time.Duration) error {
	job := NewQuoteExpiryJob(expirer, logger, timeout)
	return scheduler.AddJob(QuoteExpiryJobName, cronExpr, job.Run)
}
