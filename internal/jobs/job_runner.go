package jobs

import (
	"context"
	"time"

	"library-loans-backend/internal/config"
	"library-loans-backend/internal/domain"
	"library-loans-backend/internal/logger"
)

// OverdueSource is the part of the transaction service the jobs read from.
type OverdueSource interface {
	ListOverdue(ctx context.Context) ([]domain.TransactionView, error)
	Policy() domain.LoanPolicy
}

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	transactions OverdueSource
	config       *config.Config
	now          func() time.Time
	timeout      time.Duration
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(transactions OverdueSource, cfg *config.Config) *JobRunner {
	return &JobRunner{
		transactions: transactions,
		config:       cfg,
		now:          time.Now,
		timeout:      5 * time.Minute,
	}
}

// Config returns the configuration the jobs were built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	start := jr.now()
	logger.Info("Starting job", "job", jobName)
	jobFunc(ctx)
	logger.Info("Job completed", "job", jobName, "duration", time.Since(start).String())
}

// RunAllDailyJobs runs all daily jobs (for manual execution)
func (jr *JobRunner) RunAllDailyJobs() {
	jr.ReportOverdueTransactions()
}
