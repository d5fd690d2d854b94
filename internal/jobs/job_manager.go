package jobs

import (
	"context"
	"fmt"
	"log/slog"
)

// JobManager owns the background jobs of the outbox: the polling dispatcher
// and the scheduled retention purge.
type JobManager struct {
	dispatcher *OutboxDispatcher
	retention  *OutboxRetentionJob
	logger     *slog.Logger
}

// NewJobManager creates a job manager for the given jobs.
func NewJobManager(
	dispatcher *OutboxDispatcher,
	retention *OutboxRetentionJob,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		dispatcher: dispatcher,
		retention:  retention,
		logger:     logger.With("component", "job_manager"),
	}
}

// Run starts the retention job, runs the dispatcher until ctx is cancelled
// and then stops the retention job.
func (jm *JobManager) Run(ctx context.Context) error {
	if err := jm.retention.Start(); err != nil {
		return fmt.Errorf("failed to start outbox retention job: %w", err)
	}
	defer jm.retention.Stop()

	if err := jm.dispatcher.Run(ctx); err != nil {
		return fmt.Errorf("outbox dispatcher: %w", err)
	}

	jm.logger.InfoContext(context.WithoutCancel(ctx), "All jobs stopped")
	return nil
}
