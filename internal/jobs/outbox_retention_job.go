package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"ordering/internal/core/ports"
	"ordering/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
)

const (
	// DefaultRetentionSchedule is the cron spec of the purge.
	DefaultRetentionSchedule = "@every 12h"

	// DefaultRetentionWindow is how long dispatched records are kept.
	DefaultRetentionWindow = 168 * time.Hour
)

// OutboxRetentionJob periodically deletes dispatched outbox records older
// than the retention window. Undispatched records are never deleted.
type OutboxRetentionJob struct {
	store    ports.OutboxStore
	schedule string
	window   time.Duration
	metrics  *metrics.OrderingMetrics
	now      func() time.Time
	cron     *cron.Cron
	logger   *slog.Logger

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewOutboxRetentionJob creates the job. Empty schedule and zero window take
// the defaults. m may be nil.
func NewOutboxRetentionJob(
	store ports.OutboxStore,
	schedule string,
	window time.Duration,
	m *metrics.OrderingMetrics,
	logger *slog.Logger,
) *OutboxRetentionJob {
	if schedule == "" {
		schedule = DefaultRetentionSchedule
	}
	if window <= 0 {
		window = DefaultRetentionWindow
	}

	return &OutboxRetentionJob{
		store:    store,
		schedule: schedule,
		window:   window,
		metrics:  m,
		now:      time.Now,
		cron:     cron.New(),
		logger:   logger.With("component", "outbox_retention_job"),
	}
}

// WithClock replaces the clock used to compute the cutoff.
func (j *OutboxRetentionJob) WithClock(now func() time.Time) *OutboxRetentionJob {
	j.now = now
	return j
}

// Start schedules the purge. It fails on an invalid schedule.
func (j *OutboxRetentionJob) Start() error {
	j.mu.Lock()
	j.ctx, j.cancel = context.WithCancel(context.Background())
	ctx := j.ctx
	j.mu.Unlock()

	_, err := j.cron.AddFunc(j.schedule, func() {
		if _, err := j.RunOnce(ctx); err != nil && ctx.Err() == nil {
			j.logger.ErrorContext(ctx, "Outbox retention job failed", "error", err)
		}
	})
	if err != nil {
		j.cancel()
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(ctx, "Outbox retention job started",
		"schedule", j.schedule,
		"window", j.window.String(),
	)
	return nil
}

// Stop cancels an in-flight purge and waits for it to return.
func (j *OutboxRetentionJob) Stop() {
	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
	}
	j.mu.Unlock()

	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Outbox retention job stopped")
}

// RunOnce deletes dispatched records older than now minus the window and
// returns how many were removed.
func (j *OutboxRetentionJob) RunOnce(ctx context.Context) (int64, error) {
	cutoff := j.now().UTC().Add(-j.window)

	deleted, err := j.store.DeleteDispatchedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	j.metrics.RecordPurged(deleted)
	if deleted > 0 {
		j.logger.InfoContext(ctx, "Purged dispatched outbox messages",
			"deleted", deleted,
			"cutoff", cutoff,
		)
	}

	return deleted, nil
}
