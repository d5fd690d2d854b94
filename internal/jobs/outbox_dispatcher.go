package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/ports"
	"ordering/internal/pkg/metrics"
)

const (
	// DefaultDispatchBatchSize is the number of records fetched per cycle.
	DefaultDispatchBatchSize = 50

	// DefaultDispatchInterval is the pause between cycles.
	DefaultDispatchInterval = time.Second

	// DefaultDispatchMarkTimeout bounds the end-of-cycle mark, which runs
	// detached from shutdown.
	DefaultDispatchMarkTimeout = 5 * time.Second
)

// DispatcherConfig tunes the outbox dispatcher. Zero values take the defaults.
type DispatcherConfig struct {
	BatchSize   int
	Interval    time.Duration
	MarkTimeout time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultDispatchBatchSize
	}
	if c.Interval <= 0 {
		c.Interval = DefaultDispatchInterval
	}
	if c.MarkTimeout <= 0 {
		c.MarkTimeout = DefaultDispatchMarkTimeout
	}
	return c
}

// OutboxDispatcher polls the outbox and publishes undispatched records to the
// event bus. A record is marked dispatched only after the bus acknowledged
// it, so delivery is at-least-once. Failed records stay undispatched and are
// retried on the next cycle.
type OutboxDispatcher struct {
	store   ports.OutboxStore
	bus     ports.EventBus
	router  TopicRouter
	config  DispatcherConfig
	metrics *metrics.OrderingMetrics
	now     func() time.Time
	logger  *slog.Logger
}

// NewOutboxDispatcher creates a dispatcher. m may be nil.
func NewOutboxDispatcher(
	store ports.OutboxStore,
	bus ports.EventBus,
	router TopicRouter,
	config DispatcherConfig,
	m *metrics.OrderingMetrics,
	logger *slog.Logger,
) *OutboxDispatcher {
	return &OutboxDispatcher{
		store:   store,
		bus:     bus,
		router:  router,
		config:  config.withDefaults(),
		metrics: m,
		now:     time.Now,
		logger:  logger.With("component", "outbox_dispatcher"),
	}
}

// WithClock replaces the source of dispatched-at timestamps.
func (d *OutboxDispatcher) WithClock(now func() time.Time) *OutboxDispatcher {
	d.now = now
	return d
}

// Run executes dispatch cycles until ctx is cancelled. Cancellation
// interrupts the sleep between cycles immediately. Run returns nil on
// shutdown.
func (d *OutboxDispatcher) Run(ctx context.Context) error {
	d.logger.InfoContext(ctx, "Outbox dispatcher started",
		"batch_size", d.config.BatchSize,
		"interval", d.config.Interval.String(),
	)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.InfoContext(context.WithoutCancel(ctx), "Outbox dispatcher stopped")
			return nil
		case <-timer.C:
		}

		if _, err := d.RunOnce(ctx); err != nil && ctx.Err() == nil {
			d.logger.ErrorContext(ctx, "Outbox dispatch cycle failed", "error", err)
		}

		timer.Reset(d.config.Interval)
	}
}

// RunOnce performs a single cycle and returns the number of records marked
// dispatched. Publish failures are logged and counted but do not fail the
// cycle; store failures do.
func (d *OutboxDispatcher) RunOnce(ctx context.Context) (int, error) {
	messages, err := d.store.FetchUndispatched(ctx, d.config.BatchSize)
	if err != nil {
		return 0, err
	}

	published := make([]kernel.UUID, 0, len(messages))
	for _, msg := range messages {
		if ctx.Err() != nil {
			break
		}

		err = d.bus.Publish(ctx, ports.Message{
			ID:      msg.ID.String(),
			Type:    msg.Type,
			Topic:   d.router.Topic(msg.Type),
			Key:     messageKey(msg),
			Payload: msg.Payload,
		})
		if err != nil {
			d.metrics.RecordPublishFailure(msg.Type)
			d.logger.ErrorContext(ctx, "Failed to publish outbox message",
				"message_id", msg.ID.String(),
				"type", msg.Type,
				"error", err,
			)
			continue
		}

		d.metrics.RecordPublished(msg.Type)
		published = append(published, msg.ID)
	}

	if len(published) == 0 {
		return 0, nil
	}

	// Broker-acknowledged records are marked even while shutting down.
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.config.MarkTimeout)
	defer cancel()

	if err = d.store.MarkDispatched(markCtx, published, d.now().UTC()); err != nil {
		return 0, err
	}

	return len(published), nil
}

// messageKey partitions by order so that the events of one order keep their
// relative order on the broker.
func messageKey(msg ports.OutboxMessage) string {
	var payload struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err == nil && payload.OrderID != "" {
		return payload.OrderID
	}
	return msg.ID.String()
}
