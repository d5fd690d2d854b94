// Package kafka consumes payment results from Kafka and applies them to
// orders.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ordering/internal/core/application/usecases/commands"
	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/model/order"
	"ordering/internal/core/domain/services"
	"ordering/internal/pkg/errs"

	"github.com/segmentio/kafka-go"
)

const (
	DefaultPaymentTopic  = "payment-events"
	DefaultConsumerGroup = "ordering-payment-consumer"

	PaymentSucceededEventType = "PaymentSucceeded"
	PaymentFailedEventType    = "PaymentFailed"

	defaultRetryDelay    = time.Second
	defaultCommitTimeout = 5 * time.Second
)

var ErrMalformedPaymentEvent = errors.New("malformed payment event")

// MessageReader is the subset of *kafka.Reader used by the consumer.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PaymentResultHandler applies one payment outcome.
type PaymentResultHandler interface {
	Handle(ctx context.Context, cmd commands.ApplyPaymentResultCommand) (*order.Order, error)
}

type paymentEvent struct {
	EventType string `json:"eventType"`
	Data      struct {
		OrderID    string `json:"orderId"`
		PaymentRef string `json:"paymentRef"`
		Reason     string `json:"reason"`
	} `json:"data"`
}

// NewReader creates a consumer-group reader with manual commits.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	if topic == "" {
		topic = DefaultPaymentTopic
	}
	if groupID == "" {
		groupID = DefaultConsumerGroup
	}

	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0,
		StartOffset:    kafka.FirstOffset,
	})
}

// PaymentEventConsumer reads payment events and turns them into
// ApplyPaymentResult commands. A message is committed after it was applied or
// rejected for business reasons; infrastructure failures retry the same
// message until it succeeds or the consumer stops.
type PaymentEventConsumer struct {
	reader     MessageReader
	handler    PaymentResultHandler
	retryDelay time.Duration
	logger     *slog.Logger
}

func NewPaymentEventConsumer(
	reader MessageReader,
	handler PaymentResultHandler,
	logger *slog.Logger,
) *PaymentEventConsumer {
	return &PaymentEventConsumer{
		reader:     reader,
		handler:    handler,
		retryDelay: defaultRetryDelay,
		logger:     logger.With("component", "payment_event_consumer"),
	}
}

// WithRetryDelay changes the pause before a failed message is retried.
func (c *PaymentEventConsumer) WithRetryDelay(delay time.Duration) *PaymentEventConsumer {
	c.retryDelay = delay
	return c
}

// Run consumes until ctx is cancelled and then closes the reader.
func (c *PaymentEventConsumer) Run(ctx context.Context) error {
	c.logger.InfoContext(ctx, "Payment event consumer started")
	defer func() {
		if err := c.reader.Close(); err != nil {
			c.logger.ErrorContext(context.WithoutCancel(ctx), "Failed to close payment reader", "error", err)
		}
		c.logger.InfoContext(context.WithoutCancel(ctx), "Payment event consumer stopped")
	}()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.ErrorContext(ctx, "Failed to fetch payment event", "error", err)
			if !c.sleep(ctx) {
				return nil
			}
			continue
		}

		if !c.process(ctx, msg) {
			return nil
		}
	}
}

// process applies msg until it succeeds or fails permanently, then commits
// it. It returns false when ctx was cancelled before the message was done.
func (c *PaymentEventConsumer) process(ctx context.Context, msg kafka.Message) bool {
	for {
		err := c.apply(ctx, msg)
		if err == nil || isPermanent(err) {
			if err != nil {
				c.logger.WarnContext(ctx, "Skipping payment event",
					"offset", msg.Offset,
					"partition", msg.Partition,
					"error", err,
				)
			}
			c.commit(ctx, msg)
			return true
		}

		if ctx.Err() != nil {
			return false
		}

		c.logger.ErrorContext(ctx, "Failed to apply payment event, retrying",
			"offset", msg.Offset,
			"partition", msg.Partition,
			"error", err,
		)
		if !c.sleep(ctx) {
			return false
		}
	}
}

func (c *PaymentEventConsumer) apply(ctx context.Context, msg kafka.Message) error {
	var event paymentEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedPaymentEvent, err)
	}

	var outcome services.PaymentOutcome
	switch event.EventType {
	case PaymentSucceededEventType:
		outcome = services.NewPaymentSucceeded(event.Data.PaymentRef)
	case PaymentFailedEventType:
		outcome = services.NewPaymentFailed(event.Data.Reason)
	default:
		return fmt.Errorf("%w: unknown event type %q", ErrMalformedPaymentEvent, event.EventType)
	}

	orderID, err := kernel.UUIDFromString(event.Data.OrderID)
	if err != nil {
		return err
	}

	cmd, err := commands.NewApplyPaymentResultCommand(orderID, outcome)
	if err != nil {
		return err
	}

	updated, err := c.handler.Handle(ctx, cmd)
	if err != nil {
		return err
	}

	c.logger.InfoContext(ctx, "Applied payment event",
		"event_type", event.EventType,
		"order_id", orderID.String(),
		"status", updated.Status().String(),
	)
	return nil
}

func (c *PaymentEventConsumer) commit(ctx context.Context, msg kafka.Message) {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultCommitTimeout)
	defer cancel()

	if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
		c.logger.ErrorContext(ctx, "Failed to commit payment event",
			"offset", msg.Offset,
			"partition", msg.Partition,
			"error", err,
		)
	}
}

func (c *PaymentEventConsumer) sleep(ctx context.Context) bool {
	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func isPermanent(err error) bool {
	if errors.Is(err, errs.ErrConcurrentModification) {
		return false
	}
	return errors.Is(err, ErrMalformedPaymentEvent) ||
		errs.IsInvalidArgument(err) ||
		errors.Is(err, errs.ErrObjectNotFound) ||
		errors.Is(err, errs.ErrInvalidState)
}
