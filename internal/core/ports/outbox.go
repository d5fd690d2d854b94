package ports

import (
	"context"
	"time"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/model/order"
)

// OutboxMessage is one durable record of the transactional outbox.
// DispatchedAt is nil until the message was acknowledged by the broker.
type OutboxMessage struct {
	ID           kernel.UUID
	Type         string
	Payload      []byte
	OccurredAt   time.Time
	DispatchedAt *time.Time
}

// OutboxWriter appends domain events to the outbox. Implementations are bound
// to the caller's transaction: a record becomes durable only when that
// transaction commits.
type OutboxWriter interface {
	Write(ctx context.Context, event order.Event) error
}

// OutboxStore is the dispatcher and retention side of the outbox.
type OutboxStore interface {
	// FetchUndispatched returns up to limit undispatched messages, oldest first.
	FetchUndispatched(ctx context.Context, limit int) ([]OutboxMessage, error)

	// MarkDispatched sets the dispatched-at timestamp of all given messages in
	// a single transaction.
	MarkDispatched(ctx context.Context, ids []kernel.UUID, at time.Time) error

	// DeleteDispatchedBefore removes dispatched messages whose dispatched-at
	// is older than cutoff and reports how many were removed. Undispatched
	// messages are never removed.
	DeleteDispatchedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
