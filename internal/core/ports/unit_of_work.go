package ports

import (
	"context"

	"ordering/internal/core/domain/model/order"
)

// EventSource is an aggregate that queues domain events until they are
// drained into the outbox.
type EventSource interface {
	DrainPendingEvents() []order.Event
}

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// It provides transaction control and tracks aggregate changes so that the
// events raised by tracked aggregates reach the outbox in the same commit.
// Client code must explicitly manage transaction lifecycle.
type UnitOfWork interface {
	// Begin starts a new database transaction.
	Begin(ctx context.Context) error

	// Commit writes the pending events of every tracked aggregate to the
	// outbox and commits the transaction.
	// Returns error if no active transaction, the outbox write or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	// OrderRepository returns an OrderRepository instance bound to the current transaction.
	// Repository will use the transaction started by Begin().
	OrderRepository() OrderRepository
}
