// Package postgres provides the GORM-based Unit of Work of the ordering service.
//
// A unit of work owns one database transaction. Repositories obtained from it
// run inside that transaction and register every aggregate they write. On
// Commit the pending domain events of those aggregates are appended to the
// outbox through the same transaction, so an order's state and the events
// describing it become durable together or not at all.
//
// Usage:
//
//	uow := factory.Create()
//	if err := uow.Begin(ctx); err != nil {
//	    return err
//	}
//	defer func() { _ = uow.Rollback(ctx) }()
//
//	if err := uow.OrderRepository().Add(ctx, placed); err != nil {
//	    return err
//	}
//
//	return uow.Commit(ctx) // writes OrderPlaced to outbox_messages, then commits
//
// Each UnitOfWork instance is meant for a single goroutine; create one per
// command.
package postgres

import (
	"context"
	"fmt"
	"time"

	"ordering/internal/adapters/out/postgres/orderrepo"
	"ordering/internal/adapters/out/postgres/outboxrepo"
	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/model/order"
	"ordering/internal/core/ports"

	"gorm.io/gorm"
)

// CommitObserver is notified with the events of every successful commit.
type CommitObserver interface {
	EventsCommitted(ctx context.Context, events []order.Event)
}

type trackedAggregate struct {
	ID        kernel.UUID
	Aggregate ports.EventSource
}

// GormUnitOfWorkFactory creates UnitOfWork instances using GORM database connections.
type GormUnitOfWorkFactory struct {
	db        *gorm.DB
	now       func() time.Time
	observers []CommitObserver
}

// NewGormUnitOfWorkFactory creates a factory for GORM-based unit of work instances.
func NewGormUnitOfWorkFactory(db *gorm.DB, observers ...CommitObserver) *GormUnitOfWorkFactory {
	return &GormUnitOfWorkFactory{
		db:        db,
		now:       time.Now,
		observers: observers,
	}
}

// WithClock replaces the source of outbox occurred-at timestamps.
func (f *GormUnitOfWorkFactory) WithClock(now func() time.Time) *GormUnitOfWorkFactory {
	f.now = now
	return f
}

// Create produces a new UnitOfWork instance.
func (f *GormUnitOfWorkFactory) Create() ports.UnitOfWork {
	return &GormUnitOfWork{
		db:                f.db,
		now:               f.now,
		observers:         f.observers,
		trackedAggregates: make([]trackedAggregate, 0),
	}
}

// GormUnitOfWork coordinates one database transaction and the outbox records
// of the aggregates written in it.
type GormUnitOfWork struct {
	db                *gorm.DB
	tx                *gorm.DB
	now               func() time.Time
	observers         []CommitObserver
	trackedAggregates []trackedAggregate
}

// Begin initiates a new database transaction for the unit of work.
// Calling Begin on an active unit of work is a no-op.
func (uow *GormUnitOfWork) Begin(ctx context.Context) error {
	if uow.tx != nil {
		return nil
	}

	uow.tx = uow.db.WithContext(ctx).Begin()
	if uow.tx.Error != nil {
		err := uow.tx.Error
		uow.tx = nil
		return err
	}

	return nil
}

// Commit drains the pending events of all tracked aggregates into the outbox
// and commits the transaction. If any outbox write fails the transaction is
// rolled back and nothing is persisted.
//
// Returns gorm.ErrInvalidTransaction if no transaction is active.
func (uow *GormUnitOfWork) Commit(ctx context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	tx := uow.tx
	tracked := uow.trackedAggregates
	uow.tx = nil
	uow.trackedAggregates = make([]trackedAggregate, 0)

	writer := outboxrepo.NewGormOutboxWriter(tx, uow.now)
	committed := make([]order.Event, 0, len(tracked))
	for _, aggregate := range tracked {
		for _, event := range aggregate.Aggregate.DrainPendingEvents() {
			if err := writer.Write(ctx, event); err != nil {
				_ = tx.Rollback().Error
				return fmt.Errorf("write %s of %s to outbox: %w", event.EventName(), aggregate.ID, err)
			}
			committed = append(committed, event)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return err
	}

	for _, observer := range uow.observers {
		observer.EventsCommitted(ctx, committed)
	}

	return nil
}

// Rollback discards all changes made within the current transaction.
// Returns gorm.ErrInvalidTransaction if no transaction is active.
func (uow *GormUnitOfWork) Rollback(_ context.Context) error {
	if uow.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := uow.tx.Rollback().Error
	uow.tx = nil
	uow.trackedAggregates = make([]trackedAggregate, 0)
	return err
}

// OrderRepository returns an order repository bound to the current
// transaction, or to the plain connection when no transaction is active.
// Aggregates written through it are tracked by this unit of work.
func (uow *GormUnitOfWork) OrderRepository() ports.OrderRepository {
	db := uow.db
	if uow.tx != nil {
		db = uow.tx
	}
	return orderrepo.NewGormOrderRepository(db, uow)
}

// TrackAggregate registers an aggregate written within this unit of work.
// Repositories call it after a successful write.
func (uow *GormUnitOfWork) TrackAggregate(id kernel.UUID, aggregate ports.EventSource) {
	uow.trackedAggregates = append(uow.trackedAggregates, trackedAggregate{
		ID:        id,
		Aggregate: aggregate,
	})
}
