// Package ports defines the contracts between the ordering core and its
// infrastructure: persistence of orders, the transactional outbox and the
// message broker.
package ports

import (
	"context"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates,
// including their owned lines.
type OrderRepository interface {
	// Add persists a new order aggregate.
	// The order must be valid and not already exist in the repository.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update persists a status change of an existing order.
	// Returns a NotFound error if the order does not exist.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order aggregate with its lines.
	// Returns a NotFound error if the order does not exist.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
}
