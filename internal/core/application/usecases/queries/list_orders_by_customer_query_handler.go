package queries

import (
	"context"

	"ordering/internal/core/domain/model/kernel"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ListOrdersByCustomerQueryHandler lists order summaries from the orders table.
type ListOrdersByCustomerQueryHandler struct {
	db *gorm.DB
}

// NewListOrdersByCustomerQueryHandler creates a handler on db.
func NewListOrdersByCustomerQueryHandler(db *gorm.DB) ListOrdersByCustomerQueryHandler {
	return ListOrdersByCustomerQueryHandler{db: db}
}

// Handle returns one page of summaries ordered by placed-at descending. An
// unknown customer yields an empty slice.
func (h ListOrdersByCustomerQueryHandler) Handle(
	ctx context.Context,
	query ListOrdersByCustomerQuery,
) ([]OrderSummary, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			status,
			total_amount,
			currency,
			placed_at
		FROM orders
		WHERE customer_id = ?
		ORDER BY placed_at DESC, id
		LIMIT ? OFFSET ?
	`, query.CustomerID().Bytes(), query.Limit(), query.Offset()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make([]OrderSummary, 0)
	for rows.Next() {
		var (
			summary OrderSummary
			id      uuid.UUID
		)

		err = rows.Scan(&id, &summary.Status, &summary.Total, &summary.Currency, &summary.PlacedAt)
		if err != nil {
			return nil, err
		}

		summary.ID, err = kernel.UUIDFromBytes(id[:])
		if err != nil {
			return nil, err
		}
		summary.PlacedAt = summary.PlacedAt.UTC()

		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}
