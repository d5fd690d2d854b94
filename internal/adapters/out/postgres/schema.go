package postgres

import (
	"ordering/internal/adapters/out/postgres/orderrepo"
	"ordering/internal/adapters/out/postgres/outboxrepo"

	"gorm.io/gorm"
)

// AutoMigrate creates or updates the orders, order_lines and outbox_messages
// tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&orderrepo.OrderLineDTO{},
		&outboxrepo.OutboxMessageDTO{},
	)
}
