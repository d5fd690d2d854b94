// Package orderrepo persists Order aggregates with GORM. An order is stored
// as one row in "orders" plus one row per line in "order_lines".
package orderrepo

import (
	"fmt"
	"time"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO is the "orders" row. Total and currency are denormalized from the
// lines so that queries do not need to aggregate.
type OrderDTO struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status      string          `gorm:"type:varchar(16);not null"`
	TotalAmount decimal.Decimal `gorm:"type:numeric;not null"`
	Currency    string          `gorm:"type:char(3);not null"`
	PlacedAt    time.Time       `gorm:"not null;index"`
	Lines       []OrderLineDTO  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName overrides GORM's default naming convention.
func (OrderDTO) TableName() string {
	return "orders"
}

// OrderLineDTO is one "order_lines" row. Position keeps the placement order.
type OrderLineDTO struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position  int             `gorm:"not null"`
	SKU       string          `gorm:"column:sku;type:varchar(64);not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:numeric;not null"`
	Currency  string          `gorm:"type:char(3);not null"`
}

// TableName overrides GORM's default naming convention.
func (OrderLineDTO) TableName() string {
	return "order_lines"
}

func fromDomain(aggregate *order.Order) OrderDTO {
	orderID := aggregate.ID().Bytes()

	lines := make([]OrderLineDTO, 0, len(aggregate.Lines()))
	for i, line := range aggregate.Lines() {
		lines = append(lines, OrderLineDTO{
			ID:        uuid.New(),
			OrderID:   orderID,
			Position:  i,
			SKU:       line.SKU(),
			Quantity:  line.Quantity(),
			UnitPrice: line.UnitPrice().Amount(),
			Currency:  line.UnitPrice().Currency(),
		})
	}

	return OrderDTO{
		ID:          orderID,
		CustomerID:  aggregate.CustomerID().Bytes(),
		Status:      aggregate.Status().String(),
		TotalAmount: aggregate.Total().Amount(),
		Currency:    aggregate.Total().Currency(),
		PlacedAt:    aggregate.PlacedAt(),
		Lines:       lines,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}

	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	lines := make([]order.OrderLine, 0, len(dto.Lines))
	for _, lineDTO := range dto.Lines {
		unitPrice, priceErr := kernel.NewMoney(lineDTO.UnitPrice, lineDTO.Currency)
		if priceErr != nil {
			return nil, fmt.Errorf("order %s line %d: %w", id, lineDTO.Position, priceErr)
		}

		line, lineErr := order.NewOrderLine(lineDTO.SKU, lineDTO.Quantity, unitPrice)
		if lineErr != nil {
			return nil, fmt.Errorf("order %s line %d: %w", id, lineDTO.Position, lineErr)
		}

		lines = append(lines, line)
	}

	restored, err := order.RestoreOrder(id, customerID, lines, status, dto.PlacedAt)
	if err != nil {
		return nil, err
	}

	if !restored.Total().Amount().Equal(dto.TotalAmount) {
		return nil, fmt.Errorf("order %s: stored total %s does not match lines", id, dto.TotalAmount)
	}

	return restored, nil
}
