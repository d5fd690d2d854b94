package order

import (
	"ordering/internal/core/domain/model/kernel"
)

// Logical event names. They are stored as the outbox type discriminator and
// must stay stable.
const (
	OrderPlacedEventName    = "OrderPlaced"
	OrderAcceptedEventName  = "OrderAccepted"
	OrderCancelledEventName = "OrderCancelled"
	OrderCompletedEventName = "OrderCompleted"
)

// Event is a fact raised by an Order mutation. The set of variants is closed:
// OrderPlaced, OrderAccepted, OrderCancelled and OrderCompleted.
type Event interface {
	// EventName returns the logical name used as the outbox type discriminator.
	EventName() string

	// AggregateID returns the id of the order that raised the event.
	AggregateID() kernel.UUID

	sealed()
}

// OrderPlaced carries a full snapshot of the placed order.
type OrderPlaced struct {
	OrderID    kernel.UUID
	CustomerID kernel.UUID
	Total      kernel.Money
	Lines      []OrderLine
}

// OrderAccepted is raised when a placed order is accepted.
type OrderAccepted struct {
	OrderID kernel.UUID
}

// OrderCancelled is raised when an order is cancelled.
type OrderCancelled struct {
	OrderID kernel.UUID
	Reason  string
}

// OrderCompleted is raised when an accepted order is completed.
type OrderCompleted struct {
	OrderID kernel.UUID
}

func (OrderPlaced) EventName() string    { return OrderPlacedEventName }
func (OrderAccepted) EventName() string  { return OrderAcceptedEventName }
func (OrderCancelled) EventName() string { return OrderCancelledEventName }
func (OrderCompleted) EventName() string { return OrderCompletedEventName }

func (e OrderPlaced) AggregateID() kernel.UUID    { return e.OrderID }
func (e OrderAccepted) AggregateID() kernel.UUID  { return e.OrderID }
func (e OrderCancelled) AggregateID() kernel.UUID { return e.OrderID }
func (e OrderCompleted) AggregateID() kernel.UUID { return e.OrderID }

func (OrderPlaced) sealed()    {}
func (OrderAccepted) sealed()  {}
func (OrderCancelled) sealed() {}
func (OrderCompleted) sealed() {}
