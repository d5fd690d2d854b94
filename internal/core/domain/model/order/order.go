package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/pkg/errs"
	"ordering/internal/pkg/guard"
)

const (
	// MaxCancelReasonLength bounds the cancellation reason, in characters.
	MaxCancelReasonLength = 256

	// DefaultCancelReason is recorded when Cancel is called with a blank reason.
	DefaultCancelReason = "unspecified"
)

// ErrOrderIsNotConstructed is returned when an Order was not created through
// Place or RestoreOrder.
var ErrOrderIsNotConstructed = errors.New("Order must be created via Place or RestoreOrder")

// Order is the aggregate root of the ordering domain.
//
// Invariants:
//   - id and customer id are valid UUIDs
//   - there is at least one line, all lines share one currency
//   - total equals the sum of quantity × unit price over the lines
//   - status only moves forward along the lifecycle and never leaves a terminal state
//
// Lines are fixed at placement. Each successful mutation appends one Event to
// an internal queue that DrainPendingEvents empties.
type Order struct {
	id         kernel.UUID
	customerID kernel.UUID
	lines      []OrderLine
	total      kernel.Money
	status     Status
	placedAt   time.Time

	// storedStatus is the status the store held when the order was last
	// loaded or saved. Unknown until the order is first stored.
	storedStatus Status

	pendingEvents []Event

	guard guard.ConstructorGuard
}

// Place creates a new order in Placed status and queues an OrderPlaced event.
// It is the only way to create an order outside of rehydration.
//
// Example:
//
//	price, _ := kernel.NewMoney(decimal.RequireFromString("100.00"), "ZAR")
//	line, _ := order.NewOrderLine("SKU-1", 2, price)
//
//	o, err := order.Place(customerID, []order.OrderLine{line})
//	if err != nil {
//	    // errs.IsInvalidArgument(err) is true for every validation failure
//	}
func Place(customerID kernel.UUID, lines []OrderLine) (*Order, error) {
	o := &Order{
		id:       kernel.NewUUID(),
		status:   Placed,
		placedAt: time.Now().UTC(),
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setCustomerID(customerID),
		o.setLines(lines),
	); err != nil {
		return nil, err
	}

	o.raise(OrderPlaced{
		OrderID:    o.id,
		CustomerID: o.customerID,
		Total:      o.total,
		Lines:      o.Lines(),
	})

	return o, nil
}

// RestoreOrder rebuilds an order from persisted state. It re-checks all
// invariants but raises no events.
func RestoreOrder(
	id kernel.UUID,
	customerID kernel.UUID,
	lines []OrderLine,
	status Status,
	placedAt time.Time,
) (*Order, error) {
	o := &Order{
		placedAt: placedAt.UTC(),
		guard:    guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		o.setID(id),
		o.setCustomerID(customerID),
		o.setLines(lines),
		o.setStatus(status),
	); err != nil {
		return nil, err
	}
	o.storedStatus = o.status

	return o, nil
}

// Validate ensures the order was created through Place or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

// IsEqual compares two orders by identity.
func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

// ID returns the order's unique identifier.
func (o *Order) ID() kernel.UUID {
	return o.id
}

// CustomerID returns the id of the customer who placed the order.
func (o *Order) CustomerID() kernel.UUID {
	return o.customerID
}

// Lines returns a copy of the order lines in placement order.
func (o *Order) Lines() []OrderLine {
	return slices.Clone(o.lines)
}

// Total returns the sum of all line totals.
func (o *Order) Total() kernel.Money {
	return o.total
}

// Status returns the current lifecycle status.
func (o *Order) Status() Status {
	return o.status
}

// StoredStatus returns the status the store held when the order was last
// loaded or saved. Repositories write a new status only over this one, so a
// transition computed from stale state never overwrites a newer one.
func (o *Order) StoredStatus() Status {
	return o.storedStatus
}

// MarkStored records that the current status has been saved.
func (o *Order) MarkStored() {
	o.storedStatus = o.status
}

// PlacedAt returns the UTC placement time.
func (o *Order) PlacedAt() time.Time {
	return o.placedAt
}

// Accept moves a Placed order to Accepted and queues OrderAccepted.
func (o *Order) Accept() error {
	newStatus, err := o.status.Accept()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.raise(OrderAccepted{OrderID: o.id})
	return nil
}

// Cancel moves a Placed or Accepted order to Cancelled and queues
// OrderCancelled. The reason is trimmed; a blank reason becomes
// DefaultCancelReason.
func (o *Order) Cancel(reason string) error {
	newStatus, err := o.status.Cancel()
	if err != nil {
		return err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultCancelReason
	}

	if length := utf8.RuneCountInString(reason); length > MaxCancelReasonLength {
		return errs.NewValueIsOutOfRangeError("reason length", length, 1, MaxCancelReasonLength)
	}

	o.status = newStatus
	o.raise(OrderCancelled{OrderID: o.id, Reason: reason})
	return nil
}

// Complete moves an Accepted order to Completed and queues OrderCompleted.
func (o *Order) Complete() error {
	newStatus, err := o.status.Complete()
	if err != nil {
		return err
	}

	o.status = newStatus
	o.raise(OrderCompleted{OrderID: o.id})
	return nil
}

// DrainPendingEvents returns the queued events in raise order and clears the
// queue. A second call returns an empty slice.
func (o *Order) DrainPendingEvents() []Event {
	events := o.pendingEvents
	o.pendingEvents = nil

	if events == nil {
		return []Event{}
	}
	return events
}

func (o *Order) raise(event Event) {
	o.pendingEvents = append(o.pendingEvents, event)
}

func (o *Order) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	o.id = id
	return nil
}

func (o *Order) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customerID", err)
	}
	o.customerID = customerID
	return nil
}

func (o *Order) setLines(lines []OrderLine) error {
	if len(lines) == 0 {
		return errs.NewValueIsRequiredError("lines")
	}

	for i, line := range lines {
		if err := line.Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(fmt.Sprintf("lines[%d]", i), err)
		}
	}

	total, err := kernel.ZeroMoney(lines[0].UnitPrice().Currency())
	if err != nil {
		return err
	}

	for _, line := range lines {
		if total, err = total.Add(line.Total()); err != nil {
			return err
		}
	}

	o.lines = slices.Clone(lines)
	o.total = total
	return nil
}

func (o *Order) setStatus(status Status) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.status = status
	return nil
}
