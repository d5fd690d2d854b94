package commands

import (
	"errors"
	"fmt"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/model/order"
	"ordering/internal/pkg/errs"
	"ordering/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrPlaceOrderCommandIsNotConstructed = errors.New(
		"PlaceOrderCommand must be created via NewPlaceOrderCommand constructor",
	)
	ErrOrderLinesAreRequired = errs.NewValueIsRequiredError("lines")
)

// PlaceOrderLine is the raw input for one line of a new order.
type PlaceOrderLine struct {
	SKU       string
	Quantity  int
	UnitPrice decimal.Decimal
	Currency  string
}

// PlaceOrderCommand represents a customer's request to place an order.
//
// Example:
//
//	cmd, err := NewPlaceOrderCommand(customerID, []PlaceOrderLine{
//	    {SKU: "SKU-1", Quantity: 2, UnitPrice: decimal.RequireFromString("100.00"), Currency: "ZAR"},
//	})
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	placed, err := handler.Handle(ctx, cmd)
type PlaceOrderCommand struct { //nolint:recvcheck //using for validation
	customerID kernel.UUID
	lines      []order.OrderLine

	guard guard.ConstructorGuard
}

// NewPlaceOrderCommand validates the customer id and builds the order lines.
// All line failures are reported together.
func NewPlaceOrderCommand(customerID kernel.UUID, lines []PlaceOrderLine) (PlaceOrderCommand, error) {
	cmd := PlaceOrderCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setCustomerID(customerID),
		cmd.setLines(lines),
	); err != nil {
		return PlaceOrderCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c PlaceOrderCommand) Validate() error {
	return c.guard.Validate(ErrPlaceOrderCommandIsNotConstructed)
}

// CustomerID returns the ordering customer.
func (c PlaceOrderCommand) CustomerID() kernel.UUID {
	return c.customerID
}

// Lines returns the validated order lines.
func (c PlaceOrderCommand) Lines() []order.OrderLine {
	return c.lines
}

func (c *PlaceOrderCommand) setCustomerID(customerID kernel.UUID) error {
	if err := customerID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("customerID", err)
	}

	c.customerID = customerID
	return nil
}

func (c *PlaceOrderCommand) setLines(raw []PlaceOrderLine) error {
	if len(raw) == 0 {
		return ErrOrderLinesAreRequired
	}

	lines := make([]order.OrderLine, 0, len(raw))
	lineErrs := make([]error, 0)
	for i, r := range raw {
		unitPrice, err := kernel.NewMoney(r.UnitPrice, r.Currency)
		if err != nil {
			lineErrs = append(lineErrs, fmt.Errorf("lines[%d]: %w", i, err))
			continue
		}

		line, err := order.NewOrderLine(r.SKU, r.Quantity, unitPrice)
		if err != nil {
			lineErrs = append(lineErrs, fmt.Errorf("lines[%d]: %w", i, err))
			continue
		}

		lines = append(lines, line)
	}

	if err := errors.Join(lineErrs...); err != nil {
		return err
	}

	c.lines = lines
	return nil
}
