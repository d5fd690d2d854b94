package commands

import (
	"errors"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/services"
	"ordering/internal/pkg/guard"
)

var ErrApplyPaymentResultCommandIsNotConstructed = errors.New(
	"ApplyPaymentResultCommand must be created via NewApplyPaymentResultCommand constructor",
)

// ApplyPaymentResultCommand carries a payment outcome reported by the payment
// service for one order.
type ApplyPaymentResultCommand struct { //nolint:recvcheck //using for validation
	orderID kernel.UUID
	outcome services.PaymentOutcome

	guard guard.ConstructorGuard
}

// NewApplyPaymentResultCommand creates the command.
func NewApplyPaymentResultCommand(
	orderID kernel.UUID,
	outcome services.PaymentOutcome,
) (ApplyPaymentResultCommand, error) {
	if err := orderID.Validate(); err != nil {
		return ApplyPaymentResultCommand{}, err
	}

	return ApplyPaymentResultCommand{
		orderID: orderID,
		outcome: outcome,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c ApplyPaymentResultCommand) Validate() error {
	return c.guard.Validate(ErrApplyPaymentResultCommandIsNotConstructed)
}

// OrderID returns the paid order.
func (c ApplyPaymentResultCommand) OrderID() kernel.UUID {
	return c.orderID
}

// Outcome returns the payment result.
func (c ApplyPaymentResultCommand) Outcome() services.PaymentOutcome {
	return c.outcome
}
