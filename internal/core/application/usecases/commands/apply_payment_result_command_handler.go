package commands

import (
	"context"

	"ordering/internal/core/domain/model/order"
	"ordering/internal/core/domain/services"
)

// ApplyPaymentResultCommandHandler applies payment outcomes to orders.
// A captured payment accepts the order, a declined one cancels it. The
// resulting event reaches the outbox like any other state change. Outcomes
// that were already applied are acknowledged without writing.
type ApplyPaymentResultCommandHandler struct {
	uowFactory OrderUoWFactory
	applier    services.PaymentOutcomeApplier
}

// NewApplyPaymentResultCommandHandler creates the handler.
func NewApplyPaymentResultCommandHandler(uowFactory OrderUoWFactory) ApplyPaymentResultCommandHandler {
	return ApplyPaymentResultCommandHandler{
		uowFactory: uowFactory,
		applier:    services.NewPaymentOutcomeApplier(),
	}
}

// Handle applies the outcome.
func (h ApplyPaymentResultCommandHandler) Handle(
	ctx context.Context,
	cmd ApplyPaymentResultCommand,
) (*order.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	return mutateOrder(ctx, h.uowFactory, cmd.OrderID(), func(o *order.Order) (bool, error) {
		return h.applier.Apply(o, cmd.Outcome())
	})
}
