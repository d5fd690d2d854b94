package commands

import (
	"context"
	"errors"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/model/order"
	"ordering/internal/pkg/errs"
)

// maxMutationAttempts bounds how often a mutation is replayed on fresh state
// after losing a race with another transaction.
const maxMutationAttempts = 3

// mutateOrder loads an order, applies mutate and persists the result in one
// unit of work. mutate reports whether the order changed; an unchanged order
// is returned without writing.
//
// When the write loses a race, the whole unit is retried so mutate sees the
// newer status. The last conflict is returned once the attempts run out.
func mutateOrder(
	ctx context.Context,
	uowFactory OrderUoWFactory,
	orderID kernel.UUID,
	mutate func(*order.Order) (bool, error),
) (*order.Order, error) {
	var err error
	for range maxMutationAttempts {
		var o *order.Order
		o, err = mutateOrderOnce(ctx, uowFactory, orderID, mutate)
		if !errors.Is(err, errs.ErrConcurrentModification) {
			return o, err
		}
	}
	return nil, err
}

func mutateOrderOnce(
	ctx context.Context,
	uowFactory OrderUoWFactory,
	orderID kernel.UUID,
	mutate func(*order.Order) (bool, error),
) (*order.Order, error) {
	uow := uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()
	o, err := orderRepo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	changed, err := mutate(o)
	if err != nil {
		return nil, err
	}

	if !changed {
		return o, nil
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return o, nil
}

func always(transition func(*order.Order) error) func(*order.Order) (bool, error) {
	return func(o *order.Order) (bool, error) {
		if err := transition(o); err != nil {
			return false, err
		}
		return true, nil
	}
}
