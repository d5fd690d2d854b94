package commands_test

import (
	"errors"
	"testing"

	"ordering/internal/core/application/usecases/commands"
	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/model/order"
	"ordering/internal/core/domain/services"
	"ordering/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// expectLoad wires a unit of work that returns o (or err) from Get.
func expectLoad(
	t *testing.T,
	o *order.Order,
	id kernel.UUID,
	getErr error,
) (*MockOrderUoWFactory, *MockOrderUoW, *MockOrderRepository) {
	t.Helper()
	ctx := t.Context()

	repo := new(MockOrderRepository)
	uow := new(MockOrderUoW)
	uow.On("Begin", ctx).Return(nil).Once()
	uow.On("OrderRepository").Return(repo).Once()
	uow.On("Rollback", ctx).Return(nil).Once()
	repo.On("Get", ctx, id).Return(o, getErr).Once()

	factory := new(MockOrderUoWFactory)
	factory.On("Create").Return(uow).Once()

	return factory, uow, repo
}

func TestCancelOrderCommandHandler_Handle(t *testing.T) {
	t.Run("should cancel and persist placed order", func(t *testing.T) {
		ctx := t.Context()
		o := existingOrder(t)
		factory, uow, repo := expectLoad(t, o, o.ID(), nil)
		repo.On("Update", ctx, o).Return(nil).Once()
		uow.On("Commit", ctx).Return(nil).Once()

		cmd, err := commands.NewCancelOrderCommand(o.ID(), "customer request")
		require.NoError(t, err)

		result, err := commands.NewCancelOrderCommandHandler(factory).Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, order.Cancelled, result.Status())
		events := result.DrainPendingEvents()
		require.Len(t, events, 1)
		assert.Equal(t, "customer request", events[0].(order.OrderCancelled).Reason)
		repo.AssertExpectations(t)
		uow.AssertExpectations(t)
	})

	t.Run("should return invalid state without writing", func(t *testing.T) {
		ctx := t.Context()
		o := existingOrder(t, (*order.Order).Accept, (*order.Order).Complete)
		factory, uow, repo := expectLoad(t, o, o.ID(), nil)

		cmd, _ := commands.NewCancelOrderCommand(o.ID(), "too late")
		_, err := commands.NewCancelOrderCommandHandler(factory).Handle(ctx, cmd)

		require.ErrorIs(t, err, errs.ErrInvalidState)
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
		uow.AssertExpectations(t)
	})

	t.Run("should return not found", func(t *testing.T) {
		ctx := t.Context()
		id := kernel.NewUUID()
		factory, uow, _ := expectLoad(t, nil, id, errs.NewObjectNotFoundError("order", id.String()))

		cmd, _ := commands.NewCancelOrderCommand(id, "")
		_, err := commands.NewCancelOrderCommandHandler(factory).Handle(ctx, cmd)

		require.ErrorIs(t, err, errs.ErrObjectNotFound)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})
}

func TestAcceptOrderCommandHandler_Handle(t *testing.T) {
	t.Run("should accept placed order", func(t *testing.T) {
		ctx := t.Context()
		o := existingOrder(t)
		factory, uow, repo := expectLoad(t, o, o.ID(), nil)
		repo.On("Update", ctx, o).Return(nil).Once()
		uow.On("Commit", ctx).Return(nil).Once()

		cmd, _ := commands.NewAcceptOrderCommand(o.ID())
		result, err := commands.NewAcceptOrderCommandHandler(factory).Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, order.Accepted, result.Status())
		uow.AssertExpectations(t)
	})

	t.Run("should propagate update error", func(t *testing.T) {
		ctx := t.Context()
		o := existingOrder(t)
		factory, uow, repo := expectLoad(t, o, o.ID(), nil)
		repo.On("Update", ctx, o).Return(errors.New("connection reset")).Once()

		cmd, _ := commands.NewAcceptOrderCommand(o.ID())
		_, err := commands.NewAcceptOrderCommandHandler(factory).Handle(ctx, cmd)

		require.EqualError(t, err, "connection reset")
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})
}

func TestCompleteOrderCommandHandler_Handle(t *testing.T) {
	t.Run("should complete accepted order", func(t *testing.T) {
		ctx := t.Context()
		o := existingOrder(t, (*order.Order).Accept)
		factory, uow, repo := expectLoad(t, o, o.ID(), nil)
		repo.On("Update", ctx, o).Return(nil).Once()
		uow.On("Commit", ctx).Return(nil).Once()

		cmd, _ := commands.NewCompleteOrderCommand(o.ID())
		result, err := commands.NewCompleteOrderCommandHandler(factory).Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, order.Completed, result.Status())
	})

	t.Run("should reject placed order", func(t *testing.T) {
		ctx := t.Context()
		o := existingOrder(t)
		factory, _, _ := expectLoad(t, o, o.ID(), nil)

		cmd, _ := commands.NewCompleteOrderCommand(o.ID())
		_, err := commands.NewCompleteOrderCommandHandler(factory).Handle(ctx, cmd)

		require.ErrorIs(t, err, errs.ErrInvalidState)
	})
}

func TestApplyPaymentResultCommandHandler_Handle(t *testing.T) {
	t.Run("should accept order on captured payment", func(t *testing.T) {
		ctx := t.Context()
		o := existingOrder(t)
		factory, uow, repo := expectLoad(t, o, o.ID(), nil)
		repo.On("Update", ctx, o).Return(nil).Once()
		uow.On("Commit", ctx).Return(nil).Once()

		cmd, err := commands.NewApplyPaymentResultCommand(o.ID(), services.NewPaymentSucceeded("pay-42"))
		require.NoError(t, err)

		result, err := commands.NewApplyPaymentResultCommandHandler(factory).Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, order.Accepted, result.Status())
		uow.AssertExpectations(t)
	})

	t.Run("should acknowledge duplicate outcome without writing", func(t *testing.T) {
		ctx := t.Context()
		o := existingOrder(t, (*order.Order).Accept)
		factory, uow, repo := expectLoad(t, o, o.ID(), nil)

		cmd, _ := commands.NewApplyPaymentResultCommand(o.ID(), services.NewPaymentSucceeded("pay-42"))
		result, err := commands.NewApplyPaymentResultCommandHandler(factory).Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, order.Accepted, result.Status())
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
		uow.AssertNotCalled(t, "Commit", mock.Anything)
	})

	t.Run("should cancel order on declined payment", func(t *testing.T) {
		ctx := t.Context()
		o := existingOrder(t)
		factory, uow, repo := expectLoad(t, o, o.ID(), nil)
		repo.On("Update", ctx, o).Return(nil).Once()
		uow.On("Commit", ctx).Return(nil).Once()

		cmd, _ := commands.NewApplyPaymentResultCommand(o.ID(), services.NewPaymentFailed("insufficient funds"))
		result, err := commands.NewApplyPaymentResultCommandHandler(factory).Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Equal(t, order.Cancelled, result.Status())
	})
}

func TestOrderMutation_ConcurrentModification(t *testing.T) {
	t.Run("should replay the command on fresh state after losing a race", func(t *testing.T) {
		ctx := t.Context()
		stale := existingOrder(t, (*order.Order).Accept)
		fresh := existingOrder(t, (*order.Order).Accept)
		conflict := errs.NewConcurrentModificationError("order", stale.ID().String(), "Accepted", "Placed")

		staleRepo := new(MockOrderRepository)
		staleRepo.On("Get", ctx, stale.ID()).Return(stale, nil).Once()
		staleRepo.On("Update", ctx, stale).Return(conflict).Once()
		staleUoW := new(MockOrderUoW)
		staleUoW.On("Begin", ctx).Return(nil).Once()
		staleUoW.On("OrderRepository").Return(staleRepo).Once()
		staleUoW.On("Rollback", ctx).Return(nil).Once()

		freshRepo := new(MockOrderRepository)
		freshRepo.On("Get", ctx, stale.ID()).Return(fresh, nil).Once()
		freshRepo.On("Update", ctx, fresh).Return(nil).Once()
		freshUoW := new(MockOrderUoW)
		freshUoW.On("Begin", ctx).Return(nil).Once()
		freshUoW.On("OrderRepository").Return(freshRepo).Once()
		freshUoW.On("Commit", ctx).Return(nil).Once()
		freshUoW.On("Rollback", ctx).Return(nil).Once()

		factory := new(MockOrderUoWFactory)
		factory.On("Create").Return(staleUoW).Once()
		factory.On("Create").Return(freshUoW).Once()

		cmd, err := commands.NewCancelOrderCommand(stale.ID(), "payment failed")
		require.NoError(t, err)

		result, err := commands.NewCancelOrderCommandHandler(factory).Handle(ctx, cmd)

		require.NoError(t, err)
		assert.Same(t, fresh, result)
		assert.Equal(t, order.Cancelled, result.Status())
		staleUoW.AssertNotCalled(t, "Commit", mock.Anything)
		factory.AssertExpectations(t)
		staleRepo.AssertExpectations(t)
		freshRepo.AssertExpectations(t)
		freshUoW.AssertExpectations(t)
	})

	t.Run("should surface the conflict when every attempt loses", func(t *testing.T) {
		ctx := t.Context()
		id := kernel.NewUUID()
		conflict := errs.NewConcurrentModificationError("order", id.String(), "Placed", "Accepted")

		factory := new(MockOrderUoWFactory)
		for range 3 {
			o := existingOrder(t)
			repo := new(MockOrderRepository)
			repo.On("Get", ctx, id).Return(o, nil).Once()
			repo.On("Update", ctx, o).Return(conflict).Once()
			uow := new(MockOrderUoW)
			uow.On("Begin", ctx).Return(nil).Once()
			uow.On("OrderRepository").Return(repo).Once()
			uow.On("Rollback", ctx).Return(nil).Once()
			factory.On("Create").Return(uow).Once()
		}

		cmd, err := commands.NewAcceptOrderCommand(id)
		require.NoError(t, err)

		_, err = commands.NewAcceptOrderCommandHandler(factory).Handle(ctx, cmd)

		require.ErrorIs(t, err, errs.ErrConcurrentModification)
		require.ErrorIs(t, err, errs.ErrInvalidState)
		factory.AssertNumberOfCalls(t, "Create", 3)
	})
}
