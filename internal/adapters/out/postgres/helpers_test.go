package postgres_test

import (
	"context"
	"sync"
	"testing"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// recordingObserver collects the events reported after each commit.
type recordingObserver struct {
	mu      sync.Mutex
	batches [][]order.Event
}

func (o *recordingObserver) EventsCommitted(_ context.Context, events []order.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.batches = append(o.batches, events)
}

func (o *recordingObserver) Batches() [][]order.Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.batches
}

// createTestOrder places a two-line order in ZAR.
func createTestOrder(t *testing.T) *order.Order {
	t.Helper()

	price, err := kernel.NewMoney(decimal.RequireFromString("49.99"), "ZAR")
	require.NoError(t, err)

	line1, err := order.NewOrderLine("SKU-1", 1, price)
	require.NoError(t, err)
	line2, err := order.NewOrderLine("SKU-2", 3, price)
	require.NoError(t, err)

	placed, err := order.Place(kernel.NewUUID(), []order.OrderLine{line1, line2})
	require.NoError(t, err)
	return placed
}
