package queries_test

import (
	"testing"
	"time"

	"ordering/internal/adapters/out/postgres"
	"ordering/internal/adapters/out/postgres/orderrepo"
	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/model/order"
	"ordering/internal/core/ports"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type mockAggregateTracker struct{}

func (m *mockAggregateTracker) TrackAggregate(kernel.UUID, ports.EventSource) {}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, postgres.AutoMigrate(db))
	return db
}

// storeOrder persists an order for customerID placed at placedAt with the
// given status.
func storeOrder(
	t *testing.T,
	db *gorm.DB,
	customerID kernel.UUID,
	placedAt time.Time,
	status order.Status,
) *order.Order {
	t.Helper()

	price1, err := kernel.NewMoney(decimal.RequireFromString("100.00"), "ZAR")
	require.NoError(t, err)
	price2, err := kernel.NewMoney(decimal.RequireFromString("50.00"), "ZAR")
	require.NoError(t, err)

	line1, err := order.NewOrderLine("SKU-1", 2, price1)
	require.NoError(t, err)
	line2, err := order.NewOrderLine("SKU-2", 1, price2)
	require.NoError(t, err)

	stored, err := order.RestoreOrder(
		kernel.NewUUID(),
		customerID,
		[]order.OrderLine{line1, line2},
		status,
		placedAt,
	)
	require.NoError(t, err)

	repo := orderrepo.NewGormOrderRepository(db, &mockAggregateTracker{})
	require.NoError(t, repo.Add(t.Context(), stored))
	return stored
}
