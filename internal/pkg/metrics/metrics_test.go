package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/model/order"
	"ordering/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderingMetrics_EventsCommitted(t *testing.T) {
	m := metrics.NewOrderingMetrics(prometheus.NewRegistry())
	id := kernel.NewUUID()

	m.EventsCommitted(t.Context(), []order.Event{
		order.OrderPlaced{OrderID: id},
		order.OrderAccepted{OrderID: id},
		order.OrderCancelled{OrderID: id, Reason: "unspecified"},
		order.OrderPlaced{OrderID: kernel.NewUUID()},
		order.OrderCompleted{OrderID: id},
	})

	assert.InDelta(t, 2, testutil.ToFloat64(m.OrdersCreated), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.OrdersCancelled), 0)
}

func TestOrderingMetrics_Outbox(t *testing.T) {
	m := metrics.NewOrderingMetrics(prometheus.NewRegistry())

	m.RecordPublished(order.OrderPlacedEventName)
	m.RecordPublished(order.OrderPlacedEventName)
	m.RecordPublishFailure(order.OrderAcceptedEventName)
	m.RecordPurged(7)
	m.RecordPurged(0)

	assert.InDelta(t, 2, testutil.ToFloat64(m.OutboxPublished.WithLabelValues(order.OrderPlacedEventName)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.OutboxPublishFailures.WithLabelValues(order.OrderAcceptedEventName)), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.OutboxPurged), 0)
}

func TestOrderingMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.OrderingMetrics

	assert.NotPanics(t, func() {
		m.EventsCommitted(t.Context(), []order.Event{order.OrderPlaced{}})
		m.RecordPublished("x")
		m.RecordPublishFailure("x")
		m.RecordPurged(1)
	})
}

func TestHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := metrics.NewOrderingMetrics(registry)
	m.RecordPurged(3)

	rec := httptest.NewRecorder()
	metrics.Handler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "ordering_outbox_purged_total 3"))
}
