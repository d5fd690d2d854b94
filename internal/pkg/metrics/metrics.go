// Package metrics holds the Prometheus counters of the ordering service.
//
// All methods are safe on a nil *OrderingMetrics, which records nothing.
package metrics

import (
	"context"
	"net/http"

	"ordering/internal/core/domain/model/order"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ordering"

type OrderingMetrics struct {
	OrdersCreated         prometheus.Counter
	OrdersCancelled       prometheus.Counter
	OutboxPublished       *prometheus.CounterVec
	OutboxPublishFailures *prometheus.CounterVec
	OutboxPurged          prometheus.Counter
}

// NewOrderingMetrics creates the counters and registers them with reg.
// It panics if any of them is already registered.
func NewOrderingMetrics(reg prometheus.Registerer) *OrderingMetrics {
	factory := promauto.With(reg)

	return &OrderingMetrics{
		OrdersCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of placed orders.",
		}),
		OrdersCancelled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_cancelled_total",
			Help:      "Total number of cancelled orders.",
		}),
		OutboxPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_published_total",
			Help:      "Total number of outbox records acknowledged by the broker.",
		}, []string{"type"}),
		OutboxPublishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_publish_failures_total",
			Help:      "Total number of failed outbox publish attempts.",
		}, []string{"type"}),
		OutboxPurged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_purged_total",
			Help:      "Total number of dispatched outbox records deleted by retention.",
		}),
	}
}

// EventsCommitted counts placements and cancellations once their
// transaction has committed.
func (m *OrderingMetrics) EventsCommitted(_ context.Context, events []order.Event) {
	if m == nil {
		return
	}

	for _, event := range events {
		switch event.(type) {
		case order.OrderPlaced:
			m.OrdersCreated.Inc()
		case order.OrderCancelled:
			m.OrdersCancelled.Inc()
		}
	}
}

func (m *OrderingMetrics) RecordPublished(eventType string) {
	if m == nil {
		return
	}
	m.OutboxPublished.WithLabelValues(eventType).Inc()
}

func (m *OrderingMetrics) RecordPublishFailure(eventType string) {
	if m == nil {
		return
	}
	m.OutboxPublishFailures.WithLabelValues(eventType).Inc()
}

func (m *OrderingMetrics) RecordPurged(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.OutboxPurged.Add(float64(count))
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
