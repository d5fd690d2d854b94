package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/domain/model/order"
	"ordering/internal/core/ports"
	"ordering/internal/jobs"
	"ordering/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outboxMessage(eventType string, payload string, occurredAt time.Time) ports.OutboxMessage {
	return ports.OutboxMessage{
		ID:         kernel.NewUUID(),
		Type:       eventType,
		Payload:    []byte(payload),
		OccurredAt: occurredAt,
	}
}

func TestOutboxDispatcher_RunOnce(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	orderID := kernel.NewUUID().String()

	t.Run("should keep failed record undispatched and continue with the rest", func(t *testing.T) {
		first := outboxMessage(order.OrderPlacedEventName, `{"orderId":"`+orderID+`"}`, base)
		second := outboxMessage(order.OrderAcceptedEventName, `{"orderId":"`+orderID+`"}`, base.Add(time.Second))
		third := outboxMessage(order.OrderCompletedEventName, `{"orderId":"`+orderID+`"}`, base.Add(2*time.Second))
		store := &fakeOutboxStore{messages: []ports.OutboxMessage{first, second, third}}
		bus := &fakeEventBus{failFor: map[string]bool{second.ID.String(): true}}
		m := metrics.NewOrderingMetrics(prometheus.NewRegistry())
		dispatcher := jobs.NewOutboxDispatcher(store, bus, jobs.NewTopicRouter("", nil), jobs.DispatcherConfig{}, m, discardLogger())

		marked, err := dispatcher.RunOnce(t.Context())

		require.NoError(t, err)
		assert.Equal(t, 2, marked)
		assert.Equal(t, map[kernel.UUID]bool{first.ID: true, second.ID: false, third.ID: true}, store.dispatched())

		published := bus.Published()
		require.Len(t, published, 2)
		assert.Equal(t, first.ID.String(), published[0].ID)
		assert.Equal(t, third.ID.String(), published[1].ID)
		assert.InDelta(t, 1, testutil.ToFloat64(m.OutboxPublishFailures.WithLabelValues(order.OrderAcceptedEventName)), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(m.OutboxPublished.WithLabelValues(order.OrderPlacedEventName)), 0)

		// The failed record is retried on the next cycle.
		bus.failFor = nil
		marked, err = dispatcher.RunOnce(t.Context())
		require.NoError(t, err)
		assert.Equal(t, 1, marked)
		assert.True(t, store.dispatched()[second.ID])
	})

	t.Run("should route topics and key by order id", func(t *testing.T) {
		placed := outboxMessage(order.OrderPlacedEventName, `{"orderId":"`+orderID+`","total":"1.00"}`, base)
		cancelled := outboxMessage(order.OrderCancelledEventName, `{"orderId":"`+orderID+`","reason":"x"}`, base)
		store := &fakeOutboxStore{messages: []ports.OutboxMessage{placed, cancelled}}
		bus := &fakeEventBus{}
		router := jobs.NewTopicRouter("", map[string]string{order.OrderPlacedEventName: "orders-placed"})
		dispatcher := jobs.NewOutboxDispatcher(store, bus, router, jobs.DispatcherConfig{}, nil, discardLogger())

		_, err := dispatcher.RunOnce(t.Context())

		require.NoError(t, err)
		published := bus.Published()
		require.Len(t, published, 2)
		assert.Equal(t, "orders-placed", published[0].Topic)
		assert.Equal(t, jobs.DefaultTopic, published[1].Topic)
		assert.Equal(t, orderID, published[0].Key)
		assert.Equal(t, orderID, published[1].Key)
		assert.Equal(t, order.OrderPlacedEventName, published[0].Type)
		assert.JSONEq(t, string(placed.Payload), string(published[0].Payload))
	})

	t.Run("should fall back to record id when payload has no order id", func(t *testing.T) {
		msg := outboxMessage("Custom", `not json`, base)
		store := &fakeOutboxStore{messages: []ports.OutboxMessage{msg}}
		bus := &fakeEventBus{}
		dispatcher := jobs.NewOutboxDispatcher(store, bus, jobs.NewTopicRouter("", nil), jobs.DispatcherConfig{}, nil, discardLogger())

		_, err := dispatcher.RunOnce(t.Context())

		require.NoError(t, err)
		require.Len(t, bus.Published(), 1)
		assert.Equal(t, msg.ID.String(), bus.Published()[0].Key)
	})

	t.Run("should honor batch size", func(t *testing.T) {
		messages := make([]ports.OutboxMessage, 0, 5)
		for i := range 5 {
			messages = append(messages, outboxMessage(order.OrderAcceptedEventName, `{}`, base.Add(time.Duration(i)*time.Second)))
		}
		store := &fakeOutboxStore{messages: messages}
		bus := &fakeEventBus{}
		dispatcher := jobs.NewOutboxDispatcher(store, bus, jobs.NewTopicRouter("", nil), jobs.DispatcherConfig{BatchSize: 2}, nil, discardLogger())

		marked, err := dispatcher.RunOnce(t.Context())

		require.NoError(t, err)
		assert.Equal(t, 2, marked)
		assert.Len(t, bus.Published(), 2)
	})

	t.Run("should stamp dispatched-at from clock", func(t *testing.T) {
		msg := outboxMessage(order.OrderAcceptedEventName, `{}`, base)
		store := &fakeOutboxStore{messages: []ports.OutboxMessage{msg}}
		at := base.Add(time.Hour)
		dispatcher := jobs.NewOutboxDispatcher(store, &fakeEventBus{}, jobs.NewTopicRouter("", nil), jobs.DispatcherConfig{}, nil, discardLogger()).
			WithClock(func() time.Time { return at })

		_, err := dispatcher.RunOnce(t.Context())

		require.NoError(t, err)
		require.NotNil(t, store.messages[0].DispatchedAt)
		assert.True(t, at.Equal(*store.messages[0].DispatchedAt))
	})

	t.Run("should return store errors", func(t *testing.T) {
		store := &fakeOutboxStore{fetchErr: errors.New("connection refused")}
		bus := &fakeEventBus{}
		dispatcher := jobs.NewOutboxDispatcher(store, bus, jobs.NewTopicRouter("", nil), jobs.DispatcherConfig{}, nil, discardLogger())

		_, err := dispatcher.RunOnce(t.Context())

		require.Error(t, err)
		assert.Empty(t, bus.Published())
	})

	t.Run("should stop at record boundary and still mark acknowledged records on shutdown", func(t *testing.T) {
		first := outboxMessage(order.OrderPlacedEventName, `{}`, base)
		second := outboxMessage(order.OrderAcceptedEventName, `{}`, base.Add(time.Second))
		store := &fakeOutboxStore{messages: []ports.OutboxMessage{first, second}}
		ctx, cancel := context.WithCancel(t.Context())
		bus := &fakeEventBus{onPublish: cancel}
		dispatcher := jobs.NewOutboxDispatcher(store, bus, jobs.NewTopicRouter("", nil), jobs.DispatcherConfig{}, nil, discardLogger())

		marked, err := dispatcher.RunOnce(ctx)

		require.NoError(t, err)
		assert.Equal(t, 1, marked)
		assert.NoError(t, store.markCtxErr)
		assert.Equal(t, map[kernel.UUID]bool{first.ID: true, second.ID: false}, store.dispatched())
	})
}

func TestOutboxDispatcher_Run(t *testing.T) {
	t.Run("should publish until cancelled and return nil", func(t *testing.T) {
		msg := outboxMessage(order.OrderPlacedEventName, `{}`, time.Now())
		store := &fakeOutboxStore{messages: []ports.OutboxMessage{msg}}
		bus := &fakeEventBus{}
		dispatcher := jobs.NewOutboxDispatcher(store, bus, jobs.NewTopicRouter("", nil),
			jobs.DispatcherConfig{Interval: 10 * time.Millisecond}, nil, discardLogger())

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() { done <- dispatcher.Run(ctx) }()

		require.Eventually(t, func() bool { return store.dispatched()[msg.ID] }, time.Second, 5*time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("dispatcher did not stop")
		}
		assert.Len(t, bus.Published(), 1)
	})

	t.Run("should interrupt a long sleep on shutdown", func(t *testing.T) {
		dispatcher := jobs.NewOutboxDispatcher(&fakeOutboxStore{}, &fakeEventBus{}, jobs.NewTopicRouter("", nil),
			jobs.DispatcherConfig{Interval: time.Hour}, nil, discardLogger())

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() { done <- dispatcher.Run(ctx) }()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(time.Second):
			t.Fatal("dispatcher did not stop")
		}
	})
}
