// Package kafka publishes outbox messages to Kafka with an idempotent
// synchronous producer.
package kafka

import (
	"context"
	"fmt"

	"ordering/internal/core/ports"

	"github.com/IBM/sarama"
)

const (
	HeaderMessageID = "message-id"
	HeaderEventType = "event-type"
)

// NewProducerConfig returns the producer settings required for
// at-least-once delivery without broker-side duplicates: idempotence,
// acknowledgement by all in-sync replicas and a single in-flight request.
func NewProducerConfig(clientID string) *sarama.Config {
	config := sarama.NewConfig()
	config.ClientID = clientID
	config.Version = sarama.V2_1_0_0
	config.Producer.Idempotent = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.Partitioner = sarama.NewHashPartitioner
	config.Net.MaxOpenRequests = 1
	return config
}

// EventBus implements ports.EventBus on a sarama.SyncProducer.
type EventBus struct {
	producer sarama.SyncProducer
}

// NewEventBus connects an idempotent producer to brokers.
func NewEventBus(brokers []string, clientID string) (*EventBus, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewProducerConfig(clientID))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return NewEventBusWithProducer(producer), nil
}

// NewEventBusWithProducer wraps an existing producer.
func NewEventBusWithProducer(producer sarama.SyncProducer) *EventBus {
	return &EventBus{producer: producer}
}

// Publish sends msg and returns once all in-sync replicas acknowledged it.
func (b *EventBus) Publish(ctx context.Context, msg ports.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, _, err := b.producer.SendMessage(&sarama.ProducerMessage{
		Topic: msg.Topic,
		Key:   sarama.StringEncoder(msg.Key),
		Value: sarama.ByteEncoder(msg.Payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte(HeaderMessageID), Value: []byte(msg.ID)},
			{Key: []byte(HeaderEventType), Value: []byte(msg.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", msg.ID, msg.Topic, err)
	}

	return nil
}

func (b *EventBus) Close() error {
	return b.producer.Close()
}
