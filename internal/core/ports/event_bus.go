package ports

import (
	"context"
)

// Message is what the dispatcher hands to the broker.
type Message struct {
	// ID is the outbox record id. Consumers use it to drop duplicates.
	ID string

	// Type is the logical event name.
	Type string

	// Topic is the destination topic or exchange routing key.
	Topic string

	// Key selects the partition. Messages with equal keys keep their order.
	Key string

	// Payload is the serialized event.
	Payload []byte
}

// EventBus publishes messages to a broker. Publish returns nil only after the
// broker fully acknowledged the write.
type EventBus interface {
	Publish(ctx context.Context, msg Message) error
}
