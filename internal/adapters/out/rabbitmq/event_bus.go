// Package rabbitmq publishes outbox messages to a RabbitMQ topic exchange
// with publisher confirms.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"ordering/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange is used when no exchange name is configured.
const DefaultExchange = "ordering"

var ErrPublishNacked = errors.New("message was nacked by the broker")

type channel interface {
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) error
	Close() error
}

// session is one confirm-mode channel and the connection that owns it.
// Delivery tags are numbered per channel starting at 1.
type session struct {
	ch        channel
	confirms  <-chan amqp.Confirmation
	conn      io.Closer
	published uint64
}

func (s *session) close() error {
	err := s.ch.Close()
	if s.conn != nil {
		err = errors.Join(err, s.conn.Close())
	}
	return err
}

type dialFunc func() (*session, error)

// EventBus implements ports.EventBus over a confirm-mode channel. The outbox
// topic becomes the routing key. Publishes are serialized so that every
// publish is matched with its own confirmation.
//
// A broken channel or connection is dropped and the next Publish dials a new
// one, so a broker restart costs the failed publishes and nothing more.
type EventBus struct {
	dial     dialFunc
	exchange string

	mu   sync.Mutex
	sess *session
}

// NewEventBus dials url, declares a durable topic exchange and puts the
// channel into confirm mode. The same steps are repeated on reconnect.
func NewEventBus(url, exchange string) (*EventBus, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	bus := newEventBus(func() (*session, error) {
		return dialSession(url, exchange)
	}, exchange)

	bus.mu.Lock()
	defer bus.mu.Unlock()
	if _, err := bus.session(); err != nil {
		return nil, err
	}

	return bus, nil
}

func newEventBus(dial dialFunc, exchange string) *EventBus {
	return &EventBus{
		dial:     dial,
		exchange: exchange,
	}
}

func dialSession(url, exchange string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	if err = ch.Confirm(false); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	return &session{
		ch:       ch,
		confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 1)),
		conn:     conn,
	}, nil
}

// session returns the live session, dialing a new one if needed.
// b.mu must be held.
func (b *EventBus) session() (*session, error) {
	if b.sess != nil {
		return b.sess, nil
	}

	sess, err := b.dial()
	if err != nil {
		return nil, err
	}
	b.sess = sess
	return sess, nil
}

// reset drops the current session. b.mu must be held.
func (b *EventBus) reset() {
	if b.sess == nil {
		return
	}
	_ = b.sess.close()
	b.sess = nil
}

// Publish sends msg as a persistent message and waits for the broker ack.
func (b *EventBus) Publish(ctx context.Context, msg ports.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	sess, err := b.session()
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.ID, err)
	}

	err = sess.ch.PublishWithContext(ctx,
		b.exchange, // exchange
		msg.Topic,  // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			MessageId:    msg.ID,
			Type:         msg.Type,
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Headers:      amqp.Table{"key": msg.Key},
			Body:         msg.Payload,
		})
	if err != nil {
		if ctx.Err() == nil {
			b.reset()
		}
		return fmt.Errorf("failed to publish message %s: %w", msg.ID, err)
	}
	sess.published++

	return b.waitConfirm(ctx, sess, msg.ID)
}

// waitConfirm reads confirmations until the one for the latest publish on
// sess arrives. Older tags belong to publishes whose caller stopped waiting.
func (b *EventBus) waitConfirm(ctx context.Context, sess *session, id string) error {
	for {
		select {
		case confirmation, ok := <-sess.confirms:
			if !ok {
				b.reset()
				return fmt.Errorf("confirm channel closed while publishing %s", id)
			}
			if confirmation.DeliveryTag < sess.published {
				continue
			}
			if !confirmation.Ack {
				return fmt.Errorf("publish %s: %w", id, ErrPublishNacked)
			}
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (b *EventBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.sess == nil {
		return nil
	}
	err := b.sess.close()
	b.sess = nil
	return err
}
