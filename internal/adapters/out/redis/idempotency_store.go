// Package redis keeps Idempotency-Key reservations for order placement in
// Redis so that every service instance sees the same keys.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// DefaultIdempotencyTTL is how long a completed key maps to its order.
	DefaultIdempotencyTTL = 24 * time.Hour

	// DefaultPendingTTL bounds how long an unfinished reservation blocks its
	// key, so a crash or a lost Complete frees the key quickly.
	DefaultPendingTTL = time.Minute

	keyPrefix    = "ordering:idempotency:"
	pendingValue = "pending"
)

// IdempotencyStore maps an Idempotency-Key to the id of the order it
// created. A key is first reserved as pending, then completed with the order
// id, or released when placement failed so the client may retry.
type IdempotencyStore struct {
	client     *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewIdempotencyStore creates a store. A non-positive ttl means
// DefaultIdempotencyTTL.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl, pendingTTL: min(DefaultPendingTTL, ttl)}
}

// WithPendingTTL changes how long a reservation lives before Complete. It
// never exceeds the completed-key TTL.
func (s *IdempotencyStore) WithPendingTTL(ttl time.Duration) *IdempotencyStore {
	if ttl > 0 {
		s.pendingTTL = min(ttl, s.ttl)
	}
	return s
}

func (s *IdempotencyStore) key(idempotencyKey string) string {
	return keyPrefix + idempotencyKey
}

// Reserve records the key as pending. It returns true when the key was newly
// reserved.
func (s *IdempotencyStore) Reserve(ctx context.Context, idempotencyKey string) (bool, error) {
	return s.client.SetNX(ctx, s.key(idempotencyKey), pendingValue, s.pendingTTL).Result()
}

// Lookup returns the order id stored for the key. pending is true while the
// key is reserved but not completed. A missing key yields "" and false.
func (s *IdempotencyStore) Lookup(ctx context.Context, idempotencyKey string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.key(idempotencyKey)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if value == pendingValue {
		return "", true, nil
	}
	return value, false, nil
}

// Complete stores orderID for a reserved key and restarts its TTL.
func (s *IdempotencyStore) Complete(ctx context.Context, idempotencyKey, orderID string) error {
	if err := s.client.Set(ctx, s.key(idempotencyKey), orderID, s.ttl).Err(); err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

// Release deletes a reservation.
func (s *IdempotencyStore) Release(ctx context.Context, idempotencyKey string) error {
	return s.client.Del(ctx, s.key(idempotencyKey)).Err()
}
