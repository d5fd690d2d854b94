package jobs_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/ports"
)

var errBrokerUnavailable = errors.New("broker unavailable")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeOutboxStore is an in-memory ports.OutboxStore.
type fakeOutboxStore struct {
	mu         sync.Mutex
	messages   []ports.OutboxMessage
	fetchErr   error
	markErr    error
	markCtxErr error
	deleted    int64
	cutoff     time.Time
	deleteErr  error
}

func (s *fakeOutboxStore) FetchUndispatched(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fetchErr != nil {
		return nil, s.fetchErr
	}

	result := make([]ports.OutboxMessage, 0, limit)
	for _, msg := range s.messages {
		if msg.DispatchedAt == nil && len(result) < limit {
			result = append(result, msg)
		}
	}
	return result, nil
}

func (s *fakeOutboxStore) MarkDispatched(ctx context.Context, ids []kernel.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.markCtxErr = ctx.Err()
	if s.markErr != nil {
		return s.markErr
	}

	for _, id := range ids {
		for i := range s.messages {
			if s.messages[i].ID == id && s.messages[i].DispatchedAt == nil {
				stamp := at
				s.messages[i].DispatchedAt = &stamp
			}
		}
	}
	return nil
}

func (s *fakeOutboxStore) DeleteDispatchedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cutoff = cutoff
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	return s.deleted, nil
}

func (s *fakeOutboxStore) dispatched() map[kernel.UUID]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make(map[kernel.UUID]bool, len(s.messages))
	for _, msg := range s.messages {
		result[msg.ID] = msg.DispatchedAt != nil
	}
	return result
}

// fakeEventBus records published messages and fails for selected ids.
type fakeEventBus struct {
	mu        sync.Mutex
	published []ports.Message
	failFor   map[string]bool
	onPublish func()
}

func (b *fakeEventBus) Publish(_ context.Context, msg ports.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.onPublish != nil {
		b.onPublish()
	}
	if b.failFor[msg.ID] {
		return errBrokerUnavailable
	}
	b.published = append(b.published, msg)
	return nil
}

func (b *fakeEventBus) Published() []ports.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ports.Message(nil), b.published...)
}
