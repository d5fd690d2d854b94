package outboxrepo

import (
	"context"
	"time"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/ports"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOutboxStore reads, marks and purges outbox records.
//
// It does not lock rows: two dispatchers on the same table may publish the
// same record twice. Deployments run a single dispatcher.
type GormOutboxStore struct {
	db *gorm.DB
}

// NewGormOutboxStore creates a store on db.
func NewGormOutboxStore(db *gorm.DB) *GormOutboxStore {
	return &GormOutboxStore{db: db}
}

// FetchUndispatched returns up to limit undispatched records ordered by
// occurred-at, oldest first.
func (s *GormOutboxStore) FetchUndispatched(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	var dtos []OutboxMessageDTO
	err := s.db.WithContext(ctx).
		Where("dispatched_at IS NULL").
		Order("occurred_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	messages := make([]ports.OutboxMessage, 0, len(dtos))
	for _, dto := range dtos {
		msg, err := toMessage(dto)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	return messages, nil
}

// MarkDispatched stamps all ids with at in one transaction.
func (s *GormOutboxStore) MarkDispatched(ctx context.Context, ids []kernel.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	raw := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		raw = append(raw, id.Bytes())
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&OutboxMessageDTO{}).
			Where("id IN ?", raw).
			Where("dispatched_at IS NULL").
			Update("dispatched_at", at.UTC()).Error
	})
}

// DeleteDispatchedBefore removes dispatched records older than cutoff.
func (s *GormOutboxStore) DeleteDispatchedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("dispatched_at IS NOT NULL AND dispatched_at < ?", cutoff.UTC()).
		Delete(&OutboxMessageDTO{})

	return result.RowsAffected, result.Error
}
