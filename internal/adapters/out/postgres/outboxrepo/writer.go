package outboxrepo

import (
	"context"
	"fmt"
	"time"

	"ordering/internal/core/domain/model/order"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormOutboxWriter appends events to the outbox through the *gorm.DB it was
// created with. Pass a transaction handle to make the records part of that
// transaction.
type GormOutboxWriter struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormOutboxWriter creates a writer. now supplies the occurred-at time;
// nil means time.Now.
func NewGormOutboxWriter(db *gorm.DB, now func() time.Time) *GormOutboxWriter {
	if now == nil {
		now = time.Now
	}

	return &GormOutboxWriter{
		db:  db,
		now: now,
	}
}

// Write stores one undispatched record for event.
func (w *GormOutboxWriter) Write(ctx context.Context, event order.Event) error {
	payload, err := encodePayload(event)
	if err != nil {
		return err
	}

	// Version 7 ids grow with insertion order and break occurred-at ties.
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate outbox message id: %w", err)
	}

	dto := OutboxMessageDTO{
		ID:         id,
		Type:       event.EventName(),
		Payload:    payload,
		OccurredAt: w.now().UTC(),
	}

	if err = w.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return fmt.Errorf("insert outbox message %s: %w", dto.Type, err)
	}

	return nil
}
