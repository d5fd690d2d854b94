// Package outboxrepo implements the transactional outbox on GORM: the writer
// that appends domain events inside the caller's transaction and the store
// used by the dispatcher and the retention job.
package outboxrepo

import (
	"time"

	"ordering/internal/core/domain/model/kernel"
	"ordering/internal/core/ports"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OutboxMessageDTO is one "outbox_messages" row. The composite index serves
// the dispatcher's "undispatched, oldest first" scan and the retention purge.
// There is no foreign key to orders.
type OutboxMessageDTO struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Type         string         `gorm:"type:varchar(128);not null"`
	Payload      datatypes.JSON `gorm:"not null"`
	OccurredAt   time.Time      `gorm:"not null;index:idx_outbox_messages_dispatch,priority:2"`
	DispatchedAt *time.Time     `gorm:"index:idx_outbox_messages_dispatch,priority:1"`
}

// TableName overrides GORM's default naming convention.
func (OutboxMessageDTO) TableName() string {
	return "outbox_messages"
}

func toMessage(dto OutboxMessageDTO) (ports.OutboxMessage, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return ports.OutboxMessage{}, err
	}

	var dispatchedAt *time.Time
	if dto.DispatchedAt != nil {
		at := dto.DispatchedAt.UTC()
		dispatchedAt = &at
	}

	return ports.OutboxMessage{
		ID:           id,
		Type:         dto.Type,
		Payload:      []byte(dto.Payload),
		OccurredAt:   dto.OccurredAt.UTC(),
		DispatchedAt: dispatchedAt,
	}, nil
}
