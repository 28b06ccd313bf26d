package audit

import (
	"context"

	"studio-booking/internal/data/entity"
)

// Store persists audit rows. The repository package provides one backed by
// the audit_logs table.
type Store interface {
	Insert(ctx context.Context, log *entity.AuditLog) error
}

type TableSink struct {
	store Store
}

func NewTableSink(store Store) *TableSink {
	return &TableSink{store: store}
}

func (s *TableSink) Record(ctx context.Context, event Event) error {
	return s.store.Insert(ctx, &entity.AuditLog{
		Actor:     event.Actor,
		Entity:    event.Entity,
		EntityID:  event.EntityID,
		Action:    event.Action,
		Metadata:  event.Metadata,
		CreatedAt: event.OccurredAt,
	})
}
