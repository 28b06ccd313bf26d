package audit

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes events as structured log lines.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.With(zap.String("sink", "log"))}
}

func (s *LogSink) Record(_ context.Context, event Event) error {
	s.log.Info("Audit event",
		zap.String("actor", event.Actor),
		zap.String("entity", event.Entity),
		zap.String("entity_id", event.EntityID),
		zap.String("action", event.Action),
		zap.Any("metadata", event.Metadata),
		zap.Time("occurred_at", event.OccurredAt),
	)
	return nil
}
