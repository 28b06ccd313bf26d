// Package audit records who changed what after a write has committed.
// Sinks may fail; the Emitter logs the failure and moves on so the write
// that produced the event is never affected.
package audit

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	ActionCreate     = "create"
	ActionUpdate     = "update"
	ActionDelete     = "delete"
	ActionReschedule = "reschedule"
)

// Event describes one committed mutation.
type Event struct {
	Actor      string         `json:"actor"`
	Entity     string         `json:"entity"`
	EntityID   string         `json:"entity_id"`
	Action     string         `json:"action"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

type Sink interface {
	Record(ctx context.Context, event Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, event Event) error

func (f SinkFunc) Record(ctx context.Context, event Event) error { return f(ctx, event) }

// MultiSink fans an event out to every sink and joins their errors.
type MultiSink []Sink

func (m MultiSink) Record(ctx context.Context, event Event) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Record(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DefaultTimeout bounds a single Emit.
const DefaultTimeout = 2 * time.Second

type Emitter struct {
	sink    Sink
	log     *zap.Logger
	timeout time.Duration
}

func NewEmitter(sink Sink, log *zap.Logger) *Emitter {
	return &Emitter{
		sink:    sink,
		log:     log.With(zap.String("component", "audit")),
		timeout: DefaultTimeout,
	}
}

// Emit hands event to the sink. It detaches from the caller's cancellation
// so a request that finished right after commit still gets audited. Errors
// are logged, never returned. A nil Emitter does nothing.
func (e *Emitter) Emit(ctx context.Context, event Event) {
	if e == nil || e.sink == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.timeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			e.log.Error("Audit sink panicked",
				zap.Any("panic", r),
				zap.String("entity", event.Entity),
				zap.String("entity_id", event.EntityID),
			)
		}
	}()

	if err := e.sink.Record(ctx, event); err != nil {
		e.log.Warn("Failed to record audit event",
			zap.Error(err),
			zap.String("entity", event.Entity),
			zap.String("entity_id", event.EntityID),
			zap.String("action", event.Action),
		)
	}
}
