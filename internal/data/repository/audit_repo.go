package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studio-booking/internal/audit"
	"studio-booking/internal/data/entity"
	"studio-booking/pkg/database"

	"go.uber.org/zap"
)

// AuditRepository stores audit rows. It satisfies audit.Store so it can
// back an audit.TableSink.
type AuditRepository interface {
	Insert(ctx context.Context, log *entity.AuditLog) error
	ListByEntity(ctx context.Context, entityName, entityID string) ([]*entity.AuditLog, error)
}

var _ audit.Store = (AuditRepository)(nil)

type auditRepository struct {
	db  database.PoolIface
	log *zap.Logger
}

func NewAuditRepository(db database.PoolIface, log *zap.Logger) AuditRepository {
	return &auditRepository{
		db:  db,
		log: log.With(zap.String("repository", "audit")),
	}
}

func (r *auditRepository) Insert(ctx context.Context, entry *entity.AuditLog) error {
	const op = "insert audit log"

	metadata := []byte("{}")
	if len(entry.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(entry.Metadata)
		if err != nil {
			return newError(op, CodeInvalidInput, fmt.Errorf("encode metadata: %w", err))
		}
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_logs (actor, entity, entity_id, action, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.Exec(ctx, query,
		entry.Actor,
		entry.Entity,
		entry.EntityID,
		entry.Action,
		string(metadata),
		database.FormatTime(entry.CreatedAt),
	)
	if err != nil {
		r.log.Error("Failed to insert audit log",
			zap.Error(err),
			zap.String("entity", entry.Entity),
			zap.String("entity_id", entry.EntityID),
		)
		return classify(op, err, CodeQueryFailed)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// ListByEntity returns the trail for one entity, oldest first. Rows with
// unreadable metadata keep an empty map.
func (r *auditRepository) ListByEntity(ctx context.Context, entityName, entityID string) ([]*entity.AuditLog, error) {
	query := `
		SELECT id, actor, entity, entity_id, action, metadata, created_at
		FROM audit_logs
		WHERE entity = ? AND entity_id = ?
		ORDER BY created_at, id
	`

	var logs []*entity.AuditLog
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		rows, err := q.QueryContext(ctx, query, entityName, entityID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			vals, ptrs := scanValues(7)
			if err := rows.Scan(ptrs...); err != nil {
				return err
			}

			metadata := map[string]any{}
			if raw := safeString(vals[5]); raw != "" {
				if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
					metadata = map[string]any{}
				}
			}

			logs = append(logs, &entity.AuditLog{
				ID:        safeInt(vals[0]),
				Actor:     safeString(vals[1]),
				Entity:    safeString(vals[2]),
				EntityID:  safeString(vals[3]),
				Action:    safeString(vals[4]),
				Metadata:  metadata,
				CreatedAt: safeTime(vals[6]),
			})
		}
		return rows.Err()
	})
	if err != nil {
		r.log.Error("Failed to list audit logs",
			zap.Error(err),
			zap.String("entity", entityName),
			zap.String("entity_id", entityID),
		)
		return nil, classify("list audit logs", err, CodeQueryFailed)
	}

	return logs, nil
}
