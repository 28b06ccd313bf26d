package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"studio-booking/internal/data/entity"
	"studio-booking/pkg/database"

	"go.uber.org/zap"
)

type SettingsRepository interface {
	// Get returns nil, nil for a missing key.
	Get(ctx context.Context, key string) (*entity.Setting, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) ([]*entity.Setting, error)
}

type settingsRepository struct {
	db  database.PoolIface
	log *zap.Logger
}

func NewSettingsRepository(db database.PoolIface, log *zap.Logger) SettingsRepository {
	return &settingsRepository{
		db:  db,
		log: log.With(zap.String("repository", "settings")),
	}
}

func scanSetting(row rowScanner) (*entity.Setting, error) {
	vals, ptrs := scanValues(3)
	if err := row.Scan(ptrs...); err != nil {
		return nil, err
	}
	return &entity.Setting{
		Key:       safeString(vals[0]),
		Value:     safeString(vals[1]),
		UpdatedAt: safeTime(vals[2]),
	}, nil
}

func (r *settingsRepository) Get(ctx context.Context, key string) (*entity.Setting, error) {
	query := `SELECT key, value, updated_at FROM system_settings WHERE key = ?`

	var setting *entity.Setting
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		var err error
		setting, err = scanSetting(q.QueryRowContext(ctx, query, key))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to get setting", zap.Error(err), zap.String("key", key))
		return nil, classify("get setting", err, CodeQueryFailed)
	}

	return setting, nil
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	const op = "set setting"

	if key == "" {
		return newError(op, CodeInvalidInput, errors.New("setting key is required"))
	}

	query := `
		INSERT INTO system_settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	_, err := r.db.Exec(ctx, query, key, value, database.FormatTime(time.Now()))
	if err != nil {
		r.log.Error("Failed to set setting", zap.Error(err), zap.String("key", key))
		return classify(op, err, CodeQueryFailed)
	}

	return nil
}

func (r *settingsRepository) All(ctx context.Context) ([]*entity.Setting, error) {
	query := `SELECT key, value, updated_at FROM system_settings ORDER BY key`

	var settings []*entity.Setting
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		rows, err := q.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			setting, err := scanSetting(rows)
			if err != nil {
				return err
			}
			settings = append(settings, setting)
		}
		return rows.Err()
	})
	if err != nil {
		r.log.Error("Failed to list settings", zap.Error(err))
		return nil, classify("list settings", err, CodeQueryFailed)
	}

	return settings, nil
}
