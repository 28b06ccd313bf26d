package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"studio-booking/internal/data/entity"
	"studio-booking/pkg/database"
	"studio-booking/pkg/utils"

	"go.uber.org/zap"
)

type AddonRepository interface {
	Create(ctx context.Context, addon *entity.Addon) error
	FindByID(ctx context.Context, id string) (*entity.Addon, error)
	FindByIDs(ctx context.Context, ids []string) (map[string]*entity.Addon, error)
	List(ctx context.Context, activeOnly bool) ([]*entity.Addon, error)
}

type addonRepository struct {
	db  database.PoolIface
	log *zap.Logger
}

func NewAddonRepository(db database.PoolIface, log *zap.Logger) AddonRepository {
	return &addonRepository{
		db:  db,
		log: log.With(zap.String("repository", "addon")),
	}
}

const addonColumns = `id, name, category, price, is_active, created_at, updated_at`

func scanAddon(row rowScanner) (*entity.Addon, error) {
	vals, ptrs := scanValues(7)
	if err := row.Scan(ptrs...); err != nil {
		return nil, err
	}
	return &entity.Addon{
		Base: entity.Base{
			ID:        safeString(vals[0]),
			CreatedAt: safeTime(vals[5]),
			UpdatedAt: safeTime(vals[6]),
		},
		Name:     safeString(vals[1]),
		Category: safeString(vals[2]),
		Price:    safeInt(vals[3]),
		IsActive: safeBool(vals[4]),
	}, nil
}

func (r *addonRepository) Create(ctx context.Context, addon *entity.Addon) error {
	const op = "create addon"

	if addon.ID == "" {
		addon.ID = utils.GenerateID()
	}
	now := time.Now().UTC()
	addon.CreatedAt, addon.UpdatedAt = now, now

	if errs := utils.ValidateStruct(addon); len(errs) > 0 {
		return newError(op, CodeInvalidInput, errors.New(utils.FormatValidationErrors(errs)))
	}

	query := `
		INSERT INTO addons (id, name, category, price, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(ctx, query,
		addon.ID,
		addon.Name,
		addon.Category,
		addon.Price,
		addon.IsActive,
		database.FormatTime(addon.CreatedAt),
		database.FormatTime(addon.UpdatedAt),
	)
	if err != nil {
		r.log.Error("Failed to create addon",
			zap.Error(err),
			zap.String("name", addon.Name),
		)
		return classify(op, err, CodeQueryFailed)
	}

	return nil
}

func (r *addonRepository) FindByID(ctx context.Context, id string) (*entity.Addon, error) {
	query := "SELECT " + addonColumns + " FROM addons WHERE id = ?"

	var addon *entity.Addon
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		var err error
		addon, err = scanAddon(q.QueryRowContext(ctx, query, id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find addon", zap.Error(err), zap.String("addon_id", id))
		return nil, classify("find addon", err, CodeQueryFailed)
	}

	return addon, nil
}

// FindByIDs looks up many addons at once, chunking the IN list. Ids with no
// row are absent from the result.
func (r *addonRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*entity.Addon, error) {
	result := make(map[string]*entity.Addon, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	err := r.db.WithConn(ctx, func(q database.Querier) error {
		for _, chunk := range utils.ChunkStrings(ids, hydrateChunkSize) {
			query := "SELECT " + addonColumns + " FROM addons WHERE id IN (" + placeholders(len(chunk)) + ")"
			rows, err := q.QueryContext(ctx, query, stringArgs(chunk)...)
			if err != nil {
				return err
			}
			for rows.Next() {
				addon, err := scanAddon(rows)
				if err != nil {
					rows.Close()
					return err
				}
				result[addon.ID] = addon
			}
			err = rows.Err()
			rows.Close()
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		r.log.Error("Failed to find addons", zap.Error(err), zap.Int("count", len(ids)))
		return nil, classify("find addons", err, CodeQueryFailed)
	}

	return result, nil
}

func (r *addonRepository) List(ctx context.Context, activeOnly bool) ([]*entity.Addon, error) {
	query := "SELECT " + addonColumns + " FROM addons"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY category, name"

	var addons []*entity.Addon
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		rows, err := q.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			addon, err := scanAddon(rows)
			if err != nil {
				return err
			}
			addons = append(addons, addon)
		}
		return rows.Err()
	})
	if err != nil {
		r.log.Error("Failed to list addons", zap.Error(err))
		return nil, classify("list addons", err, CodeQueryFailed)
	}

	return addons, nil
}
