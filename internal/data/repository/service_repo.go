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

type ServiceRepository interface {
	Create(ctx context.Context, service *entity.Service) error
	FindByID(ctx context.Context, id string) (*entity.Service, error)
	List(ctx context.Context, activeOnly bool) ([]*entity.Service, error)
}

type serviceRepository struct {
	db  database.PoolIface
	log *zap.Logger
}

func NewServiceRepository(db database.PoolIface, log *zap.Logger) ServiceRepository {
	return &serviceRepository{
		db:  db,
		log: log.With(zap.String("repository", "service")),
	}
}

const serviceColumns = `id, name, category, base_price, discount, is_active, created_at, updated_at`

func scanService(row rowScanner) (*entity.Service, error) {
	vals, ptrs := scanValues(8)
	if err := row.Scan(ptrs...); err != nil {
		return nil, err
	}
	return &entity.Service{
		Base: entity.Base{
			ID:        safeString(vals[0]),
			CreatedAt: safeTime(vals[6]),
			UpdatedAt: safeTime(vals[7]),
		},
		Name:      safeString(vals[1]),
		Category:  safeString(vals[2]),
		BasePrice: safeInt(vals[3]),
		Discount:  safeInt(vals[4]),
		IsActive:  safeBool(vals[5]),
	}, nil
}

func (r *serviceRepository) Create(ctx context.Context, service *entity.Service) error {
	const op = "create service"

	if service.ID == "" {
		service.ID = utils.GenerateID()
	}
	now := time.Now().UTC()
	service.CreatedAt, service.UpdatedAt = now, now

	if errs := utils.ValidateStruct(service); len(errs) > 0 {
		return newError(op, CodeInvalidInput, errors.New(utils.FormatValidationErrors(errs)))
	}

	query := `
		INSERT INTO services (id, name, category, base_price, discount, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(ctx, query,
		service.ID,
		service.Name,
		service.Category,
		service.BasePrice,
		service.Discount,
		service.IsActive,
		database.FormatTime(service.CreatedAt),
		database.FormatTime(service.UpdatedAt),
	)
	if err != nil {
		r.log.Error("Failed to create service",
			zap.Error(err),
			zap.String("name", service.Name),
		)
		return classify(op, err, CodeQueryFailed)
	}

	return nil
}

func (r *serviceRepository) FindByID(ctx context.Context, id string) (*entity.Service, error) {
	query := "SELECT " + serviceColumns + " FROM services WHERE id = ?"

	var service *entity.Service
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		var err error
		service, err = scanService(q.QueryRowContext(ctx, query, id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find service", zap.Error(err), zap.String("service_id", id))
		return nil, classify("find service", err, CodeQueryFailed)
	}

	return service, nil
}

func (r *serviceRepository) List(ctx context.Context, activeOnly bool) ([]*entity.Service, error) {
	query := "SELECT " + serviceColumns + " FROM services"
	if activeOnly {
		query += " WHERE is_active = 1"
	}
	query += " ORDER BY category, name"

	var services []*entity.Service
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		rows, err := q.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			service, err := scanService(rows)
			if err != nil {
				return err
			}
			services = append(services, service)
		}
		return rows.Err()
	})
	if err != nil {
		r.log.Error("Failed to list services", zap.Error(err))
		return nil, classify("list services", err, CodeQueryFailed)
	}

	return services, nil
}
