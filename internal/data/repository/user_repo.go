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

// UserRepository covers the staff accounts bookings point at through
// photographer_id. Authentication lives elsewhere.
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	ListByRole(ctx context.Context, role entity.UserRole) ([]*entity.User, error)
}

type userRepository struct {
	db  database.PoolIface
	log *zap.Logger
}

func NewUserRepository(db database.PoolIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

const userColumns = `id, username, display_name, role, created_at, updated_at`

func scanUser(row rowScanner) (*entity.User, error) {
	vals, ptrs := scanValues(6)
	if err := row.Scan(ptrs...); err != nil {
		return nil, err
	}
	return &entity.User{
		Base: entity.Base{
			ID:        safeString(vals[0]),
			CreatedAt: safeTime(vals[4]),
			UpdatedAt: safeTime(vals[5]),
		},
		Username:    safeString(vals[1]),
		DisplayName: safeString(vals[2]),
		Role:        entity.UserRole(safeString(vals[3])),
	}, nil
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	const op = "create user"

	if user.ID == "" {
		user.ID = utils.GenerateID()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	if errs := utils.ValidateStruct(user); len(errs) > 0 {
		return newError(op, CodeInvalidInput, errors.New(utils.FormatValidationErrors(errs)))
	}

	query := `
		INSERT INTO users (id, username, display_name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID,
		user.Username,
		user.DisplayName,
		string(user.Role),
		database.FormatTime(user.CreatedAt),
		database.FormatTime(user.UpdatedAt),
	)
	if err != nil {
		r.log.Error("Failed to create user",
			zap.Error(err),
			zap.String("username", user.Username),
		)
		return classify(op, err, CodeQueryFailed)
	}

	return nil
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE id = ?"

	var user *entity.User
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		var err error
		user, err = scanUser(q.QueryRowContext(ctx, query, id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", id))
		return nil, classify("find user", err, CodeQueryFailed)
	}

	return user, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role entity.UserRole) ([]*entity.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE role = ? ORDER BY username"

	var users []*entity.User
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		rows, err := q.QueryContext(ctx, query, string(role))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			user, err := scanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, user)
		}
		return rows.Err()
	})
	if err != nil {
		r.log.Error("Failed to list users", zap.Error(err), zap.String("role", string(role)))
		return nil, classify("list users", err, CodeQueryFailed)
	}

	return users, nil
}
