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

type LeadRepository interface {
	Create(ctx context.Context, lead *entity.Lead) error
	FindByID(ctx context.Context, id string) (*entity.Lead, error)
	// List returns every lead when status is empty.
	List(ctx context.Context, status entity.LeadStatus) ([]*entity.Lead, error)
	UpdateStatus(ctx context.Context, id string, status entity.LeadStatus) error
	Delete(ctx context.Context, id string) error
}

type leadRepository struct {
	db  database.PoolIface
	log *zap.Logger
}

func NewLeadRepository(db database.PoolIface, log *zap.Logger) LeadRepository {
	return &leadRepository{
		db:  db,
		log: log.With(zap.String("repository", "lead")),
	}
}

const leadColumns = `id, name, whatsapp, source, status, notes, created_at, updated_at`

func scanLead(row rowScanner) (*entity.Lead, error) {
	vals, ptrs := scanValues(8)
	if err := row.Scan(ptrs...); err != nil {
		return nil, err
	}
	return &entity.Lead{
		Base: entity.Base{
			ID:        safeString(vals[0]),
			CreatedAt: safeTime(vals[6]),
			UpdatedAt: safeTime(vals[7]),
		},
		Name:     safeString(vals[1]),
		WhatsApp: safeString(vals[2]),
		Source:   safeString(vals[3]),
		Status:   entity.LeadStatus(safeString(vals[4])),
		Notes:    safeStringPtr(vals[5]),
	}, nil
}

func validLeadStatus(s entity.LeadStatus) bool {
	switch s {
	case entity.LeadStatusNew, entity.LeadStatusContacted, entity.LeadStatusConverted, entity.LeadStatusLost:
		return true
	}
	return false
}

func (r *leadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	const op = "create lead"

	if lead.ID == "" {
		lead.ID = utils.GenerateID()
	}
	if lead.Status == "" {
		lead.Status = entity.LeadStatusNew
	}
	now := time.Now().UTC()
	lead.CreatedAt, lead.UpdatedAt = now, now

	if errs := utils.ValidateStruct(lead); len(errs) > 0 {
		return newError(op, CodeInvalidInput, errors.New(utils.FormatValidationErrors(errs)))
	}

	query := `
		INSERT INTO leads (id, name, whatsapp, source, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(ctx, query,
		lead.ID,
		lead.Name,
		lead.WhatsApp,
		lead.Source,
		string(lead.Status),
		nullableString(lead.Notes),
		database.FormatTime(lead.CreatedAt),
		database.FormatTime(lead.UpdatedAt),
	)
	if err != nil {
		r.log.Error("Failed to create lead",
			zap.Error(err),
			zap.String("whatsapp", lead.WhatsApp),
		)
		return classify(op, err, CodeQueryFailed)
	}

	return nil
}

func (r *leadRepository) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	query := "SELECT " + leadColumns + " FROM leads WHERE id = ?"

	var lead *entity.Lead
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		var err error
		lead, err = scanLead(q.QueryRowContext(ctx, query, id))
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find lead", zap.Error(err), zap.String("lead_id", id))
		return nil, classify("find lead", err, CodeQueryFailed)
	}

	return lead, nil
}

func (r *leadRepository) List(ctx context.Context, status entity.LeadStatus) ([]*entity.Lead, error) {
	const op = "list leads"

	query := "SELECT " + leadColumns + " FROM leads"
	var args []any
	if status != "" {
		if !validLeadStatus(status) {
			return nil, newError(op, CodeInvalidInput, errors.New("unknown lead status "+string(status)))
		}
		query += " WHERE status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY created_at DESC"

	var leads []*entity.Lead
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		rows, err := q.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			lead, err := scanLead(rows)
			if err != nil {
				return err
			}
			leads = append(leads, lead)
		}
		return rows.Err()
	})
	if err != nil {
		r.log.Error("Failed to list leads", zap.Error(err), zap.String("status", string(status)))
		return nil, classify(op, err, CodeQueryFailed)
	}

	return leads, nil
}

func (r *leadRepository) UpdateStatus(ctx context.Context, id string, status entity.LeadStatus) error {
	const op = "update lead status"

	if !validLeadStatus(status) {
		return newError(op, CodeInvalidInput, errors.New("unknown lead status "+string(status)))
	}

	query := `UPDATE leads SET status = ?, updated_at = ? WHERE id = ?`
	result, err := r.db.Exec(ctx, query, string(status), database.FormatTime(time.Now()), id)
	if err != nil {
		r.log.Error("Failed to update lead status",
			zap.Error(err),
			zap.String("lead_id", id),
			zap.String("status", string(status)),
		)
		return classify(op, err, CodeQueryFailed)
	}

	if affected, err := result.RowsAffected(); err != nil {
		return classify(op, err, CodeQueryFailed)
	} else if affected == 0 {
		return notFound(op, "lead", id)
	}
	return nil
}

func (r *leadRepository) Delete(ctx context.Context, id string) error {
	const op = "delete lead"

	result, err := r.db.Exec(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		r.log.Error("Failed to delete lead", zap.Error(err), zap.String("lead_id", id))
		return classify(op, err, CodeQueryFailed)
	}

	if affected, err := result.RowsAffected(); err != nil {
		return classify(op, err, CodeQueryFailed)
	} else if affected == 0 {
		return notFound(op, "lead", id)
	}
	return nil
}
