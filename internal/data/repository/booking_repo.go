package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"studio-booking/internal/audit"
	"studio-booking/internal/data/entity"
	"studio-booking/pkg/database"
	"studio-booking/pkg/utils"

	"go.uber.org/zap"
)

type BookingRepository interface {
	// Reads. Every returned booking is fully hydrated.
	ReadData(ctx context.Context, filter BookingFilter) ([]*entity.Booking, error)
	ReadBooking(ctx context.Context, id string) (*entity.Booking, error)
	GetBookingsByStatus(ctx context.Context, status entity.BookingStatus) ([]*entity.Booking, error)
	SearchBookings(ctx context.Context, query string) ([]*entity.Booking, error)
	CountBookings(ctx context.Context, filter BookingFilter) (int64, error)

	// Writes. Each runs in one transaction.
	CreateBooking(ctx context.Context, booking *entity.Booking) error
	UpdateBooking(ctx context.Context, booking *entity.Booking) error
	DeleteBooking(ctx context.Context, id string) error
	AddRescheduleHistory(ctx context.Context, bookingID string, oldDate, newDate time.Time, reason *string) error

	// Business queries
	CheckSlotAvailability(ctx context.Context, date time.Time, excludeBookingID string) (bool, error)
}

// BookingFilter narrows ReadData. Zero fields do not filter. Limit 0 means
// no pagination.
type BookingFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Status    entity.BookingStatus
	Page      int
	Limit     int
}

type bookingRepository struct {
	db    database.PoolIface
	audit *audit.Emitter
	log   *zap.Logger
	now   func() time.Time
}

func NewBookingRepository(db database.PoolIface, emitter *audit.Emitter, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:    db,
		audit: emitter,
		log:   log.With(zap.String("repository", "booking")),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

const bookingColumns = `
	id, created_at, updated_at, status,
	customer_name, customer_whatsapp, customer_category, service_id,
	booking_date, booking_notes, location_link,
	total_price, service_base_price, base_discount, addons_total, coupon_discount, coupon_code,
	photographer_id`

const bookingColumnCount = 18

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*entity.Booking, error) {
	vals, ptrs := scanValues(bookingColumnCount)
	if err := row.Scan(ptrs...); err != nil {
		return nil, err
	}

	return &entity.Booking{
		ID:        safeString(vals[0]),
		CreatedAt: safeTime(vals[1]),
		UpdatedAt: safeTime(vals[2]),
		Status:    normalizeStatus(vals[3]),
		Customer: entity.Customer{
			Name:      safeString(vals[4]),
			WhatsApp:  safeString(vals[5]),
			Category:  safeString(vals[6]),
			ServiceID: safeStringPtr(vals[7]),
		},
		Booking: entity.BookingDetails{
			Date:         safeTime(vals[8]),
			Notes:        safeStringPtr(vals[9]),
			LocationLink: safeStringPtr(vals[10]),
		},
		Finance: entity.Finance{
			TotalPrice:       safeInt(vals[11]),
			Payments:         []entity.Payment{},
			ServiceBasePrice: safeIntPtr(vals[12]),
			BaseDiscount:     safeIntPtr(vals[13]),
			AddonsTotal:      safeIntPtr(vals[14]),
			CouponDiscount:   safeIntPtr(vals[15]),
			CouponCode:       safeStringPtr(vals[16]),
		},
		PhotographerID: safeStringPtr(vals[17]),
	}, nil
}

// queryBookings runs a bookings query and scans every row.
func queryBookings(ctx context.Context, q database.Querier, query string, args ...any) ([]*entity.Booking, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// whereClause renders the filter. booking_date always holds canonical
// FormatTime text (schema triggers rewrite anything else), so the range
// compares the raw column and idx_bookings_booking_date stays usable.
func (f BookingFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	if f.StartDate != nil {
		conds = append(conds, "booking_date >= ?")
		args = append(args, database.FormatTime(*f.StartDate))
	}
	if f.EndDate != nil {
		conds = append(conds, "booking_date <= ?")
		args = append(args, database.FormatTime(*f.EndDate))
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *bookingRepository) ReadData(ctx context.Context, filter BookingFilter) ([]*entity.Booking, error) {
	const op = "read bookings"

	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, newError(op, CodeInvalidInput, errors.New("unknown status filter "+string(filter.Status)))
	}

	where, args := filter.whereClause()

	// closest to now first
	query := "SELECT " + bookingColumns + " FROM bookings" + where +
		" ORDER BY ABS(julianday(booking_date) - julianday(?)) ASC, booking_date ASC"
	args = append(args, database.FormatTime(r.now()))

	if limit := utils.ClampLimit(filter.Limit); limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, limit, utils.CalculateOffset(filter.Page, limit))
	}

	bookings, err := r.readHydrated(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to read bookings",
			zap.Error(err),
			zap.Any("filter", filter),
		)
		return nil, classify(op, err, CodeQueryFailed)
	}
	return bookings, nil
}

func (r *bookingRepository) CountBookings(ctx context.Context, filter BookingFilter) (int64, error) {
	const op = "count bookings"

	where, args := filter.whereClause()
	query := "SELECT COUNT(*) FROM bookings" + where

	var count int64
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		return q.QueryRowContext(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return 0, classify(op, err, CodeQueryFailed)
	}
	return count, nil
}

// ReadBooking returns nil, nil when no booking has the id.
func (r *bookingRepository) ReadBooking(ctx context.Context, id string) (*entity.Booking, error) {
	const op = "read booking"
	query := "SELECT " + bookingColumns + " FROM bookings WHERE id = ?"

	var booking *entity.Booking
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		var err error
		booking, err = scanBooking(q.QueryRowContext(ctx, query, id))
		if err != nil {
			return err
		}
		return hydrateBooking(ctx, q, booking)
	})

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to read booking",
			zap.Error(err),
			zap.String("booking_id", id),
		)
		return nil, classify(op, err, CodeQueryFailed)
	}

	return booking, nil
}

func (r *bookingRepository) GetBookingsByStatus(ctx context.Context, status entity.BookingStatus) ([]*entity.Booking, error) {
	const op = "get bookings by status"

	if !status.IsValid() {
		return nil, newError(op, CodeInvalidInput, errors.New("unknown status "+string(status)))
	}

	query := "SELECT " + bookingColumns + " FROM bookings WHERE status = ? ORDER BY created_at DESC"

	bookings, err := r.readHydrated(ctx, query, string(status))
	if err != nil {
		r.log.Error("Failed to get bookings by status",
			zap.Error(err),
			zap.String("status", string(status)),
		)
		return nil, classify(op, err, CodeQueryFailed)
	}
	return bookings, nil
}

// SearchBookings matches query as a substring of the customer name or
// WhatsApp number. LIKE wildcards in query are matched literally.
func (r *bookingRepository) SearchBookings(ctx context.Context, query string) ([]*entity.Booking, error) {
	const op = "search bookings"

	pattern := "%" + escapeLike(strings.TrimSpace(query)) + "%"
	sqlQuery := "SELECT " + bookingColumns + ` FROM bookings
		WHERE customer_name LIKE ? ESCAPE '\' OR customer_whatsapp LIKE ? ESCAPE '\'
		ORDER BY created_at DESC`

	bookings, err := r.readHydrated(ctx, sqlQuery, pattern, pattern)
	if err != nil {
		r.log.Error("Failed to search bookings",
			zap.Error(err),
			zap.String("query", query),
		)
		return nil, classify(op, err, CodeQueryFailed)
	}
	return bookings, nil
}

// readHydrated runs a bookings query and batch-hydrates the result on the
// same connection. No rows means no child queries.
func (r *bookingRepository) readHydrated(ctx context.Context, query string, args ...any) ([]*entity.Booking, error) {
	var bookings []*entity.Booking
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		var err error
		bookings, err = queryBookings(ctx, q, query, args...)
		if err != nil || len(bookings) == 0 {
			return err
		}
		return hydrateBookings(ctx, q, bookings)
	})
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []*entity.Booking{}
	}
	return bookings, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
