package repository

import (
	"context"
	"time"

	"studio-booking/internal/data/entity"
	"studio-booking/pkg/database"

	"go.uber.org/zap"
)

// CheckSlotAvailability reports whether no Active or Rescheduled booking sits
// at exactly date. excludeBookingID lets a booking being rescheduled ignore
// itself; pass "" to count every booking.
func (r *bookingRepository) CheckSlotAvailability(ctx context.Context, date time.Time, excludeBookingID string) (bool, error) {
	const op = "check slot availability"

	blocking := entity.SlotBlockingStatuses()
	query := `SELECT COUNT(*) FROM bookings WHERE booking_date = ? AND status IN (` + placeholders(len(blocking)) + `)`

	args := []any{database.FormatTime(date)}
	for _, s := range blocking {
		args = append(args, string(s))
	}
	if excludeBookingID != "" {
		query += " AND id != ?"
		args = append(args, excludeBookingID)
	}

	var count int64
	err := r.db.WithConn(ctx, func(q database.Querier) error {
		return q.QueryRowContext(ctx, query, args...).Scan(&count)
	})
	if err != nil {
		r.log.Error("Failed to check slot availability",
			zap.Error(err),
			zap.Time("date", date),
			zap.String("exclude_booking_id", excludeBookingID),
		)
		return false, classify(op, err, CodeQueryFailed)
	}

	return count == 0, nil
}
