package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"studio-booking/internal/audit"
	"studio-booking/internal/data/entity"
	"studio-booking/pkg/database"
	"studio-booking/pkg/utils"

	"go.uber.org/zap"
)

const auditEntityBooking = "booking"

func (r *bookingRepository) CreateBooking(ctx context.Context, booking *entity.Booking) error {
	const op = "create booking"

	now := r.now()
	if booking.ID == "" {
		booking.ID = utils.GenerateID()
	}
	if booking.Status == "" {
		booking.Status = entity.BookingStatusActive
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now

	if err := validateBooking(op, booking); err != nil {
		return err
	}

	err := r.db.Transaction(ctx, func(tx database.Querier) error {
		if err := insertBookingRow(ctx, tx, booking); err != nil {
			return err
		}
		if err := insertPayments(ctx, tx, booking.ID, booking.Finance.Payments); err != nil {
			return err
		}
		return insertAddons(ctx, tx, booking.ID, booking.Addons)
	})
	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID),
			zap.Time("date", booking.Booking.Date),
		)
		return classify(op, err, CodeTransactionFailed)
	}

	r.log.Info("Booking created",
		zap.String("booking_id", booking.ID),
		zap.Int64("total_price", booking.Finance.TotalPrice),
		zap.Int("payments", len(booking.Finance.Payments)),
		zap.Int("addons", len(booking.Addons)),
	)
	r.audit.Emit(ctx, r.bookingEvent(ctx, audit.ActionCreate, booking))
	return nil
}

// UpdateBooking rewrites the booking row and replaces its payment and addon
// sets with exactly what booking carries. Callers must pass the complete
// lists; an empty list clears the set.
func (r *bookingRepository) UpdateBooking(ctx context.Context, booking *entity.Booking) error {
	const op = "update booking"

	booking.UpdatedAt = r.now()
	if err := validateBooking(op, booking); err != nil {
		return err
	}

	err := r.db.Transaction(ctx, func(tx database.Querier) error {
		updated, err := updateBookingRow(ctx, tx, booking)
		if err != nil {
			return err
		}
		if !updated {
			return notFound(op, "booking", booking.ID)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM payments WHERE booking_id = ?`, booking.ID); err != nil {
			return fmt.Errorf("clear payments: %w", err)
		}
		if err := insertPayments(ctx, tx, booking.ID, booking.Finance.Payments); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM booking_addons WHERE booking_id = ?`, booking.ID); err != nil {
			return fmt.Errorf("clear booking addons: %w", err)
		}
		return insertAddons(ctx, tx, booking.ID, booking.Addons)
	})
	if err != nil {
		if CodeOf(err) != CodeNotFound {
			r.log.Error("Failed to update booking",
				zap.Error(err),
				zap.String("booking_id", booking.ID),
			)
		}
		return classify(op, err, CodeTransactionFailed)
	}

	r.log.Info("Booking updated",
		zap.String("booking_id", booking.ID),
		zap.String("status", string(booking.Status)),
		zap.Int("payments", len(booking.Finance.Payments)),
	)
	r.audit.Emit(ctx, r.bookingEvent(ctx, audit.ActionUpdate, booking))
	return nil
}

// DeleteBooking removes the booking row. Payments, addons and history go
// with it through ON DELETE CASCADE.
func (r *bookingRepository) DeleteBooking(ctx context.Context, id string) error {
	const op = "delete booking"

	result, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		r.log.Error("Failed to delete booking",
			zap.Error(err),
			zap.String("booking_id", id),
		)
		return classify(op, err, CodeTransactionFailed)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return classify(op, err, CodeTransactionFailed)
	}
	if affected == 0 {
		return notFound(op, "booking", id)
	}

	r.log.Info("Booking deleted", zap.String("booking_id", id))
	r.audit.Emit(ctx, audit.Event{
		Actor:    utils.ActorOrSystem(ctx),
		Entity:   auditEntityBooking,
		EntityID: id,
		Action:   audit.ActionDelete,
	})
	return nil
}

// AddRescheduleHistory appends one history entry. It does not touch the
// booking row; callers update the booking date separately.
func (r *bookingRepository) AddRescheduleHistory(ctx context.Context, bookingID string, oldDate, newDate time.Time, reason *string) error {
	const op = "add reschedule history"

	if bookingID == "" {
		return newError(op, CodeInvalidInput, errors.New("booking id is required"))
	}

	// selecting from bookings makes a missing booking insert nothing
	query := `
		INSERT INTO reschedule_history (booking_id, old_date, new_date, rescheduled_at, reason)
		SELECT id, ?, ?, ?, ? FROM bookings WHERE id = ?
	`
	result, err := r.db.Exec(ctx, query,
		database.FormatTime(oldDate),
		database.FormatTime(newDate),
		database.FormatTime(r.now()),
		nullableString(reason),
		bookingID,
	)
	if err != nil {
		r.log.Error("Failed to add reschedule history",
			zap.Error(err),
			zap.String("booking_id", bookingID),
		)
		return classify(op, err, CodeTransactionFailed)
	}
	if n, err := result.RowsAffected(); err != nil {
		return classify(op, err, CodeTransactionFailed)
	} else if n == 0 {
		return notFound(op, "booking", bookingID)
	}

	metadata := map[string]any{
		"old_date": database.FormatTime(oldDate),
		"new_date": database.FormatTime(newDate),
	}
	if reason != nil {
		metadata["reason"] = *reason
	}
	r.audit.Emit(ctx, audit.Event{
		Actor:    utils.ActorOrSystem(ctx),
		Entity:   auditEntityBooking,
		EntityID: bookingID,
		Action:   audit.ActionReschedule,
		Metadata: metadata,
	})
	return nil
}

func validateBooking(op string, booking *entity.Booking) error {
	if errs := utils.ValidateStruct(booking); len(errs) > 0 {
		return newError(op, CodeInvalidInput, fmt.Errorf("validation failed: %s", utils.FormatValidationErrors(errs)))
	}
	return nil
}

func (r *bookingRepository) bookingEvent(ctx context.Context, action string, b *entity.Booking) audit.Event {
	return audit.Event{
		Actor:    utils.ActorOrSystem(ctx),
		Entity:   auditEntityBooking,
		EntityID: b.ID,
		Action:   action,
		Metadata: map[string]any{
			"status":      string(b.Status),
			"date":        database.FormatTime(b.Booking.Date),
			"total_price": b.Finance.TotalPrice,
			"paid":        b.Finance.Paid(),
			"payments":    len(b.Finance.Payments),
			"addons":      len(b.Addons),
		},
	}
}

func insertBookingRow(ctx context.Context, tx database.Querier, b *entity.Booking) error {
	query := `
		INSERT INTO bookings (
			id, created_at, updated_at, status,
			customer_name, customer_whatsapp, customer_category, service_id,
			booking_date, booking_notes, location_link,
			total_price, service_base_price, base_discount, addons_total, coupon_discount, coupon_code,
			photographer_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := tx.ExecContext(ctx, query,
		b.ID,
		database.FormatTime(b.CreatedAt),
		database.FormatTime(b.UpdatedAt),
		string(b.Status),
		b.Customer.Name,
		b.Customer.WhatsApp,
		b.Customer.Category,
		nullableString(b.Customer.ServiceID),
		database.FormatTime(b.Booking.Date),
		nullableString(b.Booking.Notes),
		nullableString(b.Booking.LocationLink),
		b.Finance.TotalPrice,
		nullableInt(b.Finance.ServiceBasePrice),
		nullableInt(b.Finance.BaseDiscount),
		nullableInt(b.Finance.AddonsTotal),
		nullableInt(b.Finance.CouponDiscount),
		nullableString(b.Finance.CouponCode),
		nullableString(b.PhotographerID),
	)
	if err != nil {
		return fmt.Errorf("insert booking %s: %w", b.ID, err)
	}
	return nil
}

// updateBookingRow leaves created_at untouched. It reports false when no
// row has the id.
func updateBookingRow(ctx context.Context, tx database.Querier, b *entity.Booking) (bool, error) {
	query := `
		UPDATE bookings
		SET updated_at = ?, status = ?,
		    customer_name = ?, customer_whatsapp = ?, customer_category = ?, service_id = ?,
		    booking_date = ?, booking_notes = ?, location_link = ?,
		    total_price = ?, service_base_price = ?, base_discount = ?, addons_total = ?,
		    coupon_discount = ?, coupon_code = ?, photographer_id = ?
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query,
		database.FormatTime(b.UpdatedAt),
		string(b.Status),
		b.Customer.Name,
		b.Customer.WhatsApp,
		b.Customer.Category,
		nullableString(b.Customer.ServiceID),
		database.FormatTime(b.Booking.Date),
		nullableString(b.Booking.Notes),
		nullableString(b.Booking.LocationLink),
		b.Finance.TotalPrice,
		nullableInt(b.Finance.ServiceBasePrice),
		nullableInt(b.Finance.BaseDiscount),
		nullableInt(b.Finance.AddonsTotal),
		nullableInt(b.Finance.CouponDiscount),
		nullableString(b.Finance.CouponCode),
		nullableString(b.PhotographerID),
		b.ID,
	)
	if err != nil {
		return false, fmt.Errorf("update booking %s: %w", b.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update booking %s: %w", b.ID, err)
	}
	return affected > 0, nil
}

func insertPayments(ctx context.Context, tx database.Querier, bookingID string, payments []entity.Payment) error {
	rows := make([][]any, len(payments))
	for i, p := range payments {
		rows[i] = []any{
			bookingID,
			database.FormatTime(p.Date),
			p.Amount,
			p.Note,
			nullableString(p.ProofFilename),
			nullableString(p.ProofURL),
			string(p.Backend()),
		}
	}

	prefix := `INSERT INTO payments (booking_id, payment_date, amount, note, proof_filename, proof_url, storage_backend) VALUES `
	if err := insertRows(ctx, tx, prefix, rows); err != nil {
		return fmt.Errorf("insert payments for booking %s: %w", bookingID, err)
	}
	return nil
}

func insertAddons(ctx context.Context, tx database.Querier, bookingID string, addons []entity.BookingAddon) error {
	rows := make([][]any, len(addons))
	for i, a := range addons {
		rows[i] = []any{bookingID, a.AddonID, a.Quantity, a.PriceAtBooking}
	}

	prefix := `INSERT INTO booking_addons (booking_id, addon_id, quantity, price_at_booking) VALUES `
	if err := insertRows(ctx, tx, prefix, rows); err != nil {
		return fmt.Errorf("insert addons for booking %s: %w", bookingID, err)
	}
	return nil
}

// insertRows writes rows with multi-row VALUES lists, splitting so one
// statement never binds more than hydrateChunkSize parameters. All rows must
// have the same width.
func insertRows(ctx context.Context, tx database.Querier, prefix string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}

	width := len(rows[0])
	group := "(" + placeholders(width) + ")"
	perStatement := hydrateChunkSize / width
	if perStatement < 1 {
		perStatement = 1
	}

	for start := 0; start < len(rows); start += perStatement {
		end := start + perStatement
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		groups := make([]string, len(batch))
		args := make([]any, 0, len(batch)*width)
		for i, row := range batch {
			groups[i] = group
			args = append(args, row...)
		}

		if _, err := tx.ExecContext(ctx, prefix+strings.Join(groups, ", "), args...); err != nil {
			return err
		}
	}
	return nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableInt(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}
