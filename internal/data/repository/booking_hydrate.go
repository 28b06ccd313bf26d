package repository

import (
	"context"
	"fmt"

	"studio-booking/internal/data/entity"
	"studio-booking/pkg/database"
	"studio-booking/pkg/utils"
)

// hydrateChunkSize keeps every IN (...) list under SQLite's historical
// 999 parameter ceiling.
const hydrateChunkSize = 900

const (
	paymentSelect = `
		SELECT booking_id, id, payment_date, amount, note, proof_filename, proof_url, storage_backend
		FROM payments`
	paymentOrder = ` ORDER BY booking_id, payment_date, id`

	addonSelect = `
		SELECT ba.booking_id, ba.addon_id, COALESCE(a.name, ''), ba.quantity, ba.price_at_booking
		FROM booking_addons ba
		LEFT JOIN addons a ON a.id = ba.addon_id`
	addonOrder = ` ORDER BY ba.booking_id, ba.id`

	historySelect = `
		SELECT booking_id, id, old_date, new_date, rescheduled_at, reason
		FROM reschedule_history`
	historyOrder = ` ORDER BY booking_id, rescheduled_at, id`
)

// children collects child rows keyed by booking id.
type children struct {
	payments map[string][]entity.Payment
	addons   map[string][]entity.BookingAddon
	history  map[string][]entity.RescheduleHistory
}

func newChildren() *children {
	return &children{
		payments: make(map[string][]entity.Payment),
		addons:   make(map[string][]entity.BookingAddon),
		history:  make(map[string][]entity.RescheduleHistory),
	}
}

// hydrateBookings loads the children of every booking with one query per
// child table per chunk of ids, never one query per booking.
func hydrateBookings(ctx context.Context, q database.Querier, bookings []*entity.Booking) error {
	if len(bookings) == 0 {
		return nil
	}

	ids := make([]string, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
	}
	chunks := utils.ChunkStrings(ids, hydrateChunkSize)
	kids := newChildren()

	for _, chunk := range chunks {
		where := " WHERE booking_id IN (" + placeholders(len(chunk)) + ")"
		if err := loadPayments(ctx, q, where, stringArgs(chunk), kids); err != nil {
			return err
		}
	}
	for _, chunk := range chunks {
		where := " WHERE ba.booking_id IN (" + placeholders(len(chunk)) + ")"
		if err := loadAddons(ctx, q, where, stringArgs(chunk), kids); err != nil {
			return err
		}
	}
	for _, chunk := range chunks {
		where := " WHERE booking_id IN (" + placeholders(len(chunk)) + ")"
		if err := loadHistory(ctx, q, where, stringArgs(chunk), kids); err != nil {
			return err
		}
	}

	for _, b := range bookings {
		kids.attach(b)
	}
	return nil
}

// hydrateBooking is the single-booking variant with plain equality lookups.
func hydrateBooking(ctx context.Context, q database.Querier, booking *entity.Booking) error {
	kids := newChildren()
	args := []any{booking.ID}

	if err := loadPayments(ctx, q, " WHERE booking_id = ?", args, kids); err != nil {
		return err
	}
	if err := loadAddons(ctx, q, " WHERE ba.booking_id = ?", args, kids); err != nil {
		return err
	}
	if err := loadHistory(ctx, q, " WHERE booking_id = ?", args, kids); err != nil {
		return err
	}

	kids.attach(booking)
	return nil
}

func (c *children) attach(b *entity.Booking) {
	if payments, ok := c.payments[b.ID]; ok {
		b.Finance.Payments = payments
	} else {
		b.Finance.Payments = []entity.Payment{}
	}
	b.Addons = c.addons[b.ID]
	b.RescheduleHistory = c.history[b.ID]
}

func loadPayments(ctx context.Context, q database.Querier, where string, args []any, into *children) error {
	rows, err := q.QueryContext(ctx, paymentSelect+where+paymentOrder, args...)
	if err != nil {
		return fmt.Errorf("load payments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		vals, ptrs := scanValues(8)
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan payment row: %w", err)
		}
		bookingID := safeString(vals[0])
		into.payments[bookingID] = append(into.payments[bookingID], entity.Payment{
			ID:             safeInt(vals[1]),
			Date:           safeTime(vals[2]),
			Amount:         safeInt(vals[3]),
			Note:           safeString(vals[4]),
			ProofFilename:  safeStringPtr(vals[5]),
			ProofURL:       safeStringPtr(vals[6]),
			StorageBackend: normalizeBackend(vals[7]),
		})
	}
	return rows.Err()
}

func loadAddons(ctx context.Context, q database.Querier, where string, args []any, into *children) error {
	rows, err := q.QueryContext(ctx, addonSelect+where+addonOrder, args...)
	if err != nil {
		return fmt.Errorf("load booking addons: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		vals, ptrs := scanValues(5)
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan booking addon row: %w", err)
		}
		bookingID := safeString(vals[0])
		quantity := int(safeInt(vals[3]))
		if quantity < 1 {
			quantity = 1
		}
		into.addons[bookingID] = append(into.addons[bookingID], entity.BookingAddon{
			AddonID:        safeString(vals[1]),
			AddonName:      safeString(vals[2]),
			Quantity:       quantity,
			PriceAtBooking: safeInt(vals[4]),
		})
	}
	return rows.Err()
}

func loadHistory(ctx context.Context, q database.Querier, where string, args []any, into *children) error {
	rows, err := q.QueryContext(ctx, historySelect+where+historyOrder, args...)
	if err != nil {
		return fmt.Errorf("load reschedule history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		vals, ptrs := scanValues(6)
		if err := rows.Scan(ptrs...); err != nil {
			return fmt.Errorf("scan reschedule history row: %w", err)
		}
		bookingID := safeString(vals[0])
		into.history[bookingID] = append(into.history[bookingID], entity.RescheduleHistory{
			ID:            safeInt(vals[1]),
			OldDate:       safeTime(vals[2]),
			NewDate:       safeTime(vals[3]),
			RescheduledAt: safeTime(vals[4]),
			Reason:        safeStringPtr(vals[5]),
		})
	}
	return rows.Err()
}

func normalizeBackend(v any) entity.StorageBackend {
	if entity.StorageBackend(safeString(v)) == entity.StorageBackendB2 {
		return entity.StorageBackendB2
	}
	return entity.StorageBackendLocal
}
