package repository

import (
	"context"
	"testing"
	"time"

	"studio-booking/internal/data/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckSlotAvailability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	slots := env.repo.Booking

	free, err := slots.CheckSlotAvailability(ctx, slotBase, "")
	require.NoError(t, err)
	assert.True(t, free, "empty calendar")

	b := sampleBooking(slotBase)
	require.NoError(t, slots.CreateBooking(ctx, b))

	free, err = slots.CheckSlotAvailability(ctx, slotBase, "")
	require.NoError(t, err)
	assert.False(t, free, "active booking holds the slot")

	free, err = slots.CheckSlotAvailability(ctx, slotBase, b.ID)
	require.NoError(t, err)
	assert.True(t, free, "a booking does not conflict with itself")

	free, err = slots.CheckSlotAvailability(ctx, slotBase.Add(time.Minute), "")
	require.NoError(t, err)
	assert.True(t, free, "only the exact timestamp is blocked")

	jakarta := time.FixedZone("WIB", 7*3600)
	free, err = slots.CheckSlotAvailability(ctx, slotBase.In(jakarta), "")
	require.NoError(t, err)
	assert.False(t, free, "same instant in another zone")
}

func TestCheckSlotAvailability_ByStatus(t *testing.T) {
	tests := []struct {
		status entity.BookingStatus
		free   bool
	}{
		{entity.BookingStatusActive, false},
		{entity.BookingStatusRescheduled, false},
		{entity.BookingStatusCancelled, true},
		{entity.BookingStatusCompleted, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			env := newTestEnv(t)
			ctx := context.Background()

			b := sampleBooking(slotBase)
			b.Status = tt.status
			require.NoError(t, env.repo.Booking.CreateBooking(ctx, b))

			free, err := env.repo.Booking.CheckSlotAvailability(ctx, slotBase, "")
			require.NoError(t, err)
			assert.Equal(t, tt.free, free)
		})
	}
}

func TestCheckSlotAvailability_FreedByCancellation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := sampleBooking(slotBase)
	require.NoError(t, env.repo.Booking.CreateBooking(ctx, b))

	b.Status = entity.BookingStatusCancelled
	require.NoError(t, env.repo.Booking.UpdateBooking(ctx, b))

	free, err := env.repo.Booking.CheckSlotAvailability(ctx, slotBase, "")
	require.NoError(t, err)
	assert.True(t, free)
}

func TestCheckSlotAvailability_LegacyTimestampRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.exec(t, `
		INSERT INTO bookings (id, created_at, updated_at, status, customer_name, customer_whatsapp, booking_date)
		VALUES ('legacy-slot', '2024-04-30 08:00:00', '2024-04-30 08:00:00', 'Active', 'Old Customer', '0811', '2024-05-01 10:00:00')`)

	legacySlot := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	free, err := env.repo.Booking.CheckSlotAvailability(ctx, legacySlot, "")
	require.NoError(t, err)
	assert.False(t, free, "legacy text still holds its slot")

	start := legacySlot
	end := time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC)
	ranged, err := env.repo.Booking.ReadData(ctx, BookingFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "legacy-slot", ranged[0].ID)

	total, err := env.repo.Booking.CountBookings(ctx, BookingFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestCreateBooking_LiveSlotIsUnique(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, env.repo.Booking.CreateBooking(ctx, sampleBooking(slotBase)))

	err := env.repo.Booking.CreateBooking(ctx, sampleBooking(slotBase))
	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.Equal(t, 409, HTTPStatus(err))

	cancelled := sampleBooking(slotBase)
	cancelled.Status = entity.BookingStatusCancelled
	require.NoError(t, env.repo.Booking.CreateBooking(ctx, cancelled))

	assert.Equal(t, 2, env.count(t, "SELECT COUNT(*) FROM bookings"))
}
