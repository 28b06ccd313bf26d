package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"studio-booking/internal/audit"
	"studio-booking/internal/data/entity"
	"studio-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateBooking_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := utils.SetActorContext(context.Background(), "admin-1")

	addon := env.createAddon(t, "Makeup", 150000)
	notes := "Bring props"
	coupon := "WEDDING10"
	discount := int64(100000)

	b := sampleBooking(slotBase)
	b.Booking.Notes = &notes
	b.Finance.CouponCode = &coupon
	b.Finance.CouponDiscount = &discount
	b.Finance.Payments = []entity.Payment{payment(500000, "DP")}
	b.Addons = []entity.BookingAddon{{AddonID: addon.ID, Quantity: 2, PriceAtBooking: 150000}}

	require.NoError(t, env.repo.Booking.CreateBooking(ctx, b))
	assert.True(t, utils.IsValidID(b.ID))
	assert.Equal(t, entity.BookingStatusActive, b.Status)
	assert.False(t, b.CreatedAt.IsZero())

	got, err := env.repo.Booking.ReadBooking(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, b.Customer.Name, got.Customer.Name)
	assert.Equal(t, notes, *got.Booking.Notes)
	assert.Equal(t, coupon, *got.Finance.CouponCode)
	assert.Equal(t, discount, *got.Finance.CouponDiscount)
	assert.Nil(t, got.Finance.ServiceBasePrice)
	require.Len(t, got.Finance.Payments, 1)
	assert.Equal(t, entity.StorageBackendLocal, got.Finance.Payments[0].StorageBackend)
	assert.NotZero(t, got.Finance.Payments[0].ID)
	require.Len(t, got.Addons, 1)
	assert.Equal(t, "Makeup", got.Addons[0].AddonName)
	assert.Equal(t, int64(300000), got.Addons[0].Subtotal())
	assert.True(t, b.CreatedAt.Truncate(time.Millisecond).Equal(got.CreatedAt))

	require.Len(t, env.events.events, 1)
	event := env.events.events[0]
	assert.Equal(t, audit.ActionCreate, event.Action)
	assert.Equal(t, "admin-1", event.Actor)
	assert.Equal(t, b.ID, event.EntityID)
}

func TestCreateBooking_BalanceScenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := sampleBooking(slotBase)
	b.Finance.TotalPrice = 1_000_000
	b.Finance.Payments = []entity.Payment{payment(500_000, "DP 50%")}
	require.NoError(t, env.repo.Booking.CreateBooking(ctx, b))

	got, err := env.repo.Booking.ReadBooking(ctx, b.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1_000_000), got.Finance.TotalPrice)
	assert.Equal(t, int64(500_000), got.Finance.Paid())
	assert.Equal(t, int64(500_000), got.Finance.Balance())
	assert.False(t, got.Finance.Overpaid())
}

func TestCreateBooking_RejectsInvalidAggregate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(b *entity.Booking)
	}{
		{"missing customer name", func(b *entity.Booking) { b.Customer.Name = "" }},
		{"missing date", func(b *entity.Booking) { b.Booking.Date = time.Time{} }},
		{"zero payment", func(b *entity.Booking) { b.Finance.Payments = []entity.Payment{payment(0, "")} }},
		{"unknown status", func(b *entity.Booking) { b.Status = entity.BookingStatusUnknown }},
		{"bad location link", func(b *entity.Booking) {
			link := "not a url"
			b.Booking.LocationLink = &link
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := sampleBooking(slotBase)
			tt.mutate(b)

			err := env.repo.Booking.CreateBooking(ctx, b)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}

	assert.Equal(t, 0, env.count(t, "SELECT COUNT(*) FROM bookings"))
}

func TestCreateBooking_RollsBackOnPaymentFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.exec(t, `CREATE TRIGGER fail_payments BEFORE INSERT ON payments
		BEGIN SELECT RAISE(ABORT, 'forced failure'); END`)

	b := sampleBooking(slotBase)
	b.Finance.Payments = []entity.Payment{payment(100000, "DP")}

	err := env.repo.Booking.CreateBooking(ctx, b)
	require.Error(t, err)

	var repoErr *Error
	require.True(t, errors.As(err, &repoErr))
	assert.Contains(t, []ErrorCode{CodeConstraintViolation, CodeTransactionFailed}, repoErr.Code)

	assert.Equal(t, 0, env.count(t, "SELECT COUNT(*) FROM bookings WHERE id = ?", b.ID))
	assert.Equal(t, 0, env.count(t, "SELECT COUNT(*) FROM payments"))
	assert.Empty(t, env.events.events, "failed writes are not audited")
	assert.Equal(t, 0, env.pool.Stats().InUse)
}

func TestCreateBooking_UnknownAddonIsConstraintViolation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := sampleBooking(slotBase)
	b.Finance.Payments = []entity.Payment{payment(100000, "DP")}
	b.Addons = []entity.BookingAddon{{AddonID: "no-such-addon", Quantity: 1}}

	err := env.repo.Booking.CreateBooking(ctx, b)
	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.Equal(t, 409, HTTPStatus(err))

	assert.Equal(t, 0, env.count(t, "SELECT COUNT(*) FROM bookings"))
	assert.Equal(t, 0, env.count(t, "SELECT COUNT(*) FROM payments"))
}

func TestUpdateBooking_ReplacesChildSets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	addon := env.createAddon(t, "Drone shots", 400000)
	b := sampleBooking(slotBase)
	b.Finance.Payments = []entity.Payment{
		payment(100000, "first"),
		payment(200000, "second"),
		payment(300000, "third"),
	}
	b.Addons = []entity.BookingAddon{{AddonID: addon.ID, Quantity: 1, PriceAtBooking: 400000}}
	require.NoError(t, env.repo.Booking.CreateBooking(ctx, b))

	loaded, err := env.repo.Booking.ReadBooking(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Finance.Payments, 3)

	loaded.Finance.Payments = []entity.Payment{payment(600000, "consolidated")}
	loaded.Addons = nil
	loaded.Customer.Name = "Rina P."
	require.NoError(t, env.repo.Booking.UpdateBooking(ctx, loaded))

	got, err := env.repo.Booking.ReadBooking(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, got.Finance.Payments, 1)
	assert.Equal(t, "consolidated", got.Finance.Payments[0].Note)
	assert.Equal(t, int64(600000), got.Finance.Paid())
	assert.Empty(t, got.Addons)
	assert.Equal(t, "Rina P.", got.Customer.Name)
	assert.True(t, loaded.CreatedAt.Equal(got.CreatedAt), "created_at is immutable")
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	assert.Equal(t, 1, env.count(t, "SELECT COUNT(*) FROM payments WHERE booking_id = ?", b.ID))
	assert.Equal(t, []string{audit.ActionCreate, audit.ActionUpdate}, env.events.actions())
}

func TestUpdateBooking_FailureKeepsPreviousState(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := sampleBooking(slotBase)
	b.Finance.Payments = []entity.Payment{payment(100000, "a"), payment(200000, "b")}
	require.NoError(t, env.repo.Booking.CreateBooking(ctx, b))

	loaded, err := env.repo.Booking.ReadBooking(ctx, b.ID)
	require.NoError(t, err)
	loaded.Customer.Name = "Should not stick"
	loaded.Addons = []entity.BookingAddon{{AddonID: "missing", Quantity: 1}}

	err = env.repo.Booking.UpdateBooking(ctx, loaded)
	assert.ErrorIs(t, err, ErrConstraintViolation)

	got, err := env.repo.Booking.ReadBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rina Prasetyo", got.Customer.Name)
	assert.Len(t, got.Finance.Payments, 2)
}

func TestUpdateBooking_NotFound(t *testing.T) {
	env := newTestEnv(t)

	b := sampleBooking(slotBase)
	b.ID = "ghost"
	b.Status = entity.BookingStatusActive

	err := env.repo.Booking.UpdateBooking(context.Background(), b)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 404, HTTPStatus(err))
}

func TestDeleteBooking_CascadesChildren(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	addon := env.createAddon(t, "Frame", 75000)
	b := sampleBooking(slotBase)
	b.Finance.Payments = []entity.Payment{payment(100000, "DP")}
	b.Addons = []entity.BookingAddon{{AddonID: addon.ID, Quantity: 1, PriceAtBooking: 75000}}
	require.NoError(t, env.repo.Booking.CreateBooking(ctx, b))
	require.NoError(t, env.repo.Booking.AddRescheduleHistory(ctx, b.ID, slotBase, slotBase.Add(time.Hour), nil))

	require.NoError(t, env.repo.Booking.DeleteBooking(ctx, b.ID))

	got, err := env.repo.Booking.ReadBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, env.count(t, "SELECT COUNT(*) FROM payments"))
	assert.Equal(t, 0, env.count(t, "SELECT COUNT(*) FROM booking_addons"))
	assert.Equal(t, 0, env.count(t, "SELECT COUNT(*) FROM reschedule_history"))
	assert.Equal(t, 1, env.count(t, "SELECT COUNT(*) FROM addons"), "catalog rows survive")

	err = env.repo.Booking.DeleteBooking(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddRescheduleHistory_AppendOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := sampleBooking(slotBase)
	require.NoError(t, env.repo.Booking.CreateBooking(ctx, b))

	reason := "rain"
	second := slotBase.Add(24 * time.Hour)
	third := slotBase.Add(48 * time.Hour)
	require.NoError(t, env.repo.Booking.AddRescheduleHistory(ctx, b.ID, slotBase, second, &reason))
	require.NoError(t, env.repo.Booking.AddRescheduleHistory(ctx, b.ID, second, third, nil))

	got, err := env.repo.Booking.ReadBooking(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, got.RescheduleHistory, 2)

	first := got.RescheduleHistory[0]
	assert.True(t, slotBase.Equal(first.OldDate))
	assert.True(t, second.Equal(first.NewDate))
	assert.Equal(t, "rain", *first.Reason)
	assert.Nil(t, got.RescheduleHistory[1].Reason)
	assert.Less(t, first.ID, got.RescheduleHistory[1].ID)

	assert.True(t, slotBase.Equal(got.Booking.Date), "history does not move the booking")

	err = env.repo.Booking.AddRescheduleHistory(ctx, "missing", slotBase, second, nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 404, HTTPStatus(err))
	assert.Equal(t, 2, env.count(t, "SELECT COUNT(*) FROM reschedule_history"))
	err = env.repo.Booking.AddRescheduleHistory(ctx, "", slotBase, second, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestInsertRows_SplitsLargeSets(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := sampleBooking(slotBase)
	// 7 columns per payment row, so 400 rows need several statements
	for i := 0; i < 400; i++ {
		b.Finance.Payments = append(b.Finance.Payments, payment(1000, "instalment"))
	}
	require.NoError(t, env.repo.Booking.CreateBooking(ctx, b))

	got, err := env.repo.Booking.ReadBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Len(t, got.Finance.Payments, 400)
	assert.Equal(t, int64(400_000), got.Finance.Paid())
}

func TestCreateBooking_AuditSinkFailureDoesNotFailWrite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	failing := audit.SinkFunc(func(context.Context, audit.Event) error {
		return errors.New("sink down")
	})
	repo := NewBookingRepository(env.pool, audit.NewEmitter(failing, zap.NewNop()), zap.NewNop())

	b := sampleBooking(slotBase)
	require.NoError(t, repo.CreateBooking(ctx, b))
	assert.Equal(t, 1, env.count(t, "SELECT COUNT(*) FROM bookings WHERE id = ?", b.ID))
}
