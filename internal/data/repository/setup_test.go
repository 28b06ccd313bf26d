package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"studio-booking/internal/audit"
	"studio-booking/internal/data/entity"
	"studio-booking/pkg/database"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *eventRecorder) Record(_ context.Context, event audit.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Action
	}
	return out
}

type testEnv struct {
	pool   *database.Pool
	repo   *Repository
	events *eventRecorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	log := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	path := filepath.Join(t.TempDir(), "studio.db")
	require.NoError(t, database.Migrate(path, log))

	pool, err := database.NewPool(database.PoolConfig{
		Path:           path,
		MaxConnections: 3,
		AcquireTimeout: 5 * time.Second,
	}, log)
	require.NoError(t, err)
	require.NoError(t, pool.Initialize(context.Background()))
	t.Cleanup(func() { _ = pool.Close() })

	events := &eventRecorder{}
	return &testEnv{
		pool:   pool,
		repo:   NewRepository(pool, audit.NewEmitter(events, log), log),
		events: events,
	}
}

func (e *testEnv) exec(t *testing.T, query string, args ...any) {
	t.Helper()
	_, err := e.pool.Exec(context.Background(), query, args...)
	require.NoError(t, err)
}

func (e *testEnv) count(t *testing.T, query string, args ...any) int {
	t.Helper()
	var n int
	err := e.pool.WithConn(context.Background(), func(q database.Querier) error {
		return q.QueryRowContext(context.Background(), query, args...).Scan(&n)
	})
	require.NoError(t, err)
	return n
}

func (e *testEnv) createAddon(t *testing.T, name string, price int64) *entity.Addon {
	t.Helper()
	addon := &entity.Addon{Name: name, Category: "extras", Price: price, IsActive: true}
	require.NoError(t, e.repo.Addon.Create(context.Background(), addon))
	return addon
}

var slotBase = time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

func sampleBooking(date time.Time) *entity.Booking {
	return &entity.Booking{
		Customer: entity.Customer{
			Name:     "Rina Prasetyo",
			WhatsApp: "6281234567890",
			Category: "wedding",
		},
		Booking: entity.BookingDetails{Date: date},
		Finance: entity.Finance{TotalPrice: 1_000_000},
	}
}

func payment(amount int64, note string) entity.Payment {
	return entity.Payment{
		Date:   slotBase.Add(-48 * time.Hour),
		Amount: amount,
		Note:   note,
	}
}

// seedBulk inserts n bookings directly, each with two payments, one addon
// line and one reschedule entry.
func (e *testEnv) seedBulk(t *testing.T, n int, addonID string) {
	t.Helper()
	ctx := context.Background()
	now := database.FormatTime(time.Now())

	err := e.pool.Transaction(ctx, func(tx database.Querier) error {
		for i := 0; i < n; i++ {
			id := fmt.Sprintf("bulk-%05d", i)
			date := database.FormatTime(slotBase.Add(time.Duration(i) * time.Hour))

			if _, err := tx.ExecContext(ctx, `
				INSERT INTO bookings (id, created_at, updated_at, status, customer_name, customer_whatsapp, booking_date, total_price)
				VALUES (?, ?, ?, 'Active', ?, ?, ?, 300000)`,
				id, now, now, fmt.Sprintf("Customer %d", i), fmt.Sprintf("62800%05d", i), date,
			); err != nil {
				return err
			}
			for p := 1; p <= 2; p++ {
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO payments (booking_id, payment_date, amount, note) VALUES (?, ?, ?, ?)`,
					id, date, 100000*p, fmt.Sprintf("installment %d", p),
				); err != nil {
					return err
				}
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO booking_addons (booking_id, addon_id, quantity, price_at_booking) VALUES (?, ?, 1, 50000)`,
				id, addonID,
			); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO reschedule_history (booking_id, old_date, new_date, rescheduled_at) VALUES (?, ?, ?, ?)`,
				id, date, date, now,
			); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}
