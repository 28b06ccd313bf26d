package repository

import (
	"context"
	"net"
	"testing"
	"time"

	"studio-booking/internal/audit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreateBooking_UnresponsiveBrokerBoundedByAuditTimeout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	done := make(chan struct{})
	go func() {
		var held []net.Conn
		defer func() {
			for _, c := range held {
				_ = c.Close()
			}
			close(done)
		}()
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			held = append(held, c) // accept and never answer
		}
	}()
	t.Cleanup(func() {
		_ = ln.Close()
		<-done
	})

	sink := audit.NewAMQPSink("amqp://guest:guest@"+ln.Addr().String()+"/", "audit", zap.NewNop())
	defer sink.Close()
	repo := NewBookingRepository(env.pool, audit.NewEmitter(sink, zap.NewNop()), zap.NewNop())

	start := time.Now()
	first := sampleBooking(slotBase)
	require.NoError(t, repo.CreateBooking(ctx, first))
	assert.Less(t, time.Since(start), audit.DefaultTimeout+time.Second)

	start = time.Now()
	second := sampleBooking(slotBase.Add(time.Hour))
	require.NoError(t, repo.CreateBooking(ctx, second))
	assert.Less(t, time.Since(start), time.Second, "later writes skip the broker while it backs off")

	assert.Equal(t, 2, env.count(t, "SELECT COUNT(*) FROM bookings"))
}
