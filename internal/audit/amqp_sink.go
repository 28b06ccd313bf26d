package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RedialBackoff is how long an AMQPSink fails fast after a dial error
// before it tries the broker again.
const RedialBackoff = 10 * time.Second

var errBrokerBackoff = errors.New("broker unreachable, waiting before redial")

// AMQPSink publishes events as persistent JSON messages to a durable queue.
// The connection is opened on first use and re-dialled after it drops.
// Every broker round trip is bounded by the Record context.
type AMQPSink struct {
	url   string
	queue string
	log   *zap.Logger

	// lock is a one-slot semaphore so waiting for it can honour ctx
	lock    chan struct{}
	conn    *amqp.Connection
	ch      *amqp.Channel
	retryAt time.Time
}

func NewAMQPSink(url, queue string, log *zap.Logger) *AMQPSink {
	return &AMQPSink{
		url:   url,
		queue: queue,
		log:   log.With(zap.String("sink", "amqp"), zap.String("queue", queue)),
		lock:  make(chan struct{}, 1),
	}
}

func (s *AMQPSink) Record(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	select {
	case s.lock <- struct{}{}:
	case <-ctx.Done():
		return fmt.Errorf("publish audit event: %w", ctx.Err())
	}
	defer func() { <-s.lock }()

	ch, err := s.channelLocked(ctx)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         event.Entity + "." + event.Action,
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		s.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		s.resetLocked()
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}

func (s *AMQPSink) channelLocked(ctx context.Context) (*amqp.Channel, error) {
	if s.ch != nil && !s.ch.IsClosed() && s.conn != nil && !s.conn.IsClosed() {
		return s.ch, nil
	}
	s.resetLocked()

	if time.Now().Before(s.retryAt) {
		return nil, fmt.Errorf("dial rabbitmq: %w", errBrokerBackoff)
	}

	timeout := DefaultTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return nil, fmt.Errorf("dial rabbitmq: %w", context.DeadlineExceeded)
	}

	// DefaultDial bounds both the TCP connect and the AMQP handshake.
	conn, err := amqp.DialConfig(s.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		s.retryAt = time.Now().Add(RedialBackoff)
		s.log.Warn("Audit publisher dial failed",
			zap.Error(err),
			zap.Duration("retry_in", RedialBackoff),
		)
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	s.retryAt = time.Time{}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if _, err := ch.QueueDeclare(
		s.queue, // name
		true,    // durable
		false,   // autoDelete
		false,   // exclusive
		false,   // noWait
		nil,     // args
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", s.queue, err)
	}

	s.conn, s.ch = conn, ch
	s.log.Info("Audit publisher connected")
	return ch, nil
}

func (s *AMQPSink) resetLocked() {
	if s.ch != nil {
		_ = s.ch.Close()
		s.ch = nil
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

// Close drops the broker connection.
func (s *AMQPSink) Close() error {
	s.lock <- struct{}{}
	defer func() { <-s.lock }()
	s.resetLocked()
	return nil
}
