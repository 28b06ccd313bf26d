package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxConnections = 5
	DefaultAcquireTimeout = 30 * time.Second
	DefaultBusyTimeout    = 5 * time.Second
	DefaultPollInterval   = 100 * time.Millisecond
)

// PoolConfig sizes the pool. Zero values fall back to the defaults above.
type PoolConfig struct {
	Path           string
	MaxConnections int
	AcquireTimeout time.Duration
	BusyTimeout    time.Duration
	PollInterval   time.Duration
}

func (c PoolConfig) withDefaults() PoolConfig {
	if c.MaxConnections <= 0 {
		c.MaxConnections = DefaultMaxConnections
	}
	if c.AcquireTimeout <= 0 {
		c.AcquireTimeout = DefaultAcquireTimeout
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = DefaultBusyTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// PoolIface is what repositories depend on, so tests and callers can swap
// the pool for another implementation.
type PoolIface interface {
	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)
	WithConn(ctx context.Context, fn func(q Querier) error) error
	Transaction(ctx context.Context, fn func(tx Querier) error) error
	HealthCheck(ctx context.Context) bool
	Stats() Stats
	Close() error
}

var _ PoolIface = (*Pool)(nil)

// Stats is a point-in-time view of the pool.
type Stats struct {
	MaxConnections int   `json:"max_connections"`
	Open           int   `json:"open"`
	Idle           int   `json:"idle"`
	InUse          int   `json:"in_use"`
	Queries        int64 `json:"queries"`
}

// Pool bounds the number of live SQLite connections and hands them out one
// caller at a time. Acquire is paired with Release; Exec, WithConn and
// Transaction do the pairing for you.
type Pool struct {
	cfg PoolConfig
	log *zap.Logger
	db  *sql.DB

	mu          sync.Mutex
	available   []*Conn
	inUse       map[*Conn]struct{}
	open        int
	nextID      int
	initialized bool
	closed      bool

	released chan struct{}
	queries  atomic.Int64
}

func NewPool(cfg PoolConfig, log *zap.Logger) (*Pool, error) {
	cfg = cfg.withDefaults()
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	return &Pool{
		cfg:      cfg,
		log:      log.With(zap.String("component", "pool")),
		db:       db,
		inUse:    make(map[*Conn]struct{}),
		released: make(chan struct{}, 1),
	}, nil
}

// Config returns the effective configuration after defaults.
func (p *Pool) Config() PoolConfig { return p.cfg }

// Initialize eagerly opens MaxConnections connections. Calling it again is a
// no-op.
func (p *Pool) Initialize(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}
	if p.initialized {
		return nil
	}

	for p.open < p.cfg.MaxConnections {
		conn, err := p.newConnLocked(ctx)
		if err != nil {
			return fmt.Errorf("initialize pool: %w", err)
		}
		p.available = append(p.available, conn)
	}
	p.initialized = true

	p.log.Info("Connection pool initialized",
		zap.String("path", p.cfg.Path),
		zap.Int("max_connections", p.cfg.MaxConnections),
		zap.Duration("busy_timeout", p.cfg.BusyTimeout),
		zap.Duration("acquire_timeout", p.cfg.AcquireTimeout),
	)
	return nil
}

// newConnLocked opens a connection while p.mu is held.
func (p *Pool) newConnLocked(ctx context.Context) (*Conn, error) {
	raw, err := p.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}
	if err := setupConn(ctx, raw); err != nil {
		_ = raw.Close()
		return nil, err
	}

	p.open++
	p.nextID++
	return &Conn{id: p.nextID, raw: raw, pool: p}, nil
}

// Acquire returns an idle connection, opens a new one while below the
// limit, or waits for a release. Waiting polls every PollInterval and gives
// up with ErrPoolTimeout after AcquireTimeout.
func (p *Pool) Acquire(ctx context.Context) (*Conn, error) {
	timeout := time.NewTimer(p.cfg.AcquireTimeout)
	defer timeout.Stop()

	var ticker *time.Ticker
	for {
		conn, mayOpen, err := p.tryAcquire()
		if err != nil {
			return nil, err
		}
		if conn != nil {
			return conn, nil
		}
		if mayOpen {
			return p.openReserved(ctx)
		}

		if ticker == nil {
			ticker = time.NewTicker(p.cfg.PollInterval)
			defer ticker.Stop()
			p.log.Debug("Connection pool exhausted, waiting", zap.Int("in_use", p.Stats().InUse))
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout.C:
			p.log.Warn("Connection pool acquire timed out",
				zap.Duration("timeout", p.cfg.AcquireTimeout),
				zap.Int("max_connections", p.cfg.MaxConnections),
			)
			return nil, fmt.Errorf("%w: no connection available after %s", ErrPoolTimeout, p.cfg.AcquireTimeout)
		case <-ticker.C:
		case <-p.released:
		}
	}
}

// tryAcquire pops an idle connection or reserves a slot for a new one.
func (p *Pool) tryAcquire() (conn *Conn, mayOpen bool, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, false, ErrPoolClosed
	}
	if n := len(p.available); n > 0 {
		conn = p.available[n-1]
		p.available = p.available[:n-1]
		p.inUse[conn] = struct{}{}
		return conn, false, nil
	}
	if p.open < p.cfg.MaxConnections {
		// reserve the slot so concurrent callers cannot overshoot
		p.open++
		return nil, true, nil
	}
	return nil, false, nil
}

// openReserved opens a connection into a slot reserved by tryAcquire.
func (p *Pool) openReserved(ctx context.Context) (*Conn, error) {
	raw, err := p.db.Conn(ctx)
	if err == nil {
		if err = setupConn(ctx, raw); err != nil {
			_ = raw.Close()
		}
	}

	p.mu.Lock()
	if err != nil {
		p.open--
		p.mu.Unlock()
		p.notify()
		return nil, fmt.Errorf("open connection: %w", err)
	}
	if p.closed {
		p.open--
		p.mu.Unlock()
		_ = raw.Close()
		return nil, ErrPoolClosed
	}
	p.nextID++
	conn := &Conn{id: p.nextID, raw: raw, pool: p}
	p.inUse[conn] = struct{}{}
	p.mu.Unlock()

	p.log.Debug("Connection opened lazily", zap.Int("conn_id", conn.id))
	return conn, nil
}

// Release hands conn back to the pool. Releasing a connection that is not
// checked out does nothing.
func (p *Pool) Release(conn *Conn) {
	if conn == nil {
		return
	}

	p.mu.Lock()
	if _, ok := p.inUse[conn]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.inUse, conn)

	if p.closed {
		p.open--
		p.mu.Unlock()
		p.closeConn(conn)
		return
	}
	p.available = append(p.available, conn)
	p.mu.Unlock()

	p.notify()
}

func (p *Pool) notify() {
	select {
	case p.released <- struct{}{}:
	default:
	}
}

// Exec runs a single statement on a pooled connection.
func (p *Pool) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var result sql.Result
	err := p.WithConn(ctx, func(q Querier) error {
		var execErr error
		result, execErr = q.ExecContext(ctx, query, args...)
		return execErr
	})
	return result, err
}

// WithConn acquires a connection, runs fn on it and always releases it.
func (p *Pool) WithConn(ctx context.Context, fn func(q Querier) error) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(conn)

	return fn(conn)
}

// Transaction runs fn inside BEGIN/COMMIT on one pooled connection. Any
// error returned by fn, or a panic, rolls the transaction back.
func (p *Pool) Transaction(ctx context.Context, fn func(tx Querier) error) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(conn)

	raw, err := conn.raw.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := raw.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			p.log.Error("Failed to rollback transaction",
				zap.Error(rbErr),
				zap.Int("conn_id", conn.id),
			)
		}
	}()

	if err := fn(&Tx{raw: raw, pool: p, connID: conn.id}); err != nil {
		return err
	}

	if err := raw.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	committed = true
	return nil
}

// HealthCheck runs SELECT 1 on every idle connection. Connections that are
// checked out are skipped. A connection that fails is closed and its slot
// freed, so the next Acquire opens a replacement.
func (p *Pool) HealthCheck(ctx context.Context) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	idle := p.available
	p.available = nil
	for _, conn := range idle {
		p.inUse[conn] = struct{}{}
	}
	p.mu.Unlock()

	healthy := true
	for _, conn := range idle {
		var one int
		if err := conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil || one != 1 {
			p.log.Warn("Connection health check failed",
				zap.Error(err),
				zap.Int("conn_id", conn.id),
			)
			healthy = false
			p.evict(conn)
			continue
		}
		p.Release(conn)
	}
	return healthy
}

// evict drops a checked-out connection from the pool and closes it.
func (p *Pool) evict(conn *Conn) {
	p.mu.Lock()
	if _, ok := p.inUse[conn]; !ok {
		p.mu.Unlock()
		return
	}
	delete(p.inUse, conn)
	p.open--
	p.mu.Unlock()

	p.closeConn(conn)
	p.notify()
}

// Stats reports pool occupancy and the number of statements executed.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		MaxConnections: p.cfg.MaxConnections,
		Open:           p.open,
		Idle:           len(p.available),
		InUse:          len(p.inUse),
		Queries:        p.queries.Load(),
	}
}

// Close tears down every idle connection and the underlying handle.
// Connections still checked out are closed when they are released.
// Individual close errors are logged and swallowed.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.available
	p.available = nil
	p.open -= len(idle)
	busy := len(p.inUse)
	p.mu.Unlock()

	for _, conn := range idle {
		p.closeConn(conn)
	}

	if err := p.db.Close(); err != nil {
		p.log.Warn("Failed to close database handle", zap.Error(err))
	}

	p.log.Info("Connection pool closed",
		zap.Int("closed_idle", len(idle)),
		zap.Int("still_in_use", busy),
	)
	return nil
}

func (p *Pool) closeConn(conn *Conn) {
	if err := conn.raw.Close(); err != nil && !errors.Is(err, sql.ErrConnDone) {
		p.log.Warn("Failed to close connection",
			zap.Error(err),
			zap.Int("conn_id", conn.id),
		)
	}
}
