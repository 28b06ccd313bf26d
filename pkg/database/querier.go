package database

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"
)

// Querier is the statement surface shared by pooled connections and the
// transactions started on them.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Conn is one embedded database connection owned by a Pool.
type Conn struct {
	id   int
	raw  *sql.Conn
	pool *Pool
}

// ID identifies the connection within its pool, starting at 1.
func (c *Conn) ID() int { return c.id }

func (c *Conn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	c.pool.trace(query, c.id)
	return c.raw.ExecContext(ctx, query, args...)
}

func (c *Conn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	c.pool.trace(query, c.id)
	return c.raw.QueryContext(ctx, query, args...)
}

func (c *Conn) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	c.pool.trace(query, c.id)
	return c.raw.QueryRowContext(ctx, query, args...)
}

// Tx is a transaction running on a pooled connection.
type Tx struct {
	raw    *sql.Tx
	pool   *Pool
	connID int
}

func (t *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	t.pool.trace(query, t.connID)
	return t.raw.ExecContext(ctx, query, args...)
}

func (t *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	t.pool.trace(query, t.connID)
	return t.raw.QueryContext(ctx, query, args...)
}

func (t *Tx) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	t.pool.trace(query, t.connID)
	return t.raw.QueryRowContext(ctx, query, args...)
}

func (p *Pool) trace(query string, connID int) {
	p.queries.Add(1)
	if ce := p.log.Check(zap.DebugLevel, "SQL statement"); ce != nil {
		ce.Write(zap.Int("conn_id", connID), zap.String("query", compactSQL(query)))
	}
}

// compactSQL collapses whitespace so multi-line statements log on one line.
func compactSQL(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
