package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3"

// BuildDSN returns a go-sqlite3 DSN for path. Every connection opened from
// it runs in WAL mode with foreign keys enforced, waits up to busyTimeout on
// a locked database, and starts transactions with BEGIN IMMEDIATE so two
// writers never deadlock upgrading a read lock.
func BuildDSN(path string, busyTimeout time.Duration) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_foreign_keys", "on")
	params.Set("_busy_timeout", strconv.FormatInt(busyTimeout.Milliseconds(), 10))
	params.Set("_txlock", "immediate")
	return path + "?" + params.Encode()
}

// ensureDir creates the directory holding a file database. In-memory and
// URI paths are left alone.
func ensureDir(path string) error {
	if path == ":memory:" || strings.HasPrefix(path, "file:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create database directory %s: %w", dir, err)
	}
	return nil
}

// openDB opens the handle the pool draws its physical connections from.
// database/sql's own pool is sized to match ours and never expires
// connections, so each *sql.Conn we hold pins exactly one SQLite handle.
func openDB(cfg PoolConfig) (*sql.DB, error) {
	if err := ensureDir(cfg.Path); err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, BuildDSN(cfg.Path, cfg.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxConnections)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	return db, nil
}

// setupConn applies per-connection settings the DSN cannot carry.
func setupConn(ctx context.Context, conn *sql.Conn) error {
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA case_sensitive_like = ON"); err != nil {
		return fmt.Errorf("enable case sensitive like: %w", err)
	}
	return nil
}
