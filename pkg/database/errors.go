package database

import "errors"

var (
	// ErrPoolTimeout is returned when no connection frees up before the
	// acquire timeout elapses.
	ErrPoolTimeout = errors.New("connection pool timeout")

	// ErrPoolClosed is returned by every acquire after Close.
	ErrPoolClosed = errors.New("connection pool closed")
)
