package repository

import (
	"errors"
	"fmt"
	"net/http"

	"studio-booking/pkg/database"

	"github.com/mattn/go-sqlite3"
)

// ErrorCode is a stable identifier callers can switch on without parsing
// driver messages.
type ErrorCode string

const (
	CodePoolExhausted       ErrorCode = "POOL_EXHAUSTED"
	CodeTransactionFailed   ErrorCode = "TRANSACTION_FAILED"
	CodeConstraintViolation ErrorCode = "CONSTRAINT_VIOLATION"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeInvalidInput        ErrorCode = "INVALID_INPUT"
	CodeQueryFailed         ErrorCode = "QUERY_FAILED"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its code.
var (
	ErrPoolExhausted       = errors.New("connection pool exhausted")
	ErrTransactionFailed   = errors.New("transaction failed")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrQueryFailed         = errors.New("query failed")
)

var sentinels = map[ErrorCode]error{
	CodePoolExhausted:       ErrPoolExhausted,
	CodeTransactionFailed:   ErrTransactionFailed,
	CodeConstraintViolation: ErrConstraintViolation,
	CodeNotFound:            ErrNotFound,
	CodeInvalidInput:        ErrInvalidInput,
	CodeQueryFailed:         ErrQueryFailed,
}

// Error is the domain error returned by every repository write and by reads
// that fail for reasons other than "no rows".
type Error struct {
	Op   string
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	sentinel, ok := sentinels[e.Code]
	return ok && target == sentinel
}

func newError(op string, code ErrorCode, err error) *Error {
	return &Error{Op: op, Code: code, Err: err}
}

func notFound(op, entity, id string) *Error {
	return newError(op, CodeNotFound, fmt.Errorf("%s %s not found", entity, id))
}

// classify wraps err with the code that best describes it. Pool timeouts and
// engine constraint failures win over fallback.
func classify(op string, err error, fallback ErrorCode) error {
	if err == nil {
		return nil
	}

	var repoErr *Error
	if errors.As(err, &repoErr) {
		return err
	}

	if errors.Is(err, database.ErrPoolTimeout) || errors.Is(err, database.ErrPoolClosed) {
		return newError(op, CodePoolExhausted, err)
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return newError(op, CodeConstraintViolation, err)
	}

	return newError(op, fallback, err)
}

// CodeOf returns the code carried by err, or "" for foreign errors.
func CodeOf(err error) ErrorCode {
	var repoErr *Error
	if errors.As(err, &repoErr) {
		return repoErr.Code
	}
	return ""
}

// HTTPStatus maps a repository error to the status an HTTP caller should
// answer with.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodePoolExhausted:
		return http.StatusServiceUnavailable
	case CodeConstraintViolation:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
