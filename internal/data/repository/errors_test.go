package repository

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"studio-booking/pkg/database"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback ErrorCode
		want     ErrorCode
	}{
		{"pool timeout", fmt.Errorf("acquire: %w", database.ErrPoolTimeout), CodeQueryFailed, CodePoolExhausted},
		{"pool closed", database.ErrPoolClosed, CodeTransactionFailed, CodePoolExhausted},
		{"constraint", fmt.Errorf("insert: %w", sqlite3.Error{Code: sqlite3.ErrConstraint}), CodeTransactionFailed, CodeConstraintViolation},
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, CodeTransactionFailed, CodeTransactionFailed},
		{"other", errors.New("disk on fire"), CodeQueryFailed, CodeQueryFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify("op", tt.err, tt.fallback)
			assert.Equal(t, tt.want, CodeOf(err))
			assert.ErrorIs(t, err, tt.err)
		})
	}

	assert.NoError(t, classify("op", nil, CodeQueryFailed))
}

func TestClassify_KeepsExistingCode(t *testing.T) {
	inner := notFound("update booking", "booking", "b-1")
	err := classify("outer", fmt.Errorf("wrapped: %w", inner), CodeTransactionFailed)

	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestError_IsMatchesOnlyItsSentinel(t *testing.T) {
	err := newError("create booking", CodeConstraintViolation, errors.New("UNIQUE failed"))

	assert.ErrorIs(t, err, ErrConstraintViolation)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "create booking: CONSTRAINT_VIOLATION: UNIQUE failed", err.Error())
	assert.Equal(t, "read: NOT_FOUND", newError("read", CodeNotFound, nil).Error())
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(newError("x", CodePoolExhausted, nil)))
	assert.Equal(t, http.StatusConflict, HTTPStatus(newError("x", CodeConstraintViolation, nil)))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(newError("x", CodeNotFound, nil)))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(newError("x", CodeInvalidInput, nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(newError("x", CodeTransactionFailed, nil)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), CodeOf(errors.New("plain")))
}
