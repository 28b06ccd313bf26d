package usecase

import (
	"errors"
	"net/http"

	"studio-booking/internal/data/repository"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrSlotUnavailable   = errors.New("slot already booked")
	ErrInvalidTransition = errors.New("booking status does not allow this change")
	ErrUnknownService    = errors.New("service not found or inactive")
	ErrUnknownAddon      = errors.New("addon not found or inactive")
	ErrUnknownCoupon     = errors.New("coupon not found")
	ErrUnknownStaff      = errors.New("photographer not found")
)

// HTTPStatus maps service and repository errors to a response status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrUnknownService),
		errors.Is(err, ErrUnknownAddon),
		errors.Is(err, ErrUnknownCoupon),
		errors.Is(err, ErrUnknownStaff):
		return http.StatusBadRequest
	case errors.Is(err, ErrBookingNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	}
	return repository.HTTPStatus(err)
}
