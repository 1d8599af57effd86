package services

import (
	"errors"
	"net/http"
)

// Sentinel errors returned by the service layer. Controllers translate these
// into the JSON response envelope; everything else is a 500.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidAmount    = errors.New("invalid payment amount")
	ErrInvalidState     = errors.New("invalid state for this operation")
	ErrNotRefundable    = errors.New("payment is not refundable")
	ErrAlreadyEnrolled  = errors.New("already enrolled in this course")
	ErrNotAvailable     = errors.New("course is not available for enrollment")
	ErrForbidden        = errors.New("access denied")
	ErrInvalidSignature = errors.New("invalid callback signature")
	ErrGateway          = errors.New("payment gateway error")
)

// HTTPStatus maps a service error to the status code its response should carry
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyEnrolled):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidSignature):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrNotRefundable),
		errors.Is(err, ErrNotAvailable):
		return http.StatusBadRequest
	case errors.Is(err, ErrGateway):
		// retryable by the caller, the payment row is left in a defined state
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
