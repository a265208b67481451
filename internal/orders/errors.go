package orders

import (
	"errors"
	"net/http"
)

// Domain errors for loading order operations.
var (
	ErrNotFound               = errors.New("loading order not found")
	ErrCertificateNotApproved = errors.New("loading orders require an approved certificate")
	ErrInvalidTransition      = errors.New("transition not allowed from current status")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInvalidSchedule        = errors.New("scheduled_at must be RFC 3339")
	ErrNumberContended        = errors.New("order number allocation contended, retry")
	ErrDuplicate              = errors.New("loading order already exists")
)

// MapHTTPStatus maps loading order domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidSchedule):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrCertificateNotApproved), errors.Is(err, ErrInvalidTransition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNumberContended):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
