package certificates

import (
	"errors"
	"net/http"
)

// Domain errors for certificate operations.
var (
	ErrNotFound             = errors.New("certificate not found")
	ErrInvalidType          = errors.New("certificate type must be COMPOSITE, BATCH, SHIFT or CUSTOM")
	ErrInvalidRange         = errors.New("start_date must not be after end_date")
	ErrInvalidTransition    = errors.New("transition not allowed from current status")
	ErrImmutable            = errors.New("approved certificates are immutable")
	ErrSamplesNotApprovable = errors.New("certificate cites samples with rejected or pending verdicts")
	ErrNoSamples            = errors.New("certificate cites no samples")
	ErrSeparationOfDuty     = errors.New("approver must differ from certificate author")
	ErrUnknownSample        = errors.New("cited sample does not exist")
	ErrNumberContended      = errors.New("report number allocation contended, retry")
	ErrDuplicate            = errors.New("certificate already exists")
)

// MapHTTPStatus maps certificate domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidType),
		errors.Is(err, ErrInvalidRange),
		errors.Is(err, ErrUnknownSample):
		return http.StatusBadRequest
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrImmutable),
		errors.Is(err, ErrSamplesNotApprovable),
		errors.Is(err, ErrNoSamples),
		errors.Is(err, ErrSeparationOfDuty):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNumberContended):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
