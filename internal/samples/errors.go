package samples

import (
	"errors"
	"net/http"
)

// Domain errors for sample operations.
var (
	ErrNotFound        = errors.New("sample not found")
	ErrDuplicateSample = errors.New("sample already exists for date, shift, line, product and sequence")
	ErrDuplicateResult = errors.New("result already exists for sample and property")
	ErrInvalidValue    = errors.New("invalid measurement value")
	ErrInvalidShift    = errors.New("shift must be A or B")
	ErrInvalidSequence = errors.New("sequence must be between 1 and 3")
	ErrInvalidOverride = errors.New("verdict override admits only ALERT")
	ErrSampleFrozen    = errors.New("sample is cited by an approved certificate and is frozen")
	ErrCompositeSealed = errors.New("composite sample is sealed")
	ErrNotComposite    = errors.New("operation applies to composite samples only")
)

// MapHTTPStatus maps sample domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateSample), errors.Is(err, ErrDuplicateResult):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidValue),
		errors.Is(err, ErrInvalidShift),
		errors.Is(err, ErrInvalidSequence),
		errors.Is(err, ErrInvalidOverride),
		errors.Is(err, ErrNotComposite):
		return http.StatusBadRequest
	case errors.Is(err, ErrSampleFrozen), errors.Is(err, ErrCompositeSealed):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
