package catalog

import (
	"errors"
	"net/http"
)

// Domain errors for catalog operations.
var (
	ErrNotFound               = errors.New("catalog entry not found")
	ErrUnknownProduct         = errors.New("unknown product")
	ErrUnknownProperty        = errors.New("unknown property")
	ErrUnknownAnalysisType    = errors.New("unknown analysis type")
	ErrDuplicate              = errors.New("catalog entry already exists")
	ErrDuplicateSpecification = errors.New("active specification already exists for product and property")
	ErrInvalidBounds          = errors.New("specification bounds are inconsistent")
	ErrNoSpecification        = errors.New("no active specification for product and property")
)

// MapHTTPStatus maps catalog domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrUnknownProduct),
		errors.Is(err, ErrUnknownProperty),
		errors.Is(err, ErrUnknownAnalysisType),
		errors.Is(err, ErrNoSpecification):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate), errors.Is(err, ErrDuplicateSpecification):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidBounds):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
