package catalog_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/internal/catalog"
)

func ptr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestSpecificationLimits(t *testing.T) {
	spec := &catalog.Specification{
		LSL:       ptr("2.0"),
		LowerWarn: ptr("3.0"),
		Target:    ptr("5.0"),
		UpperWarn: ptr("7.0"),
		USL:       ptr("8.0"),
		Active:    true,
	}

	limits := spec.Limits()
	if limits == nil {
		t.Fatal("Limits() = nil for a populated specification")
	}
	if !limits.Active {
		t.Error("Active not carried into limits")
	}
	if limits.LSL == nil || !limits.LSL.Equal(*spec.LSL) {
		t.Errorf("LSL = %v, want %v", limits.LSL, spec.LSL)
	}
	if limits.USL == nil || !limits.USL.Equal(*spec.USL) {
		t.Errorf("USL = %v, want %v", limits.USL, spec.USL)
	}
	if limits.LowerWarn == nil || limits.UpperWarn == nil {
		t.Error("warn bounds not carried into limits")
	}
}

func TestSpecificationLimitsNil(t *testing.T) {
	var spec *catalog.Specification
	if got := spec.Limits(); got != nil {
		t.Errorf("nil specification Limits() = %v, want nil", got)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{catalog.ErrNotFound, http.StatusNotFound},
		{catalog.ErrUnknownProduct, http.StatusNotFound},
		{catalog.ErrUnknownProperty, http.StatusNotFound},
		{catalog.ErrUnknownAnalysisType, http.StatusNotFound},
		{catalog.ErrNoSpecification, http.StatusNotFound},
		{catalog.ErrDuplicate, http.StatusConflict},
		{catalog.ErrDuplicateSpecification, http.StatusConflict},
		{catalog.ErrInvalidBounds, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := catalog.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
