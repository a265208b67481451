package samples_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"

	"github.com/vermlab/laudo/internal/classify"
	"github.com/vermlab/laudo/internal/samples"
)

func TestParseShift(t *testing.T) {
	for _, valid := range []string{"A", "B"} {
		shift, err := samples.ParseShift(valid)
		if err != nil {
			t.Errorf("ParseShift(%q) error: %v", valid, err)
		}
		if string(shift) != valid {
			t.Errorf("ParseShift(%q) = %s", valid, shift)
		}
	}

	for _, invalid := range []string{"", "a", "C", "AB"} {
		if _, err := samples.ParseShift(invalid); !errors.Is(err, samples.ErrInvalidShift) {
			t.Errorf("ParseShift(%q) error = %v, want ErrInvalidShift", invalid, err)
		}
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{samples.ErrNotFound, http.StatusNotFound},
		{samples.ErrDuplicateSample, http.StatusConflict},
		{samples.ErrDuplicateResult, http.StatusConflict},
		{samples.ErrInvalidValue, http.StatusBadRequest},
		{samples.ErrInvalidShift, http.StatusBadRequest},
		{samples.ErrInvalidSequence, http.StatusBadRequest},
		{samples.ErrInvalidOverride, http.StatusBadRequest},
		{samples.ErrNotComposite, http.StatusBadRequest},
		{samples.ErrSampleFrozen, http.StatusUnprocessableEntity},
		{samples.ErrCompositeSealed, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := samples.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestMapHTTPStatusWrapped(t *testing.T) {
	wrapped := errors.Join(errors.New("creating sample"), samples.ErrSampleFrozen)
	if got := samples.MapHTTPStatus(wrapped); got != http.StatusUnprocessableEntity {
		t.Errorf("MapHTTPStatus(wrapped frozen) = %d, want 422", got)
	}
}

func TestFiltersFromQuery(t *testing.T) {
	values := url.Values{}
	values.Set("date", "2026-03-15")
	values.Set("shift", "A")
	values.Set("verdict", "REJECTED")

	f := samples.FiltersFromQuery(values)

	if f.Date == nil || *f.Date != "2026-03-15" {
		t.Errorf("Date = %v, want 2026-03-15", f.Date)
	}
	if f.Shift == nil || *f.Shift != "A" {
		t.Errorf("Shift = %v, want A", f.Shift)
	}
	if f.Verdict == nil || *f.Verdict != "REJECTED" {
		t.Errorf("Verdict = %v, want REJECTED", f.Verdict)
	}
	if f.Line != nil {
		t.Errorf("Line = %v, want nil", f.Line)
	}
	if f.Product != nil {
		t.Errorf("Product = %v, want nil", f.Product)
	}
}

func TestFiltersFromQueryEmpty(t *testing.T) {
	f := samples.FiltersFromQuery(url.Values{})
	if f.Date != nil || f.Shift != nil || f.Line != nil || f.Product != nil || f.Verdict != nil {
		t.Errorf("empty query produced non-empty filters: %+v", f)
	}
}

func TestDriftReportClean(t *testing.T) {
	clean := samples.DriftReport{CheckedResults: 10, CheckedSamples: 4}
	if !clean.Clean() {
		t.Error("report with no entries: Clean() = false, want true")
	}

	dirty := samples.DriftReport{
		Entries: []samples.DriftEntry{{
			Kind:     samples.KindPoint,
			SampleID: uuid.New(),
			Stored:   classify.VerdictApproved,
			Derived:  classify.VerdictRejected,
		}},
	}
	if dirty.Clean() {
		t.Error("report with entries: Clean() = true, want false")
	}
}
