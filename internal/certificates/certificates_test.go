package certificates_test

import (
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vermlab/laudo/internal/certificates"
	"github.com/vermlab/laudo/pkg/pagination"
	"github.com/vermlab/laudo/pkg/routes"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		kind    certificates.SequenceKind
		year    int
		month   int
		counter int
		want    string
	}{
		{certificates.SequenceReport, 2026, 3, 1, "CQ2026030001"},
		{certificates.SequenceReport, 2026, 12, 42, "CQ2026120042"},
		{certificates.SequenceOrder, 2026, 3, 1, "OC2026030001"},
		{certificates.SequenceOrder, 2026, 1, 9999, "OC2026019999"},
	}

	for _, tt := range tests {
		got := certificates.FormatNumber(tt.kind, tt.year, tt.month, tt.counter)
		if got != tt.want {
			t.Errorf("FormatNumber(%s, %d, %d, %d) = %s, want %s",
				tt.kind, tt.year, tt.month, tt.counter, got, tt.want)
		}
		if len(got) != 12 {
			t.Errorf("FormatNumber(%s, ...) length = %d, want 12", tt.kind, len(got))
		}
	}
}

func TestParseType(t *testing.T) {
	for _, valid := range []string{"COMPOSITE", "BATCH", "SHIFT", "CUSTOM"} {
		typ, err := certificates.ParseType(valid)
		if err != nil {
			t.Errorf("ParseType(%q) error: %v", valid, err)
		}
		if string(typ) != valid {
			t.Errorf("ParseType(%q) = %s", valid, typ)
		}
	}

	for _, invalid := range []string{"", "batch", "MONTHLY"} {
		if _, err := certificates.ParseType(invalid); !errors.Is(err, certificates.ErrInvalidType) {
			t.Errorf("ParseType(%q) error = %v, want ErrInvalidType", invalid, err)
		}
	}
}

func TestStatusEditable(t *testing.T) {
	editable := []certificates.Status{
		certificates.StatusDraft,
		certificates.StatusPending,
		certificates.StatusRejected,
	}
	for _, s := range editable {
		if !s.Editable() {
			t.Errorf("%s.Editable() = false, want true", s)
		}
	}

	frozen := []certificates.Status{
		certificates.StatusApproved,
		certificates.StatusCancelled,
	}
	for _, s := range frozen {
		if s.Editable() {
			t.Errorf("%s.Editable() = true, want false", s)
		}
	}
}

func TestStatusTerminal(t *testing.T) {
	if !certificates.StatusCancelled.Terminal() {
		t.Error("CANCELLED.Terminal() = false, want true")
	}
	for _, s := range []certificates.Status{
		certificates.StatusDraft,
		certificates.StatusPending,
		certificates.StatusApproved,
		certificates.StatusRejected,
	} {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
}

// Every pattern must be accepted by the enhanced ServeMux parser; a single
// malformed wildcard segment panics registration and takes the server down.
func TestRoutesRegister(t *testing.T) {
	handler := certificates.NewHandler(nil, slog.New(slog.DiscardHandler), pagination.Config{})

	mux := http.NewServeMux()
	routes.Register(mux, handler.Routes()...)

	req := httptest.NewRequest("GET", "/certificates/0b9c8f70-0000-0000-0000-000000000000/pdf", nil)
	if _, pattern := mux.Handler(req); pattern != "GET /certificates/{id}/pdf" {
		t.Errorf("pdf route pattern = %q, want GET /certificates/{id}/pdf", pattern)
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{certificates.ErrNotFound, http.StatusNotFound},
		{certificates.ErrInvalidType, http.StatusBadRequest},
		{certificates.ErrInvalidRange, http.StatusBadRequest},
		{certificates.ErrUnknownSample, http.StatusBadRequest},
		{certificates.ErrDuplicate, http.StatusConflict},
		{certificates.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{certificates.ErrImmutable, http.StatusUnprocessableEntity},
		{certificates.ErrSamplesNotApprovable, http.StatusUnprocessableEntity},
		{certificates.ErrNoSamples, http.StatusUnprocessableEntity},
		{certificates.ErrSeparationOfDuty, http.StatusUnprocessableEntity},
		{certificates.ErrNumberContended, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := certificates.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
