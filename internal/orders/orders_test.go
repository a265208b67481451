package orders_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/internal/orders"
)

func TestStatusTerminal(t *testing.T) {
	terminal := []orders.Status{orders.StatusCompleted, orders.StatusCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s.Terminal() = false, want true", s)
		}
	}

	open := []orders.Status{orders.StatusPending, orders.StatusInProgress}
	for _, s := range open {
		if s.Terminal() {
			t.Errorf("%s.Terminal() = true, want false", s)
		}
	}
}

func TestPublicViewRedaction(t *testing.T) {
	quantity := decimal.RequireFromString("28.5")
	order := orders.LoadingOrder{
		ID:            uuid.New(),
		OrderNumber:   "OC2026030007",
		CertificateID: uuid.New(),
		ReportNumber:  "CQ2026030012",
		ProductName:   "Expanded Vermiculite Fine",
		Carrier:       "Transportes Silva",
		VehiclePlate:  "ABC1D23",
		DriverName:    "J. Pereira",
		Destination:   "Curitiba",
		Quantity:      &quantity,
		Status:        orders.StatusInProgress,
		ScheduledAt:   time.Now(),
		PublicToken:   "secret-token",
	}

	body, err := json.Marshal(order.Public())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}

	want := []string{"order_number", "product_name", "quantity", "report_number", "status"}
	if len(fields) != len(want) {
		t.Errorf("public view has %d fields %v, want only %v", len(fields), fields, want)
	}
	for _, key := range want {
		if _, ok := fields[key]; !ok {
			t.Errorf("public view missing %q", key)
		}
	}

	// Carrier, driver, plate and the token itself must never leak.
	for _, key := range []string{"carrier", "driver_name", "vehicle_plate", "public_token", "id", "certificate_id"} {
		if _, ok := fields[key]; ok {
			t.Errorf("public view leaks %q", key)
		}
	}
}

func TestPublicTokenNeverSerialized(t *testing.T) {
	order := orders.LoadingOrder{
		OrderNumber: "OC2026030001",
		PublicToken: "secret-token",
		Status:      orders.StatusPending,
	}

	body, err := json.Marshal(order)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if _, ok := fields["public_token"]; ok {
		t.Error("LoadingOrder JSON exposes public_token")
	}
	for _, v := range fields {
		if s, ok := v.(string); ok && s == "secret-token" {
			t.Error("LoadingOrder JSON contains the token value")
		}
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{orders.ErrNotFound, http.StatusNotFound},
		{orders.ErrInvalidQuantity, http.StatusBadRequest},
		{orders.ErrInvalidSchedule, http.StatusBadRequest},
		{orders.ErrDuplicate, http.StatusConflict},
		{orders.ErrCertificateNotApproved, http.StatusUnprocessableEntity},
		{orders.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{orders.ErrNumberContended, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := orders.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
