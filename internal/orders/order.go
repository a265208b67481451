// Package orders implements loading orders derived from approved
// certificates: numbering, the dispatch state machine, and the QR-coded
// public view.
package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is the loading order dispatch state.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// LoadingOrder is an operational dispatch document for an approved
// certificate. PublicToken backs the QR code and is the only credential for
// the public view.
type LoadingOrder struct {
	ID            uuid.UUID        `json:"id"`
	OrderNumber   string           `json:"order_number"`
	CertificateID uuid.UUID        `json:"certificate_id"`
	ReportNumber  string           `json:"report_number"`
	ProductName   string           `json:"product_name"`
	Carrier       string           `json:"carrier,omitempty"`
	VehiclePlate  string           `json:"vehicle_plate,omitempty"`
	DriverName    string           `json:"driver_name,omitempty"`
	Destination   string           `json:"destination,omitempty"`
	Quantity      *decimal.Decimal `json:"quantity,omitempty"`
	Status        Status           `json:"status"`
	ScheduledAt   time.Time        `json:"scheduled_at"`
	StartedAt     *time.Time       `json:"started_at,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	PublicToken   string           `json:"-"`
	QRKey         *string          `json:"-"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// CreateCommand carries the data for deriving a loading order from an
// approved certificate. ScheduledAt is RFC 3339; empty means now.
type CreateCommand struct {
	CertificateID uuid.UUID `json:"certificate_id"`
	Carrier       string    `json:"carrier,omitempty"`
	VehiclePlate  string    `json:"vehicle_plate,omitempty"`
	DriverName    string    `json:"driver_name,omitempty"`
	Destination   string    `json:"destination,omitempty"`
	Quantity      string    `json:"quantity,omitempty"`
	ScheduledAt   string    `json:"scheduled_at,omitempty"`
}

// PublicView is the redacted order representation served to token holders.
type PublicView struct {
	OrderNumber  string           `json:"order_number"`
	ProductName  string           `json:"product_name"`
	Quantity     *decimal.Decimal `json:"quantity,omitempty"`
	ReportNumber string           `json:"report_number"`
	Status       Status           `json:"status"`
}

// Public projects the order into its token-holder view.
func (o *LoadingOrder) Public() PublicView {
	return PublicView{
		OrderNumber:  o.OrderNumber,
		ProductName:  o.ProductName,
		Quantity:     o.Quantity,
		ReportNumber: o.ReportNumber,
		Status:       o.Status,
	}
}

// QRRenderer encodes a text payload into a PNG image of the given pixel size.
type QRRenderer interface {
	RenderQR(payload string, size int) ([]byte, error)
}
