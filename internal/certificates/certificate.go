// Package certificates implements the quality certificate lifecycle: draft
// assembly over a sample range, review, monotonic numbering at approval, and
// issuance of the rendered PDF artifact.
package certificates

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/internal/classify"
	"github.com/vermlab/laudo/internal/samples"
)

// Type categorizes what a certificate covers.
type Type string

const (
	TypeComposite Type = "COMPOSITE"
	TypeBatch     Type = "BATCH"
	TypeShift     Type = "SHIFT"
	TypeCustom    Type = "CUSTOM"
)

// ParseType validates a certificate type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeComposite, TypeBatch, TypeShift, TypeCustom:
		return Type(s), nil
	}
	return "", ErrInvalidType
}

// Status is the certificate lifecycle state.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Editable reports whether the certificate's fields and sample set may change.
func (s Status) Editable() bool {
	switch s {
	case StatusDraft, StatusPending, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusCancelled
}

// Certificate binds a set of samples to a customer shipment. ReportNumber is
// nil until approval, after which the certificate and its cited samples are
// immutable. PDFKey references the rendered artifact in blob storage.
type Certificate struct {
	ID               uuid.UUID        `json:"id"`
	ReportNumber     *string          `json:"report_number,omitempty"`
	Type             Type             `json:"type"`
	Status           Status           `json:"status"`
	ProductID        uuid.UUID        `json:"product_id"`
	ProductCode      string           `json:"product_code"`
	ProductName      string           `json:"product_name"`
	ProductionLine   string           `json:"production_line"`
	StartDate        time.Time        `json:"start_date"`
	EndDate          time.Time        `json:"end_date"`
	CustomerName     string           `json:"customer_name,omitempty"`
	CustomerDocument string           `json:"customer_document,omitempty"`
	Destination      string           `json:"destination,omitempty"`
	BatchNumber      string           `json:"batch_number,omitempty"`
	Quantity         *decimal.Decimal `json:"quantity,omitempty"`
	Observations     string           `json:"observations,omitempty"`
	CreatedBy        string           `json:"created_by"`
	ApprovedBy       *string          `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time       `json:"approved_at,omitempty"`
	PDFKey           *string          `json:"-"`
	Samples          []SampleRef      `json:"samples,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// SampleRef cites a sample by kind and id.
type SampleRef struct {
	Kind samples.Kind `json:"kind"`
	ID   uuid.UUID    `json:"id"`
}

// CreateCommand carries the data for drafting a certificate. Dates are
// "2006-01-02"; the sample set is auto-populated from (product, line, range).
type CreateCommand struct {
	Type             string `json:"type"`
	ProductCode      string `json:"product"`
	ProductionLine   string `json:"line"`
	StartDate        string `json:"start_date"`
	EndDate          string `json:"end_date"`
	CustomerName     string `json:"customer_name,omitempty"`
	CustomerDocument string `json:"customer_document,omitempty"`
	Destination      string `json:"destination,omitempty"`
	BatchNumber      string `json:"batch_number,omitempty"`
	Quantity         string `json:"quantity,omitempty"`
	Observations     string `json:"observations,omitempty"`
	CreatedBy        string `json:"-"`
}

// UpdateCommand edits customer and shipment metadata. Editing a REJECTED
// certificate returns it to DRAFT.
type UpdateCommand struct {
	CustomerName     string `json:"customer_name,omitempty"`
	CustomerDocument string `json:"customer_document,omitempty"`
	Destination      string `json:"destination,omitempty"`
	BatchNumber      string `json:"batch_number,omitempty"`
	Quantity         string `json:"quantity,omitempty"`
	Observations     string `json:"observations,omitempty"`
}

// SetSamplesCommand replaces the cited sample set. Only narrowing within the
// certificate's range is expected; the command is validated against existing
// bindings.
type SetSamplesCommand struct {
	Samples []SampleRef `json:"samples"`
}

// RejectCommand carries the reviewer's reason.
type RejectCommand struct {
	Reason string `json:"reason,omitempty"`
}

// View is the structured model handed to the PDF renderer.
type View struct {
	ReportNumber string
	Type         Type
	ProductCode  string
	ProductName  string
	Line         string
	StartDate    time.Time
	EndDate      time.Time
	Customer     string
	Document     string
	Destination  string
	BatchNumber  string
	Quantity     *decimal.Decimal
	Observations string
	ApprovedBy   string
	ApprovedAt   time.Time
	CreatedBy    string
	Rows         []ViewRow
}

// ViewRow is one property line in the results and conformance tables.
type ViewRow struct {
	Property  string
	Unit      string
	Method    string
	Precision int
	Value     decimal.Decimal
	LSL       *decimal.Decimal
	USL       *decimal.Decimal
	Verdict   classify.Verdict
}

// Renderer produces the certificate PDF artifact.
type Renderer interface {
	RenderCertificate(ctx context.Context, view View) ([]byte, error)
}
