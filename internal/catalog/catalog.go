// Package catalog implements the reference data for the QC system: products,
// measurable properties, analysis types, the property set captured per analysis
// type, and the per-(product, property) specifications with append-only history.
package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/internal/classify"
)

// Property categories.
const (
	CategoryPhysical     = "PHYSICAL"
	CategoryChemical     = "CHEMICAL"
	CategoryGranulometry = "GRANULOMETRY"
	CategoryMineralogy   = "MINERALOGY"
)

// Property data types.
const (
	DataTypeDecimal = "DECIMAL"
	DataTypeInteger = "INTEGER"
	DataTypeText    = "TEXT"
	DataTypeBoolean = "BOOLEAN"
)

// Analysis type codes.
const (
	AnalysisPoint     = "POINT"
	AnalysisComposite = "COMPOSITE"
)

// Product is a sellable vermiculite product line.
type Product struct {
	ID           uuid.UUID `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Active       bool      `json:"active"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Property is a measurable laboratory property, e.g. UMIDADE or TEOR_VERM.
// Precision is the declared number of fractional digits for reporting.
type Property struct {
	ID           uuid.UUID `json:"id"`
	Identifier   string    `json:"identifier"`
	Name         string    `json:"name"`
	Unit         string    `json:"unit"`
	Category     string    `json:"category"`
	DataType     string    `json:"data_type"`
	Precision    int       `json:"precision"`
	Active       bool      `json:"active"`
	DisplayOrder int       `json:"display_order"`
}

// AnalysisType describes a kind of sample collection during a shift.
type AnalysisType struct {
	ID                uuid.UUID `json:"id"`
	Code              string    `json:"code"`
	Name              string    `json:"name"`
	FrequencyPerShift int       `json:"frequency_per_shift"`
	Active            bool      `json:"active"`
}

// AnalysisProperty is a Property as captured by a specific analysis type,
// carrying the binding's required flag and display order.
type AnalysisProperty struct {
	Property
	Required bool `json:"required"`
}

// Specification binds acceptance limits to a (product, property) pair.
// At most one row per pair is active; superseded rows remain for history so
// historical results keep the snapshot they were classified against.
type Specification struct {
	ID         uuid.UUID        `json:"id"`
	ProductID  uuid.UUID        `json:"product_id"`
	PropertyID uuid.UUID        `json:"property_id"`
	LSL        *decimal.Decimal `json:"lsl,omitempty"`
	LowerWarn  *decimal.Decimal `json:"lower_warn,omitempty"`
	Target     *decimal.Decimal `json:"target,omitempty"`
	UpperWarn  *decimal.Decimal `json:"upper_warn,omitempty"`
	USL        *decimal.Decimal `json:"usl,omitempty"`
	Active     bool             `json:"active"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Limits returns the classification snapshot for this specification.
func (s *Specification) Limits() *classify.Limits {
	if s == nil {
		return nil
	}
	return &classify.Limits{
		LSL:       s.LSL,
		LowerWarn: s.LowerWarn,
		UpperWarn: s.UpperWarn,
		USL:       s.USL,
		Active:    s.Active,
	}
}

// ProductCommand carries the data for creating or updating a product.
type ProductCommand struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Active       *bool  `json:"active,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

// PropertyCommand carries the data for creating or updating a property.
type PropertyCommand struct {
	Identifier   string `json:"identifier"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	Category     string `json:"category"`
	DataType     string `json:"data_type"`
	Precision    int    `json:"precision"`
	Active       *bool  `json:"active,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

// SpecCommand carries the data for replacing the active specification of a
// (product, property) pair. Bounds are decimal strings; both "," and "." are
// accepted as the decimal separator. Empty strings mean the bound is absent.
type SpecCommand struct {
	ProductCode        string `json:"product_code"`
	PropertyIdentifier string `json:"property_identifier"`
	LSL                string `json:"lsl,omitempty"`
	LowerWarn          string `json:"lower_warn,omitempty"`
	Target             string `json:"target,omitempty"`
	UpperWarn          string `json:"upper_warn,omitempty"`
	USL                string `json:"usl,omitempty"`
}
