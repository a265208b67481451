// Package samples implements the sample store: point samples taken during a
// shift, composite samples sealed at shift end, their per-property results,
// and the verdict caches derived from the classification rule.
package samples

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/internal/classify"
)

// Kind distinguishes the two sample tables.
type Kind string

const (
	KindPoint     Kind = "POINT"
	KindComposite Kind = "COMPOSITE"
)

// Shift identifies one of the two 12-hour production shifts.
type Shift string

const (
	ShiftA Shift = "A"
	ShiftB Shift = "B"
)

// ParseShift validates a shift letter.
func ParseShift(s string) (Shift, error) {
	switch Shift(s) {
	case ShiftA, ShiftB:
		return Shift(s), nil
	}
	return "", ErrInvalidShift
}

// Sample is a point or composite sample. QuantityProduced and Sealed are only
// meaningful for composites. Verdict is a cache of the rollup over the sample's
// results; FrozenBy is set when an approved certificate cites the sample, after
// which results may no longer change.
type Sample struct {
	ID               uuid.UUID        `json:"id"`
	Kind             Kind             `json:"kind"`
	Date             time.Time        `json:"date"`
	Shift            Shift            `json:"shift"`
	ProductionLine   string           `json:"production_line"`
	ProductID        uuid.UUID        `json:"product_id"`
	ProductCode      string           `json:"product_code"`
	ProductName      string           `json:"product_name"`
	Sequence         int              `json:"sequence"`
	SampleTime       string           `json:"sample_time"`
	Operator         string           `json:"operator"`
	Observations     string           `json:"observations,omitempty"`
	Verdict          classify.Verdict `json:"verdict"`
	QuantityProduced *decimal.Decimal `json:"quantity_produced,omitempty"`
	Sealed           bool             `json:"sealed,omitempty"`
	FrozenBy         *uuid.UUID       `json:"frozen_by_certificate_id,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// Result is one property measurement inside a sample. SpecificationID snapshots
// the specification row the verdict was derived from; nil means no active
// specification covered the property at entry time.
type Result struct {
	ID                 uuid.UUID        `json:"id"`
	SampleID           uuid.UUID        `json:"sample_id"`
	PropertyID         uuid.UUID        `json:"property_id"`
	PropertyIdentifier string           `json:"property"`
	PropertyName       string           `json:"property_name"`
	DisplayOrder       int              `json:"display_order"`
	Precision          int              `json:"precision"`
	Value              decimal.Decimal  `json:"value"`
	Unit               string           `json:"unit"`
	TestMethod         string           `json:"test_method,omitempty"`
	SpecificationID    *uuid.UUID       `json:"specification_id,omitempty"`
	Verdict            classify.Verdict `json:"verdict"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// CreateCommand carries the data for creating a sample. Date is "2006-01-02",
// Time is "15:04". QuantityProduced applies to composites only and accepts
// both decimal separators.
type CreateCommand struct {
	Date             string `json:"date"`
	Shift            string `json:"shift"`
	ProductionLine   string `json:"line"`
	ProductCode      string `json:"product"`
	Sequence         int    `json:"sequence"`
	Time             string `json:"time"`
	Operator         string `json:"-"`
	Observations     string `json:"observations,omitempty"`
	QuantityProduced string `json:"quantity_produced,omitempty"`
}

// ResultCommand carries one measurement. Value accepts both "," and "." as
// the decimal separator. VerdictOverride admits only ALERT and records a
// reviewer's manual flag on an otherwise approved value.
type ResultCommand struct {
	PropertyIdentifier string `json:"property"`
	Value              string `json:"value"`
	Unit               string `json:"unit,omitempty"`
	TestMethod         string `json:"method,omitempty"`
	VerdictOverride    string `json:"verdict_override,omitempty"`
}

// DriftEntry reports one stored verdict that no longer matches the value
// derived from its snapshot.
type DriftEntry struct {
	Kind     Kind             `json:"kind"`
	SampleID uuid.UUID        `json:"sample_id"`
	ResultID *uuid.UUID       `json:"result_id,omitempty"`
	Property string           `json:"property,omitempty"`
	Stored   classify.Verdict `json:"stored"`
	Derived  classify.Verdict `json:"derived"`
}

// DriftReport is the outcome of a full verdict-cache consistency check.
type DriftReport struct {
	CheckedResults int          `json:"checked_results"`
	CheckedSamples int          `json:"checked_samples"`
	Entries        []DriftEntry `json:"entries"`
}

// Clean reports whether no drift was found.
func (r *DriftReport) Clean() bool {
	return len(r.Entries) == 0
}
