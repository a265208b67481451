package samples

import (
	"net/url"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/pkg/query"
	"github.com/vermlab/laudo/pkg/repository"
)

type nullDecimal struct {
	decimal.NullDecimal
}

func (d nullDecimal) ptr() *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func tableFor(kind Kind) (table, alias, resultTable string) {
	if kind == KindComposite {
		return "composite_samples", "cs", "composite_results"
	}
	return "point_samples", "ps", "point_results"
}

func sampleProjection(kind Kind) *query.ProjectionMap {
	table, alias, _ := tableFor(kind)

	p := query.NewProjectionMap("public", table, alias).
		Project("id", "ID").
		Project("sample_date", "Date").
		Project("shift", "Shift").
		Project("production_line", "ProductionLine").
		Project("product_id", "ProductID").
		Project("sequence", "Sequence").
		Project("sample_time", "SampleTime").
		Project("operator", "Operator").
		Project("observations", "Observations").
		Project("verdict", "Verdict")

	if kind == KindComposite {
		p.Project("quantity_produced", "QuantityProduced").
			Project("sealed", "Sealed")
	}

	return p.
		Project("frozen_by_certificate_id", "FrozenBy").
		Project("created_at", "CreatedAt").
		Project("updated_at", "UpdatedAt").
		Join("public", "products", "p", "JOIN", alias+".product_id = p.id").
		Project("code", "ProductCode").
		Project("name", "ProductName")
}

var defaultSampleSort = []query.SortField{
	{Field: "Date", Descending: true},
	{Field: "Sequence", Descending: true},
	{Field: "SampleTime", Descending: true},
}

// Filters contains optional filtering criteria for sample queries.
// Nil fields are ignored. Date is "2006-01-02"; Product is the product code.
type Filters struct {
	Date    *string `json:"date,omitempty"`
	Shift   *string `json:"shift,omitempty"`
	Line    *string `json:"line,omitempty"`
	Product *string `json:"product,omitempty"`
	Verdict *string `json:"verdict,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Date", f.Date).
		WhereEquals("Shift", f.Shift).
		WhereEquals("ProductionLine", f.Line).
		WhereEquals("ProductCode", f.Product).
		WhereEquals("Verdict", f.Verdict)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if d := values.Get("date"); d != "" {
		f.Date = &d
	}
	if s := values.Get("shift"); s != "" {
		f.Shift = &s
	}
	if l := values.Get("line"); l != "" {
		f.Line = &l
	}
	if p := values.Get("product"); p != "" {
		f.Product = &p
	}
	if v := values.Get("verdict"); v != "" {
		f.Verdict = &v
	}

	return f
}

func scanPointSample(s repository.Scanner) (Sample, error) {
	var (
		smp    Sample
		frozen uuid.NullUUID
	)
	err := s.Scan(
		&smp.ID,
		&smp.Date,
		&smp.Shift,
		&smp.ProductionLine,
		&smp.ProductID,
		&smp.Sequence,
		&smp.SampleTime,
		&smp.Operator,
		&smp.Observations,
		&smp.Verdict,
		&frozen,
		&smp.CreatedAt,
		&smp.UpdatedAt,
		&smp.ProductCode,
		&smp.ProductName,
	)
	smp.Kind = KindPoint
	smp.FrozenBy = fromNullUUID(frozen)
	return smp, err
}

func scanCompositeSample(s repository.Scanner) (Sample, error) {
	var (
		smp      Sample
		frozen   uuid.NullUUID
		quantity nullDecimal
	)
	err := s.Scan(
		&smp.ID,
		&smp.Date,
		&smp.Shift,
		&smp.ProductionLine,
		&smp.ProductID,
		&smp.Sequence,
		&smp.SampleTime,
		&smp.Operator,
		&smp.Observations,
		&smp.Verdict,
		&quantity,
		&smp.Sealed,
		&frozen,
		&smp.CreatedAt,
		&smp.UpdatedAt,
		&smp.ProductCode,
		&smp.ProductName,
	)
	smp.Kind = KindComposite
	smp.FrozenBy = fromNullUUID(frozen)
	smp.QuantityProduced = quantity.ptr()
	return smp, err
}

func scanFor(kind Kind) repository.ScanFunc[Sample] {
	if kind == KindComposite {
		return scanCompositeSample
	}
	return scanPointSample
}

func scanResult(s repository.Scanner) (Result, error) {
	var (
		res  Result
		spec uuid.NullUUID
	)
	err := s.Scan(
		&res.ID,
		&res.SampleID,
		&res.PropertyID,
		&res.Value,
		&res.Unit,
		&res.TestMethod,
		&spec,
		&res.Verdict,
		&res.CreatedAt,
		&res.UpdatedAt,
		&res.PropertyIdentifier,
		&res.PropertyName,
		&res.DisplayOrder,
		&res.Precision,
	)
	res.SpecificationID = fromNullUUID(spec)
	return res, err
}

func fromNullUUID(u uuid.NullUUID) *uuid.UUID {
	if !u.Valid {
		return nil
	}
	v := u.UUID
	return &v
}
