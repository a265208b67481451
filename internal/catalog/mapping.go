package catalog

import (
	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/pkg/query"
	"github.com/vermlab/laudo/pkg/repository"
)

var productProjection = query.
	NewProjectionMap("public", "products", "p").
	Project("id", "ID").
	Project("code", "Code").
	Project("name", "Name").
	Project("active", "Active").
	Project("display_order", "DisplayOrder").
	Project("created_at", "CreatedAt").
	Project("updated_at", "UpdatedAt")

var productSort = query.SortField{Field: "DisplayOrder"}

var propertyProjection = query.
	NewProjectionMap("public", "properties", "pr").
	Project("id", "ID").
	Project("identifier", "Identifier").
	Project("name", "Name").
	Project("unit", "Unit").
	Project("category", "Category").
	Project("data_type", "DataType").
	Project("precision", "Precision").
	Project("active", "Active").
	Project("display_order", "DisplayOrder")

var propertySort = query.SortField{Field: "DisplayOrder"}

var analysisTypeProjection = query.
	NewProjectionMap("public", "analysis_types", "at").
	Project("id", "ID").
	Project("code", "Code").
	Project("name", "Name").
	Project("frequency_per_shift", "FrequencyPerShift").
	Project("active", "Active")

var specProjection = query.
	NewProjectionMap("public", "specifications", "s").
	Project("id", "ID").
	Project("product_id", "ProductID").
	Project("property_id", "PropertyID").
	Project("lsl", "LSL").
	Project("lower_warn", "LowerWarn").
	Project("target", "Target").
	Project("upper_warn", "UpperWarn").
	Project("usl", "USL").
	Project("active", "Active").
	Project("created_at", "CreatedAt")

func scanProduct(s repository.Scanner) (Product, error) {
	var p Product
	err := s.Scan(
		&p.ID,
		&p.Code,
		&p.Name,
		&p.Active,
		&p.DisplayOrder,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

func scanProperty(s repository.Scanner) (Property, error) {
	var p Property
	err := s.Scan(
		&p.ID,
		&p.Identifier,
		&p.Name,
		&p.Unit,
		&p.Category,
		&p.DataType,
		&p.Precision,
		&p.Active,
		&p.DisplayOrder,
	)
	return p, err
}

func scanAnalysisType(s repository.Scanner) (AnalysisType, error) {
	var a AnalysisType
	err := s.Scan(
		&a.ID,
		&a.Code,
		&a.Name,
		&a.FrequencyPerShift,
		&a.Active,
	)
	return a, err
}

func scanAnalysisProperty(s repository.Scanner) (AnalysisProperty, error) {
	var a AnalysisProperty
	err := s.Scan(
		&a.ID,
		&a.Identifier,
		&a.Name,
		&a.Unit,
		&a.Category,
		&a.DataType,
		&a.Precision,
		&a.Active,
		&a.DisplayOrder,
		&a.Required,
	)
	return a, err
}

func scanSpecification(s repository.Scanner) (Specification, error) {
	var (
		spec                               Specification
		lsl, lowerWarn, target, upperWarn, usl decimal.NullDecimal
	)
	err := s.Scan(
		&spec.ID,
		&spec.ProductID,
		&spec.PropertyID,
		&lsl,
		&lowerWarn,
		&target,
		&upperWarn,
		&usl,
		&spec.Active,
		&spec.CreatedAt,
	)
	spec.LSL = fromNull(lsl)
	spec.LowerWarn = fromNull(lowerWarn)
	spec.Target = fromNull(target)
	spec.UpperWarn = fromNull(upperWarn)
	spec.USL = fromNull(usl)
	return spec, err
}

func fromNull(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func toNull(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
