package certificates

import (
	"database/sql"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/pkg/query"
	"github.com/vermlab/laudo/pkg/repository"
)

func certificateProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "certificates", "c").
		Project("id", "ID").
		Project("report_number", "ReportNumber").
		Project("type", "Type").
		Project("status", "Status").
		Project("product_id", "ProductID").
		Project("production_line", "ProductionLine").
		Project("start_date", "StartDate").
		Project("end_date", "EndDate").
		Project("customer_name", "CustomerName").
		Project("customer_document", "CustomerDocument").
		Project("destination", "Destination").
		Project("batch_number", "BatchNumber").
		Project("quantity", "Quantity").
		Project("observations", "Observations").
		Project("created_by", "CreatedBy").
		Project("approved_by", "ApprovedBy").
		Project("approved_at", "ApprovedAt").
		Project("pdf_key", "PDFKey").
		Project("created_at", "CreatedAt").
		Project("updated_at", "UpdatedAt").
		Join("public", "products", "p", "JOIN", "c.product_id = p.id").
		Project("code", "ProductCode").
		Project("name", "ProductName")
}

var defaultCertificateSort = []query.SortField{
	{Field: "CreatedAt", Descending: true},
}

// Filters contains optional filtering criteria for certificate queries.
type Filters struct {
	Status  *string `json:"status,omitempty"`
	Type    *string `json:"type,omitempty"`
	Product *string `json:"product,omitempty"`
	Line    *string `json:"line,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("Type", f.Type).
		WhereEquals("ProductCode", f.Product).
		WhereEquals("ProductionLine", f.Line)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	if t := values.Get("type"); t != "" {
		f.Type = &t
	}
	if p := values.Get("product"); p != "" {
		f.Product = &p
	}
	if l := values.Get("line"); l != "" {
		f.Line = &l
	}

	return f
}

func scanCertificate(s repository.Scanner) (Certificate, error) {
	var (
		c          Certificate
		number     sql.NullString
		customer   sql.NullString
		document   sql.NullString
		dest       sql.NullString
		batch      sql.NullString
		quantity   decimal.NullDecimal
		obs        sql.NullString
		approvedBy sql.NullString
		approvedAt sql.NullTime
		pdfKey     sql.NullString
	)
	err := s.Scan(
		&c.ID,
		&number,
		&c.Type,
		&c.Status,
		&c.ProductID,
		&c.ProductionLine,
		&c.StartDate,
		&c.EndDate,
		&customer,
		&document,
		&dest,
		&batch,
		&quantity,
		&obs,
		&c.CreatedBy,
		&approvedBy,
		&approvedAt,
		&pdfKey,
		&c.CreatedAt,
		&c.UpdatedAt,
		&c.ProductCode,
		&c.ProductName,
	)

	c.ReportNumber = fromNullString(number)
	c.CustomerName = customer.String
	c.CustomerDocument = document.String
	c.Destination = dest.String
	c.BatchNumber = batch.String
	c.Observations = obs.String
	c.ApprovedBy = fromNullString(approvedBy)
	c.ApprovedAt = fromNullTime(approvedAt)
	c.PDFKey = fromNullString(pdfKey)
	if quantity.Valid {
		q := quantity.Decimal
		c.Quantity = &q
	}

	return c, err
}

func scanSampleRef(s repository.Scanner) (SampleRef, error) {
	var ref SampleRef
	err := s.Scan(&ref.Kind, &ref.ID)
	return ref, err
}

func fromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func fromNullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
