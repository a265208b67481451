package orders

import (
	"database/sql"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vermlab/laudo/pkg/query"
	"github.com/vermlab/laudo/pkg/repository"
)

func orderProjection() *query.ProjectionMap {
	return query.NewProjectionMap("public", "loading_orders", "o").
		Project("id", "ID").
		Project("order_number", "OrderNumber").
		Project("certificate_id", "CertificateID").
		Project("carrier", "Carrier").
		Project("vehicle_plate", "VehiclePlate").
		Project("driver_name", "DriverName").
		Project("destination", "Destination").
		Project("quantity", "Quantity").
		Project("status", "Status").
		Project("scheduled_at", "ScheduledAt").
		Project("started_at", "StartedAt").
		Project("completed_at", "CompletedAt").
		Project("public_token", "PublicToken").
		Project("qr_key", "QRKey").
		Project("created_at", "CreatedAt").
		Project("updated_at", "UpdatedAt").
		Join("public", "certificates", "c", "JOIN", "o.certificate_id = c.id").
		Project("report_number", "ReportNumber").
		Join("public", "products", "p", "JOIN", "c.product_id = p.id").
		Project("name", "ProductName")
}

var defaultOrderSort = []query.SortField{
	{Field: "ScheduledAt", Descending: true},
}

// Filters contains optional filtering criteria for loading order queries.
type Filters struct {
	Status      *string `json:"status,omitempty"`
	Certificate *string `json:"certificate,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereEquals("CertificateID", f.Certificate)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}
	if c := values.Get("certificate"); c != "" {
		f.Certificate = &c
	}

	return f
}

func scanOrder(s repository.Scanner) (LoadingOrder, error) {
	var (
		o         LoadingOrder
		carrier   sql.NullString
		plate     sql.NullString
		driver    sql.NullString
		dest      sql.NullString
		quantity  decimal.NullDecimal
		started   sql.NullTime
		completed sql.NullTime
		qrKey     sql.NullString
		report    sql.NullString
	)
	err := s.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CertificateID,
		&carrier,
		&plate,
		&driver,
		&dest,
		&quantity,
		&o.Status,
		&o.ScheduledAt,
		&started,
		&completed,
		&o.PublicToken,
		&qrKey,
		&o.CreatedAt,
		&o.UpdatedAt,
		&report,
		&o.ProductName,
	)

	o.Carrier = carrier.String
	o.VehiclePlate = plate.String
	o.DriverName = driver.String
	o.Destination = dest.String
	o.ReportNumber = report.String
	o.StartedAt = fromNullTime(started)
	o.CompletedAt = fromNullTime(completed)
	if qrKey.Valid {
		k := qrKey.String
		o.QRKey = &k
	}
	if quantity.Valid {
		q := quantity.Decimal
		o.Quantity = &q
	}

	return o, err
}

func fromNullTime(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
