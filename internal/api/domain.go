package api

import (
	"github.com/vermlab/laudo/internal/catalog"
	"github.com/vermlab/laudo/internal/certificates"
	"github.com/vermlab/laudo/internal/dashboard"
	"github.com/vermlab/laudo/internal/importer"
	"github.com/vermlab/laudo/internal/orders"
	"github.com/vermlab/laudo/internal/render"
	"github.com/vermlab/laudo/internal/samples"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Catalog      catalog.System
	Samples      samples.System
	Dashboard    dashboard.System
	Certificates certificates.System
	Orders       orders.System
	Importer     importer.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	catalogSystem := catalog.New(db, runtime.Logger)

	sampleSystem := samples.New(
		db,
		runtime.Logger,
		runtime.Pagination,
		runtime.Metrics.ResultsClassified,
	)

	dashboardSystem := dashboard.New(sampleSystem, catalogSystem, runtime.Clock, runtime.Logger)

	certificateSystem := certificates.New(
		db,
		runtime.Logger,
		runtime.Pagination,
		runtime.Storage,
		render.NewPDF(runtime.Logger),
		runtime.Metrics.CertificatesApproved,
	)

	orderSystem := orders.New(
		db,
		runtime.Logger,
		runtime.Pagination,
		runtime.Storage,
		render.NewQR(),
		runtime.PublicBaseURL,
	)

	importerSystem := importer.New(catalogSystem, sampleSystem, runtime.Logger)

	return &Domain{
		Catalog:      catalogSystem,
		Samples:      sampleSystem,
		Dashboard:    dashboardSystem,
		Certificates: certificateSystem,
		Orders:       orderSystem,
		Importer:     importerSystem,
	}
}
