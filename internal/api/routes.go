package api

import (
	"net/http"

	"github.com/vermlab/laudo/pkg/routes"
)

func registerRoutes(mux *http.ServeMux, domain *Domain) {
	routes.Register(mux, domain.Catalog.Handler().Routes()...)
	routes.Register(mux, domain.Samples.Handler().Routes()...)
	routes.Register(mux, domain.Dashboard.Handler().Routes()...)
	routes.Register(mux, domain.Certificates.Handler().Routes()...)
	routes.Register(mux, domain.Orders.Handler().Routes()...)
	routes.Register(mux, domain.Importer.Handler().Routes()...)
}
