// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/vermlab/laudo/internal/config"
	"github.com/vermlab/laudo/internal/infrastructure"
	"github.com/vermlab/laudo/pkg/middleware"
	"github.com/vermlab/laudo/pkg/module"
	"github.com/vermlab/laudo/pkg/routes"
)

// NewModule creates the API module with all domain handlers and middleware,
// plus the unauthenticated public module for token-gated views.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	publicMux := http.NewServeMux()
	routes.Register(publicMux, domain.Orders.Handler().PublicRoutes()...)

	public := module.New("/public", publicMux)
	public.Use(middleware.Logger(runtime.Logger.With("module", "public")))

	return m, public, nil
}
