package api

import (
	"github.com/vermlab/laudo/internal/config"
	"github.com/vermlab/laudo/internal/dashboard"
	"github.com/vermlab/laudo/internal/infrastructure"
	"github.com/vermlab/laudo/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination    pagination.Config
	Clock         dashboard.Clock
	PublicBaseURL string
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Database:  infra.Database,
			Storage:   infra.Storage,
			Metrics:   infra.Metrics,
		},
		Pagination: cfg.API.Pagination,
		Clock: dashboard.Clock{
			Location: cfg.Plant.Location(),
			DayStart: cfg.Plant.ShiftStart,
			DayEnd:   cfg.Plant.ShiftEnd,
		},
		PublicBaseURL: cfg.API.PublicBaseURL,
	}
}
