package api

import (
	"github.com/compliance-sentinel/sentinel/internal/config"
	"github.com/compliance-sentinel/sentinel/internal/infrastructure"
	"github.com/compliance-sentinel/sentinel/pkg/pagination"
)

// Runtime is the infrastructure handle the API module works against,
// narrowed with API-level settings.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
}

// NewRuntime rescopes the shared infrastructure under a module-tagged
// logger and attaches the pagination limits handlers need.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
	}
}
