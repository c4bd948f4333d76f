// Package api wires the domain systems into a mountable HTTP module.
package api

import (
	"fmt"
	"net/http"

	"github.com/compliance-sentinel/sentinel/internal/config"
	"github.com/compliance-sentinel/sentinel/internal/infrastructure"
	"github.com/compliance-sentinel/sentinel/pkg/middleware"
	"github.com/compliance-sentinel/sentinel/pkg/module"
)

// NewModule builds the API module with every domain handler mounted under
// the configured base path. The Domain is returned alongside the module so
// the host can run background work (retention sweeps) against its systems.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *Domain, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	if err := domain.Start(runtime.Lifecycle); err != nil {
		return nil, nil, fmt.Errorf("domain start failed: %w", err)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	return m, domain, nil
}
