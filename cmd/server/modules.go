package main

import (
	"encoding/json"
	"net/http"

	"github.com/compliance-sentinel/sentinel/internal/api"
	"github.com/compliance-sentinel/sentinel/internal/config"
	"github.com/compliance-sentinel/sentinel/internal/infrastructure"
	"github.com/compliance-sentinel/sentinel/pkg/module"
)

// Modules holds the mounted API module and the domain systems behind it.
// The domain handle gives the retention sweeper direct access to audits.
type Modules struct {
	API    *module.Module
	Domain *api.Domain
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, domain, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}
	return &Modules{API: apiModule, Domain: domain}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()
	router.HandleNative("GET /healthz", probe(func() bool { return true }))
	router.HandleNative("GET /readyz", probe(infra.Lifecycle.Ready))
	return router
}

// probe renders a JSON health endpoint from a readiness predicate.
func probe(ready func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}
