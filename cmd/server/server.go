package main

import (
	"time"

	"github.com/compliance-sentinel/sentinel/internal/config"
	"github.com/compliance-sentinel/sentinel/internal/infrastructure"
	"github.com/compliance-sentinel/sentinel/pkg/lifecycle"
)

// Server ties the infrastructure, domain modules, retention sweeper, and
// HTTP front end into one runnable unit.
type Server struct {
	infra     *infrastructure.Infrastructure
	retention *retentionRunner
	web       *httpServer
}

func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	mods, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	mods.Mount(router)

	infra.Logger.Info("server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
	)

	return &Server{
		infra:     infra,
		retention: newRetentionRunner(&cfg.Retention, mods.Domain.Audits, infra.Logger),
		web:       newHTTPServer(&cfg.Server, router, infra.Logger),
	}, nil
}

// Start brings up the backing systems, then the retention sweeper, then the
// HTTP listener. Readiness is reported once every subsystem signals startup.
func (s *Server) Start() error {
	s.infra.Logger.Info("starting service")

	if err := s.infra.Start(); err != nil {
		return err
	}

	starters := []func(*lifecycle.Coordinator) error{
		s.retention.Start,
		s.web.Start,
	}
	for _, start := range starters {
		if err := start(s.infra.Lifecycle); err != nil {
			return err
		}
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("all subsystems ready")
	}()

	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("shutting down")
	return s.infra.Lifecycle.Shutdown(timeout)
}
