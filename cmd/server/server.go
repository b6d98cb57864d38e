package main

import (
	"time"

	"github.com/JaimeStill/document-manager/internal/config"
	"github.com/JaimeStill/document-manager/internal/infrastructure"
)

// Server owns the infrastructure, the mounted modules, and the HTTP listener.
type Server struct {
	infra   *infrastructure.Infrastructure
	modules *Modules
	http    *httpServer
}

// NewServer wires every system from cfg. Nothing listens or connects until Start.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	s := &Server{
		infra:   infra,
		modules: modules,
		http:    newHTTPServer(&cfg.Server, router, infra.Logger),
	}

	infra.Logger.Info("server initialized",
		"addr", cfg.Server.Addr(),
		"env", cfg.Env(),
		"storage", cfg.Storage.Backend,
		"api", modules.API.Prefix(),
	)
	return s, nil
}

// Start registers lifecycle hooks and begins listening. Readiness is
// reported asynchronously once every startup hook has returned.
func (s *Server) Start() error {
	began := time.Now()

	if err := s.infra.Start(); err != nil {
		return err
	}
	if err := s.http.Start(s.infra.Lifecycle); err != nil {
		return err
	}

	go func() {
		s.infra.Lifecycle.WaitForStartup()
		s.infra.Logger.Info("server ready", "startup", time.Since(began).Round(time.Millisecond))
	}()
	return nil
}

func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("shutting down", "timeout", timeout)
	return s.infra.Lifecycle.Shutdown(timeout)
}
