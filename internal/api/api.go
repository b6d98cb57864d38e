// Package api assembles the document API module: domain systems, routes,
// the authenticated middleware chain, and background maintenance.
package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/document-manager/internal/config"
	"github.com/JaimeStill/document-manager/internal/infrastructure"
	"github.com/JaimeStill/document-manager/internal/maintenance"
	"github.com/JaimeStill/document-manager/pkg/middleware"
	"github.com/JaimeStill/document-manager/pkg/module"
)

// blobPrefix is the storage prefix under which document files are written.
const blobPrefix = "files/"

// NewModule builds the API module mounted at cfg.API.BasePath.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime)

	if err := startMaintenance(cfg, runtime, domain); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, runtime, domain)

	protected := middleware.New()
	protected.Use(runtime.Auth.Middleware())

	m := module.New(cfg.API.BasePath, protected.Apply(mux))
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}

func startMaintenance(cfg *config.Config, runtime *Runtime, domain *Domain) error {
	if !cfg.Maintenance.IsEnabled() {
		runtime.Logger.Info("maintenance disabled")
		return nil
	}

	sweeper := maintenance.NewSweeper(
		runtime.Storage,
		domain.Documents,
		blobPrefix,
		cfg.Maintenance.GracePeriodDuration(),
		runtime.Logger,
	)

	scheduler, err := maintenance.NewScheduler(&cfg.Maintenance, sweeper, runtime.Logger)
	if err != nil {
		return fmt.Errorf("maintenance init failed: %w", err)
	}
	return scheduler.Start(runtime.Lifecycle)
}
