package api

import (
	"github.com/JaimeStill/document-manager/internal/auth"
	"github.com/JaimeStill/document-manager/internal/config"
	"github.com/JaimeStill/document-manager/internal/infrastructure"
	"github.com/JaimeStill/document-manager/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination    pagination.Config
	MaxUploadSize int64
	Auth          *auth.Authenticator
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	logger := infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
		},
		Pagination:    cfg.API.Pagination,
		MaxUploadSize: cfg.Storage.MaxUploadSizeBytes(),
		Auth:          auth.New(&cfg.Auth, logger),
	}
}
