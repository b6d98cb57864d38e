// Package infrastructure assembles the shared systems every domain module
// depends on: lifecycle, logger, Postgres pool, and blob store.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/document-manager/internal/config"
	"github.com/JaimeStill/document-manager/internal/migrations"
	"github.com/JaimeStill/document-manager/pkg/database"
	"github.com/JaimeStill/document-manager/pkg/lifecycle"
	"github.com/JaimeStill/document-manager/pkg/logging"
	"github.com/JaimeStill/document-manager/pkg/storage"
)

// Infrastructure is built once per process and handed to each module.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

type starter interface {
	Start(lc *lifecycle.Coordinator) error
}

// New opens the database pool and blob store without contacting either.
// Connectivity and migrations happen in the startup hooks registered by Start.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := logging.New(&cfg.Logging)

	db, err := database.New(&cfg.Database, migrations.FS, logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	blobs, err := storage.New(context.Background(), &cfg.Storage, logger)
	if err != nil {
		db.Connection().Close()
		return nil, fmt.Errorf("storage %s: %w", cfg.Storage.Backend, err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   blobs,
	}, nil
}

// Start registers the database and blob store hooks, in that order.
func (i *Infrastructure) Start() error {
	systems := []struct {
		name string
		sys  starter
	}{
		{"database", i.Database},
		{"storage", i.Storage},
	}

	for _, s := range systems {
		if err := s.sys.Start(i.Lifecycle); err != nil {
			return fmt.Errorf("start %s: %w", s.name, err)
		}
	}
	return nil
}
