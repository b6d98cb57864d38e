// Package maintenance runs scheduled housekeeping jobs against blob storage.
package maintenance

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/JaimeStill/document-manager/pkg/lifecycle"
)

// Scheduler runs the sweep on a cron schedule for the life of the process.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *Sweeper
	logger  *slog.Logger
	ctx     context.Context
}

// NewScheduler registers sweeper under cfg.Schedule.
func NewScheduler(cfg *Config, sweeper *Sweeper, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper: sweeper,
		logger:  logger.With("system", "maintenance"),
		ctx:     context.Background(),
	}

	if _, err := s.cron.AddFunc(cfg.Schedule, s.run); err != nil {
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}
	return s, nil
}

// Start begins scheduling on startup and stops the cron runner on shutdown,
// waiting for an in-flight sweep to finish.
func (s *Scheduler) Start(lc *lifecycle.Coordinator) error {
	s.ctx = lc.Context()

	lc.OnStartup(func() {
		s.cron.Start()
		s.logger.Info("maintenance scheduler started", "jobs", len(s.cron.Entries()))
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		<-s.cron.Stop().Done()
		s.logger.Info("maintenance scheduler stopped")
	})

	return nil
}

func (s *Scheduler) run() {
	result, err := s.sweeper.Sweep(s.ctx)
	if err != nil {
		s.logger.Error("orphan sweep failed", "error", err)
		return
	}
	s.logger.Info("orphan sweep complete",
		"scanned", result.Scanned,
		"skipped", result.Skipped,
		"deleted", result.Deleted,
		"failed", result.Failed,
	)
}
