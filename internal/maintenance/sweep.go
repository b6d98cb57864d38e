package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/document-manager/pkg/storage"
)

// References reports which of the given blob keys are still referenced by
// persisted records.
type References interface {
	ReferencedKeys(ctx context.Context, keys []string) (map[string]bool, error)
}

// SweepResult summarizes one sweep run.
type SweepResult struct {
	Scanned int
	Skipped int
	Deleted int
	Failed  int
}

// Sweeper deletes blobs under a prefix that no record references and that
// are older than the grace period. Younger blobs are left alone so uploads
// whose transaction has not committed yet survive.
type Sweeper struct {
	storage storage.System
	refs    References
	prefix  string
	grace   time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewSweeper creates a Sweeper for blobs stored under prefix.
func NewSweeper(store storage.System, refs References, prefix string, grace time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		storage: store,
		refs:    refs,
		prefix:  prefix,
		grace:   grace,
		logger:  logger.With("system", "maintenance"),
		now:     time.Now,
	}
}

// Sweep runs one pass. Individual delete failures are logged and counted;
// listing or lookup failures abort the pass.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	objects, err := s.storage.List(ctx, s.prefix)
	if err != nil {
		return result, fmt.Errorf("list blobs: %w", err)
	}
	result.Scanned = len(objects)

	cutoff := s.now().Add(-s.grace)
	candidates := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.ModifiedAt.After(cutoff) {
			result.Skipped++
			continue
		}
		candidates = append(candidates, obj.Key)
	}

	if len(candidates) == 0 {
		return result, nil
	}

	referenced, err := s.refs.ReferencedKeys(ctx, candidates)
	if err != nil {
		return result, fmt.Errorf("lookup references: %w", err)
	}

	for _, key := range candidates {
		if referenced[key] {
			continue
		}
		if err := s.storage.Delete(ctx, key); err != nil {
			result.Failed++
			s.logger.Warn("orphan blob delete failed", "key", key, "error", err)
			continue
		}
		result.Deleted++
		s.logger.Info("orphan blob deleted", "key", key)
	}

	return result, nil
}
