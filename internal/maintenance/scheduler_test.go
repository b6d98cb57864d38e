package maintenance_test

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/document-manager/internal/maintenance"
	"github.com/JaimeStill/document-manager/pkg/lifecycle"
	"github.com/JaimeStill/document-manager/pkg/storage"
)

func TestScheduler_Lifecycle(t *testing.T) {
	store := storage.NewFilesystemFs(afero.NewMemMapFs(), "mem", discard())
	sweeper := maintenance.NewSweeper(store, &fakeRefs{}, "files/", time.Hour, discard())

	cfg := &maintenance.Config{}
	require.NoError(t, cfg.Finalize(nil))

	sched, err := maintenance.NewScheduler(cfg, sweeper, discard())
	require.NoError(t, err)

	lc := lifecycle.New()
	require.NoError(t, sched.Start(lc))
	lc.WaitForStartup()

	require.True(t, lc.Ready())
	require.NoError(t, lc.Shutdown(5*time.Second))
}

func TestNewScheduler_InvalidSchedule(t *testing.T) {
	store := storage.NewFilesystemFs(afero.NewMemMapFs(), "mem", discard())
	sweeper := maintenance.NewSweeper(store, &fakeRefs{}, "files/", time.Hour, discard())

	_, err := maintenance.NewScheduler(&maintenance.Config{Schedule: "nope"}, sweeper, discard())
	require.Error(t, err)
}
