package cli

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbook/internal/core"
)

func TestSetupLoggerInstallsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("warn")
	assert.True(t, logger.Slog().Enabled(context.Background(), slog.LevelWarn))
	assert.False(t, slog.Default().Enabled(context.Background(), slog.LevelInfo))
}

func TestLoadClassifier(t *testing.T) {
	logger := SetupLogger("error")

	c, err := LoadClassifier(logger, "")
	require.NoError(t, err)
	assert.Equal(t, core.CategoryFood, c.Classify("grocery"))

	path := filepath.Join(t.TempDir(), "table.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - category: Bills\n    keywords: [grocery]\n"), 0o644))
	c, err = LoadClassifier(logger, path)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryBills, c.Classify("grocery"))

	_, err = LoadClassifier(logger, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestGracefulShutdownFollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := GracefulShutdown(parent, SetupLogger("error"))
	defer stop()

	cancel()
	<-ctx.Done()
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
