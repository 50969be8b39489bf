package tracker

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/taskhive/internal/core/config"
	"github.com/colonyops/taskhive/internal/core/task"
)

func newApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	app := &App{}
	app.Init(cfg, zerolog.Nop())
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestApp_OpensLazily(t *testing.T) {
	cfg, err := config.Load("", t.TempDir())
	require.NoError(t, err)

	app := newApp(t, cfg)
	assert.NoFileExists(t, app.StorePath())

	svc, err := app.Tasks()
	require.NoError(t, err)
	again, err := app.Tasks()
	require.NoError(t, err)
	assert.Same(t, svc, again)
	assert.FileExists(t, app.StorePath())
}

func TestApp_WritesExport(t *testing.T) {
	cfg, err := config.Load("", t.TempDir())
	require.NoError(t, err)

	app := newApp(t, cfg)
	svc, err := app.Tasks()
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), task.Draft{Title: "Exported task"})
	require.NoError(t, err)
	require.NoError(t, app.Close())

	data, err := os.ReadFile(app.ExportPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "Exported task")
}

func TestApp_Locked(t *testing.T) {
	cfg, err := config.Load("", t.TempDir())
	require.NoError(t, err)

	_, err = newApp(t, cfg).Tasks()
	require.NoError(t, err)

	_, err = newApp(t, cfg).Tasks()
	require.ErrorIs(t, err, task.ErrStorage)
}

func TestApp_Uninitialized(t *testing.T) {
	_, err := (&App{}).Tasks()
	require.Error(t, err)
	assert.NoError(t, (&App{}).Close())
}
