package tracker

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/colonyops/taskhive/internal/core/config"
	"github.com/colonyops/taskhive/internal/core/markdown"
	"github.com/colonyops/taskhive/internal/store/jsonfile"
)

// App bundles what commands need. Commands hold a pointer to an App that
// main initializes once configuration is loaded. The store is opened on first
// use so commands that never touch tasks never take the file lock.
type App struct {
	Config *config.Config

	log   zerolog.Logger
	store *jsonfile.Store
	svc   *Service
}

// Init sets the configuration the App opens its store with.
func (a *App) Init(cfg *config.Config, log zerolog.Logger) {
	a.Config = cfg
	a.log = log
}

// Tasks returns the task service, opening the store on first call.
func (a *App) Tasks() (*Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	if a.Config == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	path := a.StorePath()
	opts := jsonfile.Options{
		CoalesceWindow: a.Config.Storage.Window(),
		Lock:           a.Config.Storage.LockEnabled(),
		Logger:         a.log,
	}
	if a.Config.Storage.ExportEnabled() {
		opts.Exporter = markdown.FileExporter{Path: markdown.ExportPath(path)}
	}

	store, err := jsonfile.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	a.store = store
	a.svc = New(store, Config{
		HistoryLimit:    a.Config.Storage.HistoryLimit,
		SuggestionLimit: a.Config.Search.SuggestionLimit,
		Search:          a.Config.Search.Engine(),
		Actor:           a.Config.Actor,
	}, a.log)
	return a.svc, nil
}

// StorePath returns the backing file path.
func (a *App) StorePath() string {
	return a.Config.StoreFile()
}

// ExportPath returns the path of the derived markdown export.
func (a *App) ExportPath() string {
	return markdown.ExportPath(a.StorePath())
}

// Close flushes pending writes and releases the store, if it was opened.
func (a *App) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store, a.svc = nil, nil
	return err
}
