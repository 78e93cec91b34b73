// Package app wires together configuration, the availability client, the
// store directory, the product catalog, and the local database into a single
// Deps struct that commands receive at runtime.
package app

import (
	"fmt"
	"log/slog"

	"github.com/example/stockwatch/internal/catalog"
	"github.com/example/stockwatch/internal/config"
	"github.com/example/stockwatch/internal/directory"
	"github.com/example/stockwatch/internal/fetch"
	"github.com/example/stockwatch/internal/sched"
	"github.com/example/stockwatch/internal/store"
)

// Deps holds all runtime dependencies injected into command Run functions.
// Store may be nil when the local database could not be opened; commands
// that need it check and fail, the rest degrade to uncached operation.
type Deps struct {
	Config    *config.Config
	Fetcher   *fetch.Client
	Directory *directory.Directory
	Products  *catalog.Products
	Store     *store.Store
}

// New builds a Deps from resolved config. The local database is opened
// lazily tolerant: a failure is logged and persistence disabled rather than
// aborting read-only commands.
func New(cfg *config.Config) *Deps {
	db, err := store.Open(cfg.DBPath)
	if err != nil {
		slog.Warn("opening local database failed, persistence disabled",
			"path", cfg.DBPath, "error", err)
		db = nil
	}

	var cache directory.Cache
	if db != nil {
		cache = db
	}

	return &Deps{
		Config:    cfg,
		Fetcher:   fetch.NewClient(cfg.AvailabilityURL, cfg.Timeout, cfg.Rate, cfg.Debug),
		Directory: directory.New(cfg.StoreDirectoryURL, cfg.Timeout, cache),
		Products:  catalog.NewProducts(),
		Store:     db,
	}
}

// Scheduler assembles the resolution engine from the wired dependencies.
func (d *Deps) Scheduler() *sched.Scheduler {
	var sink sched.SnapshotSink
	if d.Store != nil {
		sink = d.Store
	}
	return sched.New(d.Fetcher, d.Directory, d.Products, d.Config, sink)
}

// RequireStore returns the local database or an error for commands that
// cannot run without it.
func (d *Deps) RequireStore() (*store.Store, error) {
	if d.Store == nil {
		return nil, fmt.Errorf("local database unavailable (path %s)", d.Config.DBPath)
	}
	return d.Store, nil
}

// Close releases held resources.
func (d *Deps) Close() {
	if d.Store != nil {
		if err := d.Store.Close(); err != nil {
			slog.Warn("closing local database failed", "error", err)
		}
	}
}
