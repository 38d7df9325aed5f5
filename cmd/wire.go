package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/darkpan/internal/config"
	"github.com/zjrosen/darkpan/internal/extract"
	"github.com/zjrosen/darkpan/internal/fetch"
	"github.com/zjrosen/darkpan/internal/infrastructure/sqlite"
	"github.com/zjrosen/darkpan/internal/locator"
	"github.com/zjrosen/darkpan/internal/log"
	"github.com/zjrosen/darkpan/internal/paths"
	"github.com/zjrosen/darkpan/internal/pubsub"
	"github.com/zjrosen/darkpan/internal/repository"
	"github.com/zjrosen/darkpan/internal/repository/domain"
	"github.com/zjrosen/darkpan/internal/store"
	"github.com/zjrosen/darkpan/internal/tracing"
)

// errNotInitialized is returned when a command runs outside a repository.
var errNotInitialized = errors.New("not a darkpan repository (run 'darkpan init' first)")

// app holds everything a command needs, built once per invocation.
type app struct {
	cfg     config.Config
	layout  paths.Layout
	db      *sqlite.DB
	store   domain.ArchiveStore
	locator *locator.MirrorLocator
	tracing *tracing.Provider
	events  *pubsub.Broker[*domain.Distribution]
	coord   *repository.Coordinator
}

// openApp wires the repository at c.Root. Unless creating is set the
// repository must already be initialized.
func openApp(c config.Config, creating bool) (*app, error) {
	if err := config.Validate(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	layout, err := paths.NewLayout(c.Root)
	if err != nil {
		return nil, err
	}
	if !creating && !layout.IsInitialized() {
		return nil, errNotInitialized
	}

	db, err := sqlite.NewDB(layout.DBPath())
	if err != nil {
		return nil, err
	}

	st, err := store.New(c.Store, layout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	fetcher := fetch.New(
		fetch.WithTimeout(c.Fetch.Timeout),
		fetch.WithUserAgent(c.Fetch.UserAgent),
	)
	loc := locator.New(fetcher, layout.CacheDir(), c.MirrorList(), locator.WithTTL(c.Cache.TTL))

	tracingCfg := c.Tracing
	if tracingCfg.FilePath != "" && !filepath.IsAbs(tracingCfg.FilePath) {
		tracingCfg.FilePath = filepath.Join(layout.Root(), tracingCfg.FilePath)
	}
	provider, err := tracing.NewProvider(tracingCfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	events := pubsub.NewBroker[*domain.Distribution]()
	coord := repository.NewCoordinator(db.DistributionRepository(), st, extract.New(), fetcher, loc,
		repository.WithTracer(provider.Tracer()),
		repository.WithPublisher(events),
	)

	log.Debug(log.CatConfig, "repository opened",
		"root", layout.Root(), "store", c.StoreType(), "mirrors", strings.Join(c.MirrorList(), ","), "tracing", provider.Enabled())

	return &app{
		cfg:     c,
		layout:  layout,
		db:      db,
		store:   st,
		locator: loc,
		tracing: provider,
		events:  events,
		coord:   coord,
	}, nil
}

// Close flushes traces and releases the database.
func (a *app) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.events.Close()
	err := a.tracing.Shutdown(ctx)
	if closeErr := a.db.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}
