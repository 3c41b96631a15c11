package app

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/afero"

	"github.com/datallboy/comexdown/internal/catalog"
	"github.com/datallboy/comexdown/internal/engine"
	"github.com/datallboy/comexdown/internal/fetcher"
	"github.com/datallboy/comexdown/internal/index"
	"github.com/datallboy/comexdown/internal/infra/config"
	"github.com/datallboy/comexdown/internal/infra/logger"
	"github.com/datallboy/comexdown/internal/layout"
	"github.com/datallboy/comexdown/internal/lock"
	"github.com/datallboy/comexdown/internal/store"
	"github.com/datallboy/comexdown/internal/urls"
)

// Context holds the shared resources of one comexdown invocation.
type Context struct {
	Config *config.Config
	Logger *logger.Logger

	Catalog  *catalog.Catalog
	Builder  *urls.Builder
	Resolver *layout.Resolver
	Fetcher  *fetcher.Fetcher
	Index    *index.Index
	History  store.HistoryStore
	Locker   lock.Locker
	Engine   *engine.Manager

	closers []io.Closer
}

// NewContext initializes the base environment.
func NewContext(cfg *config.Config, log *logger.Logger) *Context {
	return &Context{
		Config:  cfg,
		Logger:  log,
		Catalog: catalog.Default(),
	}
}

// Build wires every component from the configuration. progress receives the
// transfer progress line and may be nil.
func Build(ctx context.Context, cfg *config.Config, log *logger.Logger, progress io.Writer) (*Context, error) {
	a := NewContext(cfg, log)
	fs := afero.NewOsFs()

	a.Builder = urls.NewBuilder(cfg.Download.BaseURL, a.Catalog)
	a.Resolver = layout.NewResolver(cfg.OutputDir, a.Catalog)

	a.Fetcher = fetcher.New(fetcher.OptionsFromConfig(cfg.Download),
		fetcher.WithFs(fs),
		fetcher.WithLogger(log),
		fetcher.WithProgress(progress),
	)

	if cfg.Lock.RedisURL != "" {
		rl, err := lock.NewRedis(ctx, cfg.Lock.RedisURL, cfg.Lock.TTL)
		if err != nil {
			return nil, err
		}
		a.Locker = rl
		a.closers = append(a.closers, rl)
	} else {
		a.Locker = lock.NewLocal()
	}

	a.Index = index.New(fs, cfg.OutputDir, a.Locker, log)

	history, err := store.Open(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.History = history
	a.closers = append(a.closers, history)

	a.Engine = engine.NewManager(a.Builder, a.Resolver, a.Fetcher, a.History, log, cfg.Download.Workers)

	return a, nil
}

// AddCloser registers c to be closed by Close, after everything added before it.
func (a *Context) AddCloser(c io.Closer) {
	a.closers = append([]io.Closer{c}, a.closers...)
}

// Close releases the history store, the lock backend and anything added with AddCloser.
func (a *Context) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
