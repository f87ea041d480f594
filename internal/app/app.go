// Package app initializes and holds long-lived application services, acting
// as a dependency injection container. Connections are constructed once here
// and passed into scrapers and aggregators; nothing holds ambient globals.
package app

import (
	"context"
	"fmt"

	gcsclient "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/musigraph/crawler/internal/archive"
	"github.com/musigraph/crawler/internal/cache"
	"github.com/musigraph/crawler/internal/config"
	"github.com/musigraph/crawler/internal/fetch"
	"github.com/musigraph/crawler/internal/logging"
	"github.com/musigraph/crawler/internal/notify"
	"github.com/musigraph/crawler/internal/scrape"
	"github.com/musigraph/crawler/internal/store"
)

// App holds all the shared, long-lived services for the application.
type App struct {
	cfg       config.Config
	logger    *zap.Logger
	store     store.Store
	cache     cache.Cache
	archive   archive.BlobStore
	publisher notify.Publisher
	fetcher   fetch.Fetcher
}

// New creates and initializes an App from the loaded configuration. It is
// designed to fail fast if any critical service cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	st, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	kv, err := newCache(ctx, cfg, logger)
	if err != nil {
		st.Close()
		return nil, err
	}
	blobs, err := newArchive(ctx, cfg, logger)
	if err != nil {
		st.Close()
		closeQuietly(logger, kv.Close)
		return nil, err
	}
	publisher, err := newPublisher(ctx, cfg, logger)
	if err != nil {
		st.Close()
		closeQuietly(logger, kv.Close)
		return nil, err
	}

	fetcher := fetch.NewCollyFetcher(fetch.Config{
		UserAgent:     cfg.Site.UserAgent,
		RespectRobots: cfg.Site.RespectRobots,
		Timeout:       cfg.FetchTimeout(),
	})

	logger.Info("application services initialized",
		zap.String("db", cfg.DB.Provider),
		zap.String("cache", cfg.Cache.Provider),
		zap.String("archive", cfg.Archive.Provider),
		zap.String("notify", cfg.Notify.Provider),
	)

	return &App{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		cache:     kv,
		archive:   blobs,
		publisher: publisher,
		fetcher:   fetcher,
	}, nil
}

func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.Store, error) {
	switch cfg.DB.Provider {
	case "postgres":
		logger.Info("connecting to postgres")
		st, err := store.NewPostgresStore(ctx, store.PostgresConfig{
			DSN:      cfg.DB.DSN,
			MaxConns: cfg.DB.MaxConns,
			MinConns: cfg.DB.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
		return st, nil
	case "memory":
		logger.Info("using in-memory entity store; data is not durable")
		return store.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown db provider: %s", cfg.DB.Provider)
	}
}

func newCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (cache.Cache, error) {
	switch cfg.Cache.Provider {
	case "redis":
		logger.Info("connecting to redis", zap.String("addr", cfg.Cache.RedisAddr))
		c, err := cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
		if err != nil {
			return nil, fmt.Errorf("init redis cache: %w", err)
		}
		return c, nil
	case "memory":
		return cache.NewMemoryCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache provider: %s", cfg.Cache.Provider)
	}
}

func newArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (archive.BlobStore, error) {
	switch cfg.Archive.Provider {
	case "gcs":
		logger.Info("using GCS page archive", zap.String("bucket", cfg.Archive.GCSBucket))
		client, err := gcsclient.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("init gcs client: %w", err)
		}
		return archive.NewGCSStore(client, cfg.Archive.GCSBucket)
	case "local":
		return archive.NewLocalStore(cfg.Archive.BaseDir)
	case "memory":
		return archive.NewMemoryStore(), nil
	case "noop":
		logger.Info("page archiving disabled; raw HTML will be discarded")
		return archive.NoOpStore{}, nil
	default:
		return nil, fmt.Errorf("unknown archive provider: %s", cfg.Archive.Provider)
	}
}

func newPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Publisher, error) {
	switch cfg.Notify.Provider {
	case "pubsub":
		logger.Info("connecting to pub/sub", zap.String("topic", cfg.Notify.TopicName))
		p, err := notify.NewPubSubPublisher(ctx, cfg.Notify.ProjectID, cfg.Notify.TopicName)
		if err != nil {
			return nil, fmt.Errorf("init pubsub publisher: %w", err)
		}
		return p, nil
	case "memory":
		return notify.NewMemoryPublisher(), nil
	case "noop":
		return notify.NoOpPublisher{}, nil
	default:
		return nil, fmt.Errorf("unknown notify provider: %s", cfg.Notify.Provider)
	}
}

// Config returns the loaded configuration.
func (a *App) Config() config.Config { return a.cfg }

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger { return a.logger }

// Store exposes the configured entity store.
func (a *App) Store() store.Store { return a.store }

// Cache exposes the configured aggregation cache.
func (a *App) Cache() cache.Cache { return a.cache }

// Publisher exposes the configured event publisher.
func (a *App) Publisher() notify.Publisher { return a.publisher }

// ScrapeDeps bundles the collaborators a scraper run needs.
func (a *App) ScrapeDeps() scrape.Deps {
	return scrape.Deps{
		Fetcher:            a.fetcher,
		Store:              a.store,
		Archive:            a.archive,
		ArchivePrefix:      a.cfg.Archive.Prefix,
		ArchiveContentType: a.cfg.Archive.ContentType,
		Logger:             a.logger,
		Verbose:            a.cfg.Logging.Verbose,
	}
}

// Close gracefully shuts down all services in the App container.
func (a *App) Close() {
	a.logger.Info("shutting down application services")
	a.store.Close()
	closeQuietly(a.logger, a.cache.Close)
	closeQuietly(a.logger, a.publisher.Close)
	// Flushing the logger buffer is best-effort; stderr may not be syncable.
	_ = a.logger.Sync()
}

func closeQuietly(logger *zap.Logger, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn("error closing service", zap.Error(err))
	}
}
