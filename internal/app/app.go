// Package app wires configuration, storage and the domain services into a
// runnable HTTP server. Both cmd/api and the bookshelf CLI start from here.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"bookshelf/internal/config"
	"bookshelf/internal/httpx"
	"bookshelf/internal/library"
	"bookshelf/internal/lookup"
	"bookshelf/internal/media"
	"bookshelf/internal/platform/logger"
	"bookshelf/internal/storage"
)

const dbQueryTimeout = 5 * time.Second

// Deps are the external resources the services are built on. Tests swap
// in memory versions; New fills them from config.
type Deps struct {
	DB       *pgxpool.Pool
	Cache    lookup.CacheStore
	Books    library.Repository
	Catalog  library.CatalogRepository
	Blobs    storage.BlobStore
	Fetcher  lookup.CoverFetcher
	Clients  Clients
	Registry *prometheus.Registry
}

type App struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *pgxpool.Pool
	registry  *prometheus.Registry
	rateLimit *httpx.RateLimitMiddleware
	closers   []func()

	Lookup  *lookup.Service
	Library *library.Service
	Media   *media.Service
}

// New opens the database and object storage named in cfg and builds the app.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	db, err := OpenDB(ctx, cfg.DBDSN, log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewGCSStore(ctx, storage.Config{
		CoversBucket:   cfg.CoversBucket,
		CommentsBucket: cfg.CommentsBucket,
		ExportsBucket:  cfg.ExportsBucket,
		PublicBaseURL:  cfg.StoragePublicBaseURL,
		EmulatorHost:   cfg.StorageEmulatorHost,
	}, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	clients, err := NewClients(cfg)
	if err != nil {
		_ = store.Close()
		db.Close()
		return nil, err
	}

	repo := library.NewPostgresRepo(db, dbQueryTimeout)
	a, err := Assemble(cfg, log, Deps{
		DB:      db,
		Cache:   lookup.NewPostgresRepo(db),
		Books:   repo,
		Catalog: repo,
		Blobs:   store,
		Fetcher: storage.NewFetcher(cfg.UserAgent),
		Clients: clients,
	})
	if err != nil {
		_ = store.Close()
		db.Close()
		return nil, err
	}
	a.closers = append(a.closers, func() { _ = store.Close() }, db.Close)
	return a, nil
}

// Assemble builds the services on top of already opened resources.
func Assemble(cfg *config.Config, log *logger.Logger, d Deps) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	attempts, err := BuildAttempts(cfg.Attempts, d.Clients)
	if err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, errors.New("no lookup attempts enabled")
	}

	cache := d.Cache
	if cfg.LookupLRUSize > 0 {
		lru, err := lookup.NewLRUCache(d.Cache, cfg.LookupLRUSize)
		if err != nil {
			return nil, fmt.Errorf("create lookup lru: %w", err)
		}
		cache = lru
	}

	var mirror lookup.CoverMirror
	if cfg.MirrorCovers && d.Blobs != nil && d.Fetcher != nil {
		mirror = lookup.NewStorageMirror(d.Fetcher, d.Blobs)
	}

	lookupSvc := lookup.NewService(cache, attempts, mirror, lookup.NewMetrics(reg), log,
		lookup.Config{SourceTimeout: cfg.SourceTimeout})

	a := &App{
		cfg:       cfg,
		log:       log,
		db:        d.DB,
		registry:  reg,
		rateLimit: httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst),
		Lookup:    lookupSvc,
		Library:   library.NewService(d.Books, d.Catalog, lookupSvc, d.Blobs, log.With("service", "library")),
		Media:     media.NewService(d.Blobs, log.With("service", "media")),
	}
	log.Info("lookup pipeline ready", "attempts", len(attempts), "mirror_covers", mirror != nil)
	return a, nil
}

// Close releases everything New opened.
func (a *App) Close() {
	a.rateLimit.Stop()
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// Serve runs the HTTP server until ctx is cancelled, then drains it.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A cold lookup may walk every source in turn.
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting server", "addr", a.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// OpenDB creates the pool and checks the database answers.
func OpenDB(ctx context.Context, dsn string, log *logger.Logger) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database (%s): %w", config.RedactDSN(dsn), err)
	}
	log.Info("database connection OK", "dsn", config.RedactDSN(dsn))
	return pool, nil
}
