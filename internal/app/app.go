// Package app wires configuration into stores, caches and services shared by
// the server and the CLI.
package app

import (
	"context"
	"fmt"

	"github.com/Chenyi0309/inventory-dashboard/internal/cache"
	"github.com/Chenyi0309/inventory-dashboard/internal/catalog"
	"github.com/Chenyi0309/inventory-dashboard/internal/config"
	"github.com/Chenyi0309/inventory-dashboard/internal/forecast"
	"github.com/Chenyi0309/inventory-dashboard/internal/repository"
	"github.com/Chenyi0309/inventory-dashboard/internal/repository/postgres"
	"github.com/Chenyi0309/inventory-dashboard/internal/service"
	"github.com/Chenyi0309/inventory-dashboard/internal/sheets"
	"github.com/Chenyi0309/inventory-dashboard/internal/storage"
	"github.com/rs/zerolog/log"
)

// Services bundles everything built from one configuration.
type Services struct {
	Store     repository.EventStore
	Cache     cache.EventsCache
	Catalog   *catalog.Catalog
	Inventory *service.InventoryService
	Imports   *service.ImportService

	closers []func() error
}

// Close releases the store connections.
func (s *Services) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Build opens the configured backend and the services on top of it.
func Build(ctx context.Context, cfg *config.Config) (*Services, error) {
	store, closer, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return BuildWithStore(ctx, cfg, store, closer)
}

// BuildWithStore builds the services on an already opened store. closer, if
// not nil, runs on Close.
func BuildWithStore(ctx context.Context, cfg *config.Config, store repository.EventStore, closer func() error) (*Services, error) {
	s := &Services{Store: store}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}

	var err error
	s.Cache, err = cache.NewEventsCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("events cache unavailable, continuing without cache")
		s.Cache = cache.NewNoopEventsCache()
	}

	s.Catalog, err = LoadCatalog(ctx, cfg, store)
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	s.Inventory = service.NewInventoryService(store, s.Cache, s.Catalog, service.Options{
		Thresholds: Thresholds(cfg.Forecast),
		Workers:    cfg.Forecast.Workers,
	})
	s.Imports = service.NewImportService(store, s.Cache, cfg.Forecast.Workers)

	return s, nil
}

// OpenStore returns the event store selected by INVENTORY_BACKEND.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.EventStore, func() error, error) {
	switch cfg.App.Backend {
	case config.BackendFile:
		log.Info().Str("file", cfg.App.File).Msg("using file event store")
		return repository.NewFileStore(cfg.App.File), nil, nil

	case config.BackendPostgres:
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repo := postgres.NewEventRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info().Str("db", cfg.Database.DBName).Msg("using postgres event store")
		return repo, db.Close, nil

	case config.BackendSheets:
		creds, err := cfg.Sheets.Credentials()
		if err != nil {
			return nil, nil, err
		}
		svc, err := sheets.NewService(ctx, creds, cfg.Sheets.ResolveSpreadsheetID(), cfg.Sheets.WorksheetName)
		if err != nil {
			return nil, nil, err
		}
		if err := svc.EnsureWorksheet(ctx); err != nil {
			log.Warn().Err(err).Msg("could not prepare worksheet")
		}
		log.Info().Str("source", svc.Source()).Msg("using google sheets event store")
		return svc, nil, nil

	default:
		return nil, nil, fmt.Errorf("unknown inventory backend %q", cfg.App.Backend)
	}
}

// LoadCatalog merges the catalog kept by the store with the YAML file; file
// entries win.
func LoadCatalog(ctx context.Context, cfg *config.Config, store repository.EventStore) (*catalog.Catalog, error) {
	fileCatalog, err := catalog.Load(cfg.App.CatalogFile)
	if err != nil {
		return nil, err
	}

	src, ok := store.(repository.CatalogSource)
	if !ok {
		return fileCatalog, nil
	}

	items, err := src.ListCatalog(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not read item catalog from store")
		return fileCatalog, nil
	}

	merged := catalog.New(items).Merge(fileCatalog)
	log.Debug().Int("items", merged.Len()).Msg("item catalog loaded")
	return merged, nil
}

// Thresholds converts forecast settings into severity thresholds.
func Thresholds(cfg config.ForecastConfig) forecast.Thresholds {
	return forecast.Thresholds{
		WarnDays:   cfg.WarnDays,
		UrgentDays: cfg.UrgentDays,
		PercentLow: cfg.PercentLowThreshold,
	}
}

// ObjectStorage builds the S3 client from the storage settings. bucket
// overrides the configured bucket when set.
func ObjectStorage(cfg config.StorageConfig, bucket string) (*storage.S3Client, error) {
	if bucket == "" {
		bucket = cfg.Bucket
	}
	return storage.NewS3Client(storage.S3Config{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
}
