package dal

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Billy-Davies-2/fighter-matchup/internal/catalog"
	"github.com/Billy-Davies-2/fighter-matchup/internal/config"
	"github.com/Billy-Davies-2/fighter-matchup/internal/logger"
	"github.com/Billy-Davies-2/fighter-matchup/internal/metrics"
)

type seeder interface {
	SeedIfEmpty(ctx context.Context, data catalog.Data) error
}

// OpenSource returns the catalog source named by CATALOG_DRIVER. Database
// stores are seeded from the JSON files (or the demo catalog) when empty.
func OpenSource(ctx context.Context, cfg *config.Config) (CatalogSource, error) {
	switch cfg.CatalogDriver {
	case config.DriverMemory:
		logger.Info("Using the built-in demo catalog")
		return NewDemoSource(), nil
	case config.DriverFile:
		if _, err := os.Stat(cfg.FightersFile); os.IsNotExist(err) && cfg.Development() {
			logger.Warn("Fighters file not found, using the built-in demo catalog", "path", cfg.FightersFile)
			return NewDemoSource(), nil
		}
		logger.Info("Using JSON catalog files", "fighters", cfg.FightersFile, "win_rates", cfg.WinRatesFile)
		return NewFileSource(cfg.FightersFile, cfg.WinRatesFile), nil
	case config.DriverSQLite:
		store, err := NewSQLiteStore(cfg.SQLiteFile)
		if err != nil {
			return nil, fmt.Errorf("open sqlite catalog: %w", err)
		}
		if err := seed(ctx, store, cfg); err != nil {
			store.Close()
			return nil, err
		}
		logger.Info("Connected to SQLite catalog", "file", cfg.SQLiteFile)
		return store, nil
	case config.DriverPostgres:
		store, err := NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres catalog: %w", err)
		}
		if err := seed(ctx, store, cfg); err != nil {
			store.Close()
			return nil, err
		}
		logger.Info("Connected to Postgres catalog")
		return store, nil
	case config.DriverS3:
		src, err := NewS3Source(ctx, cfg.S3)
		if err != nil {
			return nil, err
		}
		logger.Info("Using S3 catalog", "bucket", cfg.S3.Bucket, "endpoint", cfg.S3.Endpoint)
		return src, nil
	}
	return nil, fmt.Errorf("unknown catalog driver %q", cfg.CatalogDriver)
}

func seed(ctx context.Context, store seeder, cfg *config.Config) error {
	var data catalog.Data
	if _, err := os.Stat(cfg.FightersFile); err == nil {
		d, err := NewFileSource(cfg.FightersFile, cfg.WinRatesFile).Load(ctx)
		if err != nil {
			return fmt.Errorf("read seed files: %w", err)
		}
		data = d
	} else {
		data = DemoData()
	}
	if err := store.SeedIfEmpty(ctx, data); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	return nil
}

// LoadCatalog reads the source, optionally replaces its matrix with one from
// a dedicated win-rate source, and builds the immutable catalog.
func LoadCatalog(ctx context.Context, src CatalogSource, winRates MatrixSource, imagesDir string) (*catalog.Catalog, error) {
	start := time.Now()
	data, err := src.Load(ctx)
	metrics.RecordCatalogLoad(src.Name(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("load catalog from %s: %w", src.Name(), err)
	}

	if winRates != nil {
		start = time.Now()
		m, err := winRates.LoadMatrix(ctx)
		metrics.RecordCatalogLoad(winRates.Name(), time.Since(start), err)
		if err != nil {
			return nil, fmt.Errorf("load win rates from %s: %w", winRates.Name(), err)
		}
		data.Matrix = m
	}

	if imagesDir != "" {
		AttachImages(&data, imagesDir, "/static/images")
	}

	cat, err := catalog.New(data)
	if err != nil {
		return nil, err
	}
	metrics.SetCatalogSize(len(cat.Fighters()), len(cat.Matrix()))
	return cat, nil
}
