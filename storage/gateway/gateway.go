// Package gateway opens the store the process runs on: the primary
// database, then the fallback database, then process memory.
package gateway

import (
	"context"
	"fmt"

	"parkshare/config"
	"parkshare/pkg/logger"
	"parkshare/storage"
	"parkshare/storage/memory"
	"parkshare/storage/postgres"
)

type opener func(ctx context.Context, url, migrationsPath string, log logger.ILogger) (storage.IStorage, error)

func openPostgres(ctx context.Context, url, migrationsPath string, log logger.ILogger) (storage.IStorage, error) {
	stg, err := postgres.NewWithURL(ctx, url, migrationsPath, log)
	if err != nil {
		return nil, err
	}
	return stg, nil
}

func Open(ctx context.Context, cfg config.Config, log logger.ILogger) (storage.IStorage, error) {
	return open(ctx, cfg, log, openPostgres)
}

func open(ctx context.Context, cfg config.Config, log logger.ILogger, connect opener) (storage.IStorage, error) {
	stg, err := connect(ctx, cfg.PostgresURL(), cfg.MigrationsPath, log)
	if err == nil {
		return stg, nil
	}
	log.Warning("primary database unreachable", logger.String("host", cfg.PostgresHost), logger.Error(err))

	if cfg.PostgresFallbackURL != "" {
		stg, ferr := connect(ctx, cfg.PostgresFallbackURL, cfg.MigrationsPath, log)
		if ferr == nil {
			log.Warning("running on fallback database")
			return stg, nil
		}
		log.Warning("fallback database unreachable", logger.Error(ferr))
	}

	if cfg.MemoryFallback {
		log.Warning("running on in-memory store, data will not survive a restart")
		return memory.New(), nil
	}

	return nil, fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
}
