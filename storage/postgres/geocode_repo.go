package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

type geocodeRepo struct {
	db  DB
	log logger.ILogger
}

func NewGeocodeRepo(db DB, log logger.ILogger) storage.IGeocodeStorage {
	return &geocodeRepo{db: db, log: log}
}

func (r *geocodeRepo) Get(ctx context.Context, query string) (*models.GeocodeEntry, error) {
	var e models.GeocodeEntry
	err := r.db.QueryRow(ctx,
		`SELECT query, latitude, longitude, created_at FROM geocode_cache WHERE query = $1`, query,
	).Scan(&e.Query, &e.Latitude, &e.Longitude, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *geocodeRepo) Put(ctx context.Context, entry *models.GeocodeEntry) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO geocode_cache (query, latitude, longitude)
		VALUES ($1, $2, $3)
		ON CONFLICT (query) DO UPDATE SET latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude`,
		entry.Query, entry.Latitude, entry.Longitude,
	)
	if err != nil {
		r.log.Error("failed to cache geocode", logger.String("query", entry.Query), logger.Error(err))
	}
	return err
}
