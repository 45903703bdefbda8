package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

type parkingRepo struct {
	db  DB
	log logger.ILogger
}

func NewParkingRepo(db DB, log logger.ILogger) storage.IParkingStorage {
	return &parkingRepo{db: db, log: log}
}

const parkingColumns = `id, owner_id, name, phone, email, address, department, city, housing_type, size,
	features, image_path, latitude, longitude, active, occupied_since, created_at`

func (r *parkingRepo) Create(ctx context.Context, parking *models.Parking) (*models.Parking, error) {
	query := `
		INSERT INTO parkings (owner_id, name, phone, email, address, department, city, housing_type, size,
			features, image_path, latitude, longitude, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at
	`
	p := *parking
	err := r.db.QueryRow(ctx, query,
		p.OwnerID, p.Name, p.Phone, p.Email, p.Address, p.Department, p.City, p.HousingType, p.Size,
		p.Features, p.ImagePath, p.Latitude, p.Longitude, p.Active,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		r.log.Error("failed to create parking", logger.Int64("owner_id", p.OwnerID), logger.Error(err))
		return nil, err
	}
	return &p, nil
}

func (r *parkingRepo) GetByID(ctx context.Context, id int64) (*models.Parking, error) {
	query := `SELECT ` + parkingColumns + ` FROM parkings WHERE id = $1`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		r.log.Error("failed to get parking by id", logger.Int64("id", id), logger.Error(err))
		return nil, err
	}
	list, err := scanParkings(rows)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, storage.ErrNotFound
	}
	return list[0], nil
}

func (r *parkingRepo) GetByOwner(ctx context.Context, ownerID int64) ([]*models.Parking, error) {
	query := `SELECT ` + parkingColumns + ` FROM parkings WHERE owner_id = $1 ORDER BY id`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		r.log.Error("failed to get parkings by owner", logger.Int64("owner_id", ownerID), logger.Error(err))
		return nil, err
	}
	return scanParkings(rows)
}

func (r *parkingRepo) GetActive(ctx context.Context, bbox *models.BBox) ([]*models.Parking, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if bbox == nil {
		rows, err = r.db.Query(ctx, `SELECT `+parkingColumns+` FROM parkings WHERE active ORDER BY id`)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT `+parkingColumns+` FROM parkings
			WHERE active
			  AND latitude BETWEEN $1 AND $2
			  AND longitude BETWEEN $3 AND $4
			ORDER BY id`,
			bbox.MinLat, bbox.MaxLat, bbox.MinLng, bbox.MaxLng,
		)
	}
	if err != nil {
		r.log.Error("failed to get active parkings", logger.Error(err))
		return nil, err
	}
	return scanParkings(rows)
}

func (r *parkingRepo) Claim(ctx context.Context, id int64) error {
	return guarded(r.db.Exec(ctx,
		`UPDATE parkings SET active = FALSE, occupied_since = NULL WHERE id = $1 AND active`, id))
}

func (r *parkingRepo) StartOccupancy(ctx context.Context, id int64, since time.Time) error {
	return guarded(r.db.Exec(ctx,
		`UPDATE parkings SET occupied_since = $2 WHERE id = $1 AND NOT active`, id, since))
}

func (r *parkingRepo) Release(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE parkings SET active = TRUE, occupied_since = NULL WHERE id = $1`, id)
	if err != nil {
		r.log.Error("failed to release parking", logger.Int64("id", id), logger.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanParkings(rows pgx.Rows) ([]*models.Parking, error) {
	defer rows.Close()

	var list []*models.Parking
	for rows.Next() {
		var p models.Parking
		err := rows.Scan(
			&p.ID, &p.OwnerID, &p.Name, &p.Phone, &p.Email, &p.Address, &p.Department, &p.City,
			&p.HousingType, &p.Size, &p.Features, &p.ImagePath, &p.Latitude, &p.Longitude,
			&p.Active, &p.OccupiedSince, &p.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		list = append(list, &p)
	}
	return list, rows.Err()
}
