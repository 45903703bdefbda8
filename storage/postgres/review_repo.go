package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

type reviewRepo struct {
	db  DB
	log logger.ILogger
}

func NewReviewRepo(db DB, log logger.ILogger) storage.IReviewStorage {
	return &reviewRepo{db: db, log: log}
}

func (r *reviewRepo) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	query := `
		INSERT INTO reviews (reviewer_id, driver_id, parking_id, reservation_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	rv := *review
	err := r.db.QueryRow(ctx, query,
		rv.ReviewerID, rv.DriverID, rv.ParkingID, rv.ReservationID, rv.Rating, rv.Comment,
	).Scan(&rv.ID, &rv.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, storage.ErrConflict
		}
		r.log.Error("failed to create review", logger.Error(err))
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) GetByReservation(ctx context.Context, reservationID, reviewerID int64) (*models.Review, error) {
	var rv models.Review
	err := r.db.QueryRow(ctx, `
		SELECT id, reviewer_id, driver_id, parking_id, reservation_id, rating, comment, created_at
		FROM reviews WHERE reservation_id = $1 AND reviewer_id = $2`,
		reservationID, reviewerID,
	).Scan(&rv.ID, &rv.ReviewerID, &rv.DriverID, &rv.ParkingID, &rv.ReservationID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) DriverRating(ctx context.Context, driverID int64) (int, int, error) {
	var sum, count int
	err := r.db.QueryRow(ctx,
		`SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM reviews WHERE driver_id = $1`, driverID,
	).Scan(&sum, &count)
	if err != nil {
		r.log.Error("failed to get driver rating", logger.Int64("driver_id", driverID), logger.Error(err))
		return 0, 0, err
	}
	return sum, count, nil
}
