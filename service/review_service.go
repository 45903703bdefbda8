package service

import (
	"context"
	"errors"
	"strings"

	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

type ReviewService interface {
	// Submit rates the driver of a finished reservation. Only the owner of
	// the spot can rate, once per reservation.
	Submit(ctx context.Context, reviewerID int64, req models.SubmitReview) (*models.Review, error)
	DriverStats(ctx context.Context, driverID int64) (*models.DriverStats, error)
}

type reviewService struct {
	stg storage.IStorage
	log logger.ILogger
}

func NewReviewService(stg storage.IStorage, log logger.ILogger) ReviewService {
	return &reviewService{stg: stg, log: log}
}

func (s *reviewService) Submit(ctx context.Context, reviewerID int64, req models.SubmitReview) (*models.Review, error) {
	const op = "review.submit"

	if err := validate.Struct(req); err != nil {
		return nil, &Error{Op: op, Kind: ErrInvalidInput, Err: err}
	}

	r, err := s.stg.Reservation().GetByID(ctx, req.ReservationID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if r.OwnerID != reviewerID {
		return nil, fail(op, ErrForbidden, "only the parking owner can rate the driver")
	}
	// The owner rates a driver who actually parked, either while closing
	// the occupancy or afterwards.
	if r.Status != models.StatusCompleted && !r.Status.IsOccupied() {
		return nil, fail(op, ErrInvalidTransition, "reservation is %s", r.Status)
	}

	_, err = s.stg.Review().GetByReservation(ctx, r.ID, reviewerID)
	switch {
	case err == nil:
		return nil, fail(op, ErrConflict, "reservation %d already reviewed", r.ID)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, storageErr(op, err)
	}

	review, err := s.stg.Review().Create(ctx, &models.Review{
		ReviewerID:    reviewerID,
		DriverID:      r.DriverID,
		ParkingID:     r.ParkingID,
		ReservationID: ptr(r.ID),
		Rating:        req.Rating,
		Comment:       strings.TrimSpace(req.Comment),
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fail(op, ErrConflict, "reservation %d already reviewed", r.ID)
		}
		return nil, storageErr(op, err)
	}
	return review, nil
}

func (s *reviewService) DriverStats(ctx context.Context, driverID int64) (*models.DriverStats, error) {
	const op = "review.driver_stats"

	completed, err := s.stg.Reservation().CountCompletedByDriver(ctx, driverID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	sum, count, err := s.stg.Review().DriverRating(ctx, driverID)
	if err != nil {
		return nil, storageErr(op, err)
	}

	stats := &models.DriverStats{
		DriverID:       driverID,
		CompletedCount: completed,
		RatingCount:    count,
	}
	if count > 0 {
		stats.RatingAverage = float64(sum) / float64(count)
	}
	return stats, nil
}
