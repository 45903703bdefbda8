package memory

import (
	"context"

	"parkshare/pkg/models"
	"parkshare/storage"
)

type reviewRepo struct {
	s *Store
}

func (r *reviewRepo) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	r.s.lock()
	defer r.s.unlock()

	rv := *review
	rv.ID = r.s.nextID()
	rv.CreatedAt = nowIfZero(rv.CreatedAt)
	r.s.data.reviews[rv.ID] = rv
	return &rv, nil
}

func (r *reviewRepo) GetByReservation(ctx context.Context, reservationID, reviewerID int64) (*models.Review, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, rv := range r.s.data.reviews {
		if rv.ReservationID != nil && *rv.ReservationID == reservationID && rv.ReviewerID == reviewerID {
			return &rv, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *reviewRepo) DriverRating(ctx context.Context, driverID int64) (int, int, error) {
	r.s.lock()
	defer r.s.unlock()

	var sum, count int
	for _, rv := range r.s.data.reviews {
		if rv.DriverID == driverID {
			sum += rv.Rating
			count++
		}
	}
	return sum, count, nil
}
