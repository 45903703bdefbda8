package storage

import (
	"context"
	"time"

	"parkshare/pkg/models"
)

type IStorage interface {
	User() IUserStorage
	Parking() IParkingStorage
	Reservation() IReservationStorage
	Notification() INotificationStorage
	Review() IReviewStorage
	Geocode() IGeocodeStorage

	// Tx runs fn against a transactional view of the store. fn's error
	// rolls everything back; nested calls join the outer transaction.
	Tx(ctx context.Context, fn func(stg IStorage) error) error
	Ping(ctx context.Context) error
	Close()
}

type IUserStorage interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

type IParkingStorage interface {
	Create(ctx context.Context, parking *models.Parking) (*models.Parking, error)
	GetByID(ctx context.Context, id int64) (*models.Parking, error)
	GetByOwner(ctx context.Context, ownerID int64) ([]*models.Parking, error)
	GetActive(ctx context.Context, bbox *models.BBox) ([]*models.Parking, error)
	// Claim flips an available spot to unavailable. ErrConflict when the
	// spot is already taken.
	Claim(ctx context.Context, id int64) error
	// StartOccupancy stamps occupied_since on a claimed spot.
	StartOccupancy(ctx context.Context, id int64, since time.Time) error
	// Release makes the spot available again and clears occupied_since.
	Release(ctx context.Context, id int64) error
}

type IReservationStorage interface {
	Create(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error)
	GetByID(ctx context.Context, id int64) (*models.Reservation, error)
	// GetForUpdate reads the reservation and holds its row (and its
	// parking's) until the surrounding Tx ends.
	GetForUpdate(ctx context.Context, id int64) (*models.Reservation, error)
	// FindLive returns the live reservation of driverID on parkingID.
	FindLive(ctx context.Context, driverID, parkingID int64) (*models.Reservation, error)
	GetByDriver(ctx context.Context, driverID int64) ([]*models.Reservation, error)
	GetByOwner(ctx context.Context, ownerID int64) ([]*models.Reservation, error)
	GetByStatus(ctx context.Context, statuses ...models.ReservationStatus) ([]*models.Reservation, error)

	// UpdateStatus moves the reservation to `to` only if its current status
	// is one of `from`. ErrConflict otherwise.
	UpdateStatus(ctx context.Context, id int64, from []models.ReservationStatus, to models.ReservationStatus) error
	AddDuration(ctx context.Context, id int64, extraMinutes int) error
	ArmPenalty(ctx context.Context, id int64) error
	SetPenaltyAmount(ctx context.Context, id int64, amount int64) error
	Complete(ctx context.Context, id int64, from []models.ReservationStatus, c models.CompleteReservation) error
	// MarkETANotified sets eta_notified_at if it is still empty and
	// reports whether this call was the one that set it.
	MarkETANotified(ctx context.Context, id int64, at time.Time) (bool, error)
	CountCompletedByDriver(ctx context.Context, driverID int64) (int, error)
}

type INotificationStorage interface {
	Create(ctx context.Context, n *models.Notification) (*models.Notification, error)
	GetByUser(ctx context.Context, userID int64) ([]*models.Notification, error)
	Find(ctx context.Context, filter models.NotificationFilter) ([]*models.Notification, error)
	Delete(ctx context.Context, filter models.NotificationFilter) (int64, error)
	UpdateContent(ctx context.Context, id int64, message string, payload *models.NotificationPayload) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	DeleteByUser(ctx context.Context, userID int64) (int64, error)
}

type IReviewStorage interface {
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	GetByReservation(ctx context.Context, reservationID, reviewerID int64) (*models.Review, error)
	// DriverRating returns the sum and count of ratings left for driverID.
	DriverRating(ctx context.Context, driverID int64) (sum int, count int, err error)
}

type IGeocodeStorage interface {
	Get(ctx context.Context, query string) (*models.GeocodeEntry, error)
	Put(ctx context.Context, entry *models.GeocodeEntry) error
}
