package service

import (
	"context"

	"github.com/go-playground/validator/v10"

	"parkshare/pkg/events"
	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

type IServiceManager interface {
	User() UserService
	Parking() ParkingService
	Reservation() ReservationService
	Notification() NotificationService
	Review() ReviewService
	Sweeper() *Sweeper
}

// Geocoder turns an address into coordinates. It never fails; unknown
// addresses come back as nil, nil.
type Geocoder interface {
	Resolve(ctx context.Context, addr models.Address) (lat, lon *float64)
}

// Pusher delivers a stored notification to an out-of-band channel.
type Pusher interface {
	Push(ctx context.Context, n *models.Notification)
}

type Deps struct {
	Billing            models.Billing
	MinDurationMinutes int
	BcryptCost         int

	Clock     Clock
	Geocoder  Geocoder
	Publisher events.Publisher
	Pusher    Pusher
}

type service struct {
	userService         UserService
	parkingService      ParkingService
	reservationService  ReservationService
	notificationService NotificationService
	reviewService       ReviewService
	sweeper             *Sweeper
}

var validate = validator.New()

func New(stg storage.IStorage, log logger.ILogger, deps Deps) IServiceManager {
	if deps.Clock == nil {
		deps.Clock = SystemClock
	}
	if deps.Publisher == nil {
		deps.Publisher = events.Nop{}
	}
	if deps.MinDurationMinutes <= 0 {
		deps.MinDurationMinutes = 10
	}

	notifications := newNotificationService(stg, log, deps.Clock, deps.Pusher)

	return &service{
		userService:         NewUserService(stg, log, deps.BcryptCost),
		parkingService:      NewParkingService(stg, log, deps.Geocoder),
		reservationService:  newReservationService(stg, log, notifications, deps),
		notificationService: notifications,
		reviewService:       NewReviewService(stg, log),
		sweeper:             newSweeper(stg, log, notifications, deps.Clock, deps.Billing),
	}
}

func (s *service) User() UserService {
	return s.userService
}

func (s *service) Parking() ParkingService {
	return s.parkingService
}

func (s *service) Reservation() ReservationService {
	return s.reservationService
}

func (s *service) Notification() NotificationService {
	return s.notificationService
}

func (s *service) Review() ReviewService {
	return s.reviewService
}

func (s *service) Sweeper() *Sweeper {
	return s.sweeper
}
