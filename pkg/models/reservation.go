package models

import "time"

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusArrived   ReservationStatus = "arrived"
	StatusActive    ReservationStatus = "active"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
)

var (
	// LiveStatuses hold the parking spot.
	LiveStatuses = []ReservationStatus{StatusPending, StatusArrived, StatusActive}
	// OccupiedStatuses are the live statuses in which the car is parked.
	OccupiedStatuses = []ReservationStatus{StatusArrived, StatusActive}
)

func (s ReservationStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s ReservationStatus) IsOccupied() bool {
	return s == StatusArrived || s == StatusActive
}

type Reservation struct {
	ID              int64             `json:"id"`
	DriverID        int64             `json:"driver_id"`
	ParkingID       int64             `json:"parking_id"`
	Status          ReservationStatus `json:"status"`
	DurationMinutes int               `json:"duration_minutes"`
	ETAMinutes      int               `json:"eta_minutes"`
	PenaltyActive   bool              `json:"penalty_active"`
	PenaltyAmount   int64             `json:"penalty_amount"`
	ETANotifiedAt   *time.Time        `json:"eta_notified_at,omitempty"`
	FinishedAt      *time.Time        `json:"finished_at,omitempty"`
	ElapsedMinutes  *int              `json:"elapsed_minutes,omitempty"`
	TotalAmount     *int64            `json:"total_amount,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`

	// Read from the parking row.
	OwnerID       int64      `json:"owner_id"`
	ParkingName   string     `json:"parking_name"`
	OccupiedSince *time.Time `json:"occupied_since,omitempty"`
}

// IsParty reports whether userID is the driver or the owner of the spot.
func (r *Reservation) IsParty(userID int64) bool {
	return userID == r.DriverID || userID == r.OwnerID
}

// Counterparty returns the other side of the reservation.
func (r *Reservation) Counterparty(userID int64) int64 {
	if userID == r.DriverID {
		return r.OwnerID
	}
	return r.DriverID
}

type CreateReservation struct {
	ParkingID       int64 `json:"parking_id" validate:"required,gt=0"`
	DurationMinutes int   `json:"duration_minutes" validate:"required,gt=0"`
	ETAMinutes      int   `json:"eta_minutes" validate:"gte=0"`
}

// CompleteReservation carries the billing snapshot written on finish.
type CompleteReservation struct {
	FinishedAt     time.Time
	ElapsedMinutes int
	PenaltyAmount  int64
	TotalAmount    int64
}
