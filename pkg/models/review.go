package models

import "time"

type Review struct {
	ID            int64     `json:"id"`
	ReviewerID    int64     `json:"reviewer_id"`
	DriverID      int64     `json:"driver_id"`
	ParkingID     int64     `json:"parking_id"`
	ReservationID *int64    `json:"reservation_id"`
	Rating        int       `json:"rating"`
	Comment       string    `json:"comment"`
	CreatedAt     time.Time `json:"created_at"`
}

type SubmitReview struct {
	ReservationID int64  `json:"reservation_id" validate:"required,gt=0"`
	Rating        int    `json:"rating" validate:"min=1,max=5"`
	Comment       string `json:"comment" validate:"max=1000"`
}

type DriverStats struct {
	DriverID       int64   `json:"driver_id"`
	CompletedCount int     `json:"completed_count"`
	RatingCount    int     `json:"rating_count"`
	RatingAverage  float64 `json:"rating_average"`
}
