// Package events publishes reservation lifecycle events to RabbitMQ.
// Publishing is best-effort: callers log failures and move on.
package events

import (
	"context"
	"time"
)

const (
	ReservationCreated   = "reservation.created"
	ReservationArrived   = "reservation.arrived"
	ReservationCancelled = "reservation.cancelled"
	ReservationCompleted = "reservation.completed"
)

type Event struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	ReservationID  int64     `json:"reservation_id"`
	DriverID       int64     `json:"driver_id"`
	OwnerID        int64     `json:"owner_id"`
	ParkingID      int64     `json:"parking_id"`
	Status         string    `json:"status"`
	ActorID        int64     `json:"actor_id,omitempty"`
	ElapsedMinutes *int      `json:"elapsed_minutes,omitempty"`
	TotalAmount    *int64    `json:"total_amount,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, event Event) error { return nil }

func (Nop) Close() error { return nil }
