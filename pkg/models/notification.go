package models

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotifyNewReservation       NotificationType = "new_reservation"
	NotifyActiveReservation    NotificationType = "active_reservation"
	NotifyDriverArrived        NotificationType = "driver_arrived"
	NotifyVehicleParked        NotificationType = "vehicle_parked"
	NotifyExtraTimeRequest     NotificationType = "extra_time_request"
	NotifyExtraTimeApproved    NotificationType = "extra_time_approved"
	NotifyExtraTimeRejected    NotificationType = "extra_time_rejected"
	NotifyReservationCancelled NotificationType = "reservation_cancelled"
	NotifyReservationCompleted NotificationType = "reservation_completed"
	NotifyReservationExpired   NotificationType = "reservation_expired"
	NotifyETAExpired           NotificationType = "eta_expired"
	NotifyArrivedConfirmation  NotificationType = "arrived_confirmation"
	NotifyAtVehicle            NotificationType = "at_vehicle"
)

// NotificationTypes is the full vocabulary clients understand.
var NotificationTypes = []NotificationType{
	NotifyNewReservation,
	NotifyActiveReservation,
	NotifyDriverArrived,
	NotifyVehicleParked,
	NotifyExtraTimeRequest,
	NotifyExtraTimeApproved,
	NotifyExtraTimeRejected,
	NotifyETAExpired,
	NotifyReservationExpired,
	NotifyReservationCancelled,
	NotifyReservationCompleted,
	NotifyArrivedConfirmation,
	NotifyAtVehicle,
}

func (t NotificationType) Valid() bool {
	for _, known := range NotificationTypes {
		if t == known {
			return true
		}
	}
	return false
}

// PendingPhaseTypes are the notifications that only make sense before the
// driver arrives.
var PendingPhaseTypes = []NotificationType{
	NotifyActiveReservation,
	NotifyNewReservation,
	NotifyETAExpired,
	NotifyReservationExpired,
}

type NotificationStatus string

const (
	NotificationUnread NotificationStatus = "unread"
	NotificationRead   NotificationStatus = "read"
)

type Notification struct {
	ID            int64                `json:"id"`
	UserID        int64                `json:"user_id"`
	Message       string               `json:"message"`
	Type          NotificationType     `json:"type"`
	Status        NotificationStatus   `json:"status"`
	ReservationID *int64               `json:"reservation_id"`
	OwnerID       *int64               `json:"owner_id"`
	ETAMinutes    *int                 `json:"eta"`
	Payload       *NotificationPayload `json:"extra_data,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// NotificationPayload is the structured part of a notification. Which
// fields are set depends on the notification type.
type NotificationPayload struct {
	ParkingID       int64      `json:"parking_id,omitempty"`
	ParkingName     string     `json:"parking_name,omitempty"`
	DurationMinutes int        `json:"duration_minutes,omitempty"`
	ETAMinutes      *int       `json:"eta_minutes,omitempty"`
	OccupiedSince   *time.Time `json:"occupied_since,omitempty"`
	ExtraMinutes    int        `json:"extra_minutes,omitempty"`
	ElapsedMinutes  *int       `json:"elapsed_minutes,omitempty"`
	PenaltyAmount   *int64     `json:"penalty_amount,omitempty"`
	TotalAmount     *int64     `json:"total_amount,omitempty"`
	CancelledBy     *int64     `json:"cancelled_by,omitempty"`
	CancelledByRole string     `json:"cancelled_by_role,omitempty"`
	Warning         string     `json:"warning,omitempty"`
	NoShow          bool       `json:"no_show,omitempty"`
}

// EncodePayload returns nil for a nil payload so the column stays NULL.
func EncodePayload(p *NotificationPayload) ([]byte, error) {
	if p == nil {
		return nil, nil
	}
	return json.Marshal(p)
}

func DecodePayload(raw []byte) (*NotificationPayload, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var p NotificationPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// NotificationFilter selects the notifications of one reservation.
// Empty Types matches every type; nil UserID matches every recipient.
type NotificationFilter struct {
	ReservationID int64
	Types         []NotificationType
	UserID        *int64
}

func (f NotificationFilter) Match(n *Notification) bool {
	if n.ReservationID == nil || *n.ReservationID != f.ReservationID {
		return false
	}
	if f.UserID != nil && n.UserID != *f.UserID {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if n.Type == t {
			return true
		}
	}
	return false
}

func NotificationTypeStrings(types []NotificationType) []string {
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}
