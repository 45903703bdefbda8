package service

import (
	"time"

	"parkshare/pkg/models"
)

// elapsedMinutesCeil is used for the bill: whole seconds, rounded up to a
// minute. A negative span counts as zero.
func elapsedMinutesCeil(since, now time.Time) int {
	secs := int64(now.Sub(since) / time.Second)
	if secs <= 0 {
		return 0
	}
	return int((secs + 59) / 60)
}

// elapsedMinutesFloor is used for overtime: only completed minutes count.
func elapsedMinutesFloor(since, now time.Time) int {
	d := now.Sub(since)
	if d <= 0 {
		return 0
	}
	return int(d / time.Minute)
}

// penaltyFor charges PenaltyPerPeriod for every full period past the
// planned duration.
func penaltyFor(b models.Billing, elapsedMinutes, durationMinutes int) int64 {
	overtime := elapsedMinutes - durationMinutes
	if overtime <= 0 || b.PenaltyPeriodMinutes <= 0 {
		return 0
	}
	return int64(overtime/b.PenaltyPeriodMinutes) * b.PenaltyPerPeriod
}

// bill computes the snapshot written when a reservation finishes.
func bill(b models.Billing, r *models.Reservation, now time.Time) (models.CompleteReservation, bool) {
	c := models.CompleteReservation{FinishedAt: now}

	if r.OccupiedSince == nil {
		if b.NoShowBilling {
			c.ElapsedMinutes = r.DurationMinutes
		}
		c.TotalAmount = int64(c.ElapsedMinutes) * b.RatePerMinute
		return c, true
	}

	c.ElapsedMinutes = elapsedMinutesCeil(*r.OccupiedSince, now)
	c.PenaltyAmount = r.PenaltyAmount
	if r.PenaltyActive {
		c.PenaltyAmount = penaltyFor(b, elapsedMinutesFloor(*r.OccupiedSince, now), r.DurationMinutes)
	}
	c.TotalAmount = int64(c.ElapsedMinutes)*b.RatePerMinute + c.PenaltyAmount
	return c, false
}
