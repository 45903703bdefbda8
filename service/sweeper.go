package service

import (
	"context"
	"fmt"
	"time"

	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

// Sweeper runs the periodic expiry scans: missed ETAs, overdue occupancy
// and penalty accrual. A failure on one row never stops the rest.
type Sweeper struct {
	stg     storage.IStorage
	log     logger.ILogger
	notif   *notificationService
	clock   Clock
	billing models.Billing
}

type SweepReport struct {
	ETAExpired       int
	Overdue          int
	PenaltiesUpdated int
	Failures         int
}

func newSweeper(stg storage.IStorage, log logger.ILogger, notif *notificationService, clock Clock, billing models.Billing) *Sweeper {
	return &Sweeper{stg: stg, log: log, notif: notif, clock: clock, billing: billing}
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	s.log.Info("expiry sweeper started", logger.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("expiry sweeper stopped")
			return
		case <-ticker.C:
			report := s.RunOnce(ctx)
			if report.Failures > 0 {
				s.log.Warning("sweep finished with failures", logger.Int("failures", report.Failures))
			}
		}
	}
}

func (s *Sweeper) RunOnce(ctx context.Context) SweepReport {
	now := s.clock.Now()

	var report SweepReport
	s.scanETA(ctx, now, &report)
	s.scanOverdue(ctx, now, &report)
	s.scanPenalties(ctx, now, &report)

	s.log.Debug("sweep done",
		logger.Int("eta_expired", report.ETAExpired),
		logger.Int("overdue", report.Overdue),
		logger.Int("penalties_updated", report.PenaltiesUpdated))
	return report
}

func (s *Sweeper) scanETA(ctx context.Context, now time.Time, report *SweepReport) {
	pending, err := s.stg.Reservation().GetByStatus(ctx, models.StatusPending)
	if err != nil {
		s.log.Error("eta scan: failed to list pending reservations", logger.Error(err))
		report.Failures++
		return
	}

	for _, r := range pending {
		err := s.row("eta", r, func() error {
			deadline := r.CreatedAt.Add(time.Duration(r.ETAMinutes) * time.Minute)
			if r.ETANotifiedAt != nil || now.Before(deadline) {
				return nil
			}

			first, err := s.stg.Reservation().MarkETANotified(ctx, r.ID, now)
			if err != nil || !first {
				return err
			}

			report.ETAExpired++
			s.notif.emitAll(ctx, []models.Notification{
				{
					UserID:        r.DriverID,
					Type:          models.NotifyETAExpired,
					Message:       fmt.Sprintf(msg("eta_expired_driver"), r.ParkingName),
					ReservationID: ptr(r.ID),
					OwnerID:       ptr(r.OwnerID),
					ETAMinutes:    ptr(r.ETAMinutes),
				},
				{
					UserID:        r.OwnerID,
					Type:          models.NotifyReservationExpired,
					Message:       fmt.Sprintf(msg("reservation_expired"), r.ParkingName),
					ReservationID: ptr(r.ID),
					OwnerID:       ptr(r.OwnerID),
					ETAMinutes:    ptr(r.ETAMinutes),
				},
			})
			return nil
		})
		if err != nil {
			report.Failures++
		}
	}
}

// scanOverdue only reports. Overdue occupancy is billed on finish.
func (s *Sweeper) scanOverdue(ctx context.Context, now time.Time, report *SweepReport) {
	occupied, err := s.stg.Reservation().GetByStatus(ctx, models.OccupiedStatuses...)
	if err != nil {
		s.log.Error("overdue scan: failed to list occupied reservations", logger.Error(err))
		report.Failures++
		return
	}

	for _, r := range occupied {
		err := s.row("overdue", r, func() error {
			if r.OccupiedSince == nil {
				return nil
			}
			elapsed := elapsedMinutesFloor(*r.OccupiedSince, now)
			if elapsed >= r.DurationMinutes {
				report.Overdue++
				s.log.Debug("reservation overdue",
					logger.Int64("reservation_id", r.ID),
					logger.Int("elapsed_minutes", elapsed),
					logger.Int("duration_minutes", r.DurationMinutes))
			}
			return nil
		})
		if err != nil {
			report.Failures++
		}
	}
}

func (s *Sweeper) scanPenalties(ctx context.Context, now time.Time, report *SweepReport) {
	occupied, err := s.stg.Reservation().GetByStatus(ctx, models.OccupiedStatuses...)
	if err != nil {
		s.log.Error("penalty scan: failed to list occupied reservations", logger.Error(err))
		report.Failures++
		return
	}

	for _, r := range occupied {
		err := s.row("penalty", r, func() error {
			if !r.PenaltyActive || r.OccupiedSince == nil {
				return nil
			}
			amount := penaltyFor(s.billing, elapsedMinutesFloor(*r.OccupiedSince, now), r.DurationMinutes)
			if amount == r.PenaltyAmount {
				return nil
			}
			if err := s.stg.Reservation().SetPenaltyAmount(ctx, r.ID, amount); err != nil {
				return err
			}
			report.PenaltiesUpdated++
			s.log.Info("penalty updated",
				logger.Int64("reservation_id", r.ID),
				logger.Int64("penalty_amount", amount))
			return nil
		})
		if err != nil {
			report.Failures++
		}
	}
}

// row runs one row of a scan, logging its error or panic.
func (s *Sweeper) row(scan string, r *models.Reservation, fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
		if err != nil {
			s.log.Error("sweep row failed",
				logger.String("scan", scan),
				logger.Int64("reservation_id", r.ID),
				logger.Error(err))
		}
	}()
	return fn()
}
