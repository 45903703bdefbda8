package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"parkshare/pkg/models"
	"parkshare/storage"
	"parkshare/storage/memory"
)

func TestSweepETAExpiresOnce(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(30, 5)

	f.clock.Advance(4*time.Minute + 59*time.Second)
	if got := f.svc.Sweeper().RunOnce(f.ctx); got.ETAExpired != 0 {
		t.Fatalf("ETAExpired = %d before the deadline, want 0", got.ETAExpired)
	}

	f.clock.Advance(time.Second)
	if got := f.svc.Sweeper().RunOnce(f.ctx); got.ETAExpired != 1 {
		t.Fatalf("ETAExpired = %d at the deadline, want 1", got.ETAExpired)
	}

	for i := 0; i < 3; i++ {
		f.clock.Advance(30 * time.Second)
		f.svc.Sweeper().RunOnce(f.ctx)
	}

	if n := ofType(f.inbox(f.driver.ID), models.NotifyETAExpired); len(n) != 1 {
		t.Errorf("driver has %d eta_expired, want 1", len(n))
	}
	if n := ofType(f.inbox(f.owner.ID), models.NotifyReservationExpired); len(n) != 1 {
		t.Errorf("owner has %d reservation_expired, want 1", len(n))
	}

	// Clearing the inbox must not make the sweeper notify again.
	if _, err := f.svc.Notification().ClearAll(f.ctx, f.driver.ID); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(time.Minute)
	f.svc.Sweeper().RunOnce(f.ctx)
	if n := ofType(f.inbox(f.driver.ID), models.NotifyETAExpired); len(n) != 0 {
		t.Errorf("driver got %d eta_expired after clearing, want 0", len(n))
	}

	if got := f.reservation(r.ID).Status; got != models.StatusPending {
		t.Errorf("expired ETA changed status to %s", got)
	}
	f.checkInvariant()
}

func TestSweepPenaltyAccrues(t *testing.T) {
	f := newFixture(t)
	r := f.arrive(f.reserve(10, 0))
	if _, err := f.svc.Reservation().RejectExtraTime(f.ctx, r.ID, f.owner.ID); err != nil {
		t.Fatal(err)
	}

	steps := []struct {
		at   time.Duration
		want int64
	}{
		{9 * time.Minute, 0},
		{14*time.Minute + 59*time.Second, 0},
		{15*time.Minute + time.Second, 500},
		{19 * time.Minute, 500},
		{20*time.Minute + time.Second, 1000},
	}

	start := f.clock.Now()
	for _, step := range steps {
		f.clock.Advance(start.Add(step.at).Sub(f.clock.Now()))
		f.svc.Sweeper().RunOnce(f.ctx)
		if got := f.reservation(r.ID).PenaltyAmount; got != step.want {
			t.Fatalf("penalty at +%v = %d, want %d", step.at, got, step.want)
		}
	}

	got, err := f.svc.Reservation().Finish(f.ctx, r.ID, f.driver.ID)
	if err != nil {
		t.Fatal(err)
	}
	// 20m01s bills 21 minutes plus two penalty periods.
	if want := int64(21*100 + 1000); *got.TotalAmount != want {
		t.Errorf("total = %d, want %d", *got.TotalAmount, want)
	}
}

func TestSweepPenaltyNeedsRejection(t *testing.T) {
	f := newFixture(t)
	r := f.arrive(f.reserve(10, 0))

	f.clock.Advance(40 * time.Minute)
	report := f.svc.Sweeper().RunOnce(f.ctx)

	if report.Overdue != 1 {
		t.Errorf("Overdue = %d, want 1", report.Overdue)
	}
	if report.PenaltiesUpdated != 0 || f.reservation(r.ID).PenaltyAmount != 0 {
		t.Error("penalty accrued without a rejected extra-time request")
	}
}

// failingReservations fails MarkETANotified for one reservation.
type failingReservations struct {
	storage.IReservationStorage
	failID int64
}

func (r failingReservations) MarkETANotified(ctx context.Context, id int64, at time.Time) (bool, error) {
	if id == r.failID {
		return false, errors.New("connection reset")
	}
	return r.IReservationStorage.MarkETANotified(ctx, id, at)
}

type failingStore struct {
	*memory.Store
	failID int64
}

func (s *failingStore) Reservation() storage.IReservationStorage {
	return failingReservations{IReservationStorage: s.Store.Reservation(), failID: s.failID}
}

func TestSweepIsolatesRowFailures(t *testing.T) {
	stg := &failingStore{Store: memory.New()}
	f := newFixtureWithStore(t, stg)

	first := f.reserve(30, 1)
	stg.failID = first.ID

	second := f.newParking("Garage Norte")
	r2, err := f.svc.Reservation().Create(f.ctx, f.driver.ID, models.CreateReservation{
		ParkingID:       second.ID,
		DurationMinutes: 30,
		ETAMinutes:      1,
	})
	if err != nil {
		t.Fatal(err)
	}

	f.clock.Advance(2 * time.Minute)
	report := f.svc.Sweeper().RunOnce(f.ctx)

	if report.Failures != 1 || report.ETAExpired != 1 {
		t.Fatalf("report = %+v, want one failure and one expiry", report)
	}
	expired := ofType(f.inbox(f.driver.ID), models.NotifyETAExpired)
	if len(expired) != 1 || *expired[0].ReservationID != r2.ID {
		t.Errorf("eta_expired = %+v, want one for reservation %d", expired, r2.ID)
	}
}
