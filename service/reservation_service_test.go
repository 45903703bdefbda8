package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"parkshare/pkg/events"
	"parkshare/pkg/models"
	"parkshare/storage"
	"parkshare/storage/memory"
)

func TestCreateReservation(t *testing.T) {
	f := newFixture(t)

	r := f.reserve(30, 0)

	if r.Status != models.StatusPending {
		t.Errorf("status = %s, want pending", r.Status)
	}
	if f.parkingState().Active {
		t.Error("parking should be unavailable after reservation")
	}
	f.checkInvariant()

	inbox := f.inbox(f.owner.ID)
	if len(inbox) != 1 {
		t.Fatalf("owner has %d notifications, want 1", len(inbox))
	}
	n := inbox[0]
	if n.Type != models.NotifyNewReservation {
		t.Errorf("type = %s, want new_reservation", n.Type)
	}
	if n.ETAMinutes == nil || *n.ETAMinutes != 0 {
		t.Errorf("eta = %v, want 0", n.ETAMinutes)
	}
	if n.ReservationID == nil || *n.ReservationID != r.ID {
		t.Errorf("reservation_id = %v, want %d", n.ReservationID, r.ID)
	}
	if n.Payload == nil || n.Payload.DurationMinutes != 30 {
		t.Errorf("payload = %+v, want duration 30", n.Payload)
	}

	if diff := cmp.Diff([]string{events.ReservationCreated}, f.pub.types()); diff != "" {
		t.Errorf("published events mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateReservationRejects(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture) (driverID int64, req models.CreateReservation)
		wantErr error
	}{
		{
			name: "duration below minimum",
			setup: func(f *fixture) (int64, models.CreateReservation) {
				return f.driver.ID, models.CreateReservation{ParkingID: f.parking.ID, DurationMinutes: 5}
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "negative eta",
			setup: func(f *fixture) (int64, models.CreateReservation) {
				return f.driver.ID, models.CreateReservation{ParkingID: f.parking.ID, DurationMinutes: 30, ETAMinutes: -1}
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "landlord cannot reserve",
			setup: func(f *fixture) (int64, models.CreateReservation) {
				other := f.user("Other", "other@example.com", models.RoleLandlord)
				return other.ID, models.CreateReservation{ParkingID: f.parking.ID, DurationMinutes: 30}
			},
			wantErr: ErrForbidden,
		},
		{
			name: "unknown parking",
			setup: func(f *fixture) (int64, models.CreateReservation) {
				return f.driver.ID, models.CreateReservation{ParkingID: 9999, DurationMinutes: 30}
			},
			wantErr: ErrNotFound,
		},
		{
			name: "unknown driver",
			setup: func(f *fixture) (int64, models.CreateReservation) {
				return 9999, models.CreateReservation{ParkingID: f.parking.ID, DurationMinutes: 30}
			},
			wantErr: ErrNotFound,
		},
		{
			name: "duplicate live reservation",
			setup: func(f *fixture) (int64, models.CreateReservation) {
				f.reserve(30, 5)
				return f.driver.ID, models.CreateReservation{ParkingID: f.parking.ID, DurationMinutes: 30}
			},
			wantErr: ErrDuplicateActiveReservation,
		},
		{
			name: "spot held by someone else",
			setup: func(f *fixture) (int64, models.CreateReservation) {
				f.reserve(30, 5)
				return f.stranger.ID, models.CreateReservation{ParkingID: f.parking.ID, DurationMinutes: 30}
			},
			wantErr: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			driverID, req := tt.setup(f)

			_, err := f.svc.Reservation().Create(f.ctx, driverID, req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
			}
			f.checkInvariant()
		})
	}
}

func TestMarkArrived(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(30, 5)

	// A missed ETA leaves pending-phase notifications behind.
	f.clock.Advance(6 * time.Minute)
	f.svc.Sweeper().RunOnce(f.ctx)
	if got := len(ofType(f.inbox(f.owner.ID), models.NotifyReservationExpired)); got != 1 {
		t.Fatalf("owner has %d reservation_expired, want 1", got)
	}

	f.clock.Advance(time.Minute)
	arrivedAt := f.clock.Now()
	r = f.arrive(r)

	if r.Status != models.StatusActive {
		t.Errorf("status = %s, want active", r.Status)
	}
	p := f.parkingState()
	if p.OccupiedSince == nil || !p.OccupiedSince.Equal(arrivedAt) {
		t.Errorf("occupied_since = %v, want %v", p.OccupiedSince, arrivedAt)
	}
	f.checkInvariant()

	for _, id := range []int64{f.owner.ID, f.driver.ID} {
		for _, typ := range models.PendingPhaseTypes {
			if got := ofType(f.inbox(id), typ); len(got) != 0 {
				t.Errorf("user %d still has %d %s notifications", id, len(got), typ)
			}
		}
	}

	arrived := ofType(f.inbox(f.owner.ID), models.NotifyDriverArrived)
	if len(arrived) != 1 {
		t.Fatalf("owner has %d driver_arrived, want 1", len(arrived))
	}
	parked := ofType(f.inbox(f.driver.ID), models.NotifyVehicleParked)
	if len(parked) != 1 {
		t.Fatalf("driver has %d vehicle_parked, want 1", len(parked))
	}
	if parked[0].Payload == nil || parked[0].Payload.OccupiedSince == nil {
		t.Error("vehicle_parked payload should carry occupied_since")
	}

	_, err := f.svc.Reservation().MarkArrived(f.ctx, r.ID, f.driver.ID)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second MarkArrived error = %v, want ErrInvalidTransition", err)
	}
}

func TestMarkArrivedByStranger(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(30, 5)

	_, err := f.svc.Reservation().MarkArrived(f.ctx, r.ID, f.stranger.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("MarkArrived() error = %v, want ErrForbidden", err)
	}
	if got := f.reservation(r.ID).Status; got != models.StatusPending {
		t.Errorf("status = %s, want pending", got)
	}
}

func TestCancelPendingByDriver(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(30, 5)

	got, err := f.svc.Reservation().Cancel(f.ctx, r.ID, f.driver.ID)
	if err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if got.Status != models.StatusCancelled {
		t.Errorf("status = %s, want cancelled", got.Status)
	}
	if !f.parkingState().Active {
		t.Error("parking should be available after cancel")
	}
	f.checkInvariant()

	ownerInbox := forReservation(f.inbox(f.owner.ID), r.ID)
	if len(ownerInbox) != 1 || ownerInbox[0].Type != models.NotifyReservationCancelled {
		t.Fatalf("owner inbox = %+v, want one reservation_cancelled", ownerInbox)
	}
	if p := ownerInbox[0].Payload; p == nil || p.CancelledByRole != models.RoleDriver || p.CancelledBy == nil || *p.CancelledBy != f.driver.ID {
		t.Errorf("payload = %+v, want cancelled by driver", p)
	}

	driverInbox := forReservation(f.inbox(f.driver.ID), r.ID)
	if len(driverInbox) != 1 || driverInbox[0].Type != models.NotifyReservationCancelled {
		t.Errorf("driver inbox = %+v, want one cancellation confirmation", driverInbox)
	}

	// The spot can be booked again.
	f.reserve(20, 0)
	f.checkInvariant()
}

func TestCancelRules(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(30, 5)

	if _, err := f.svc.Reservation().Cancel(f.ctx, r.ID, f.stranger.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("stranger cancel error = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.Reservation().Cancel(f.ctx, r.ID, f.owner.ID); err != nil {
		t.Fatalf("owner cancel error = %v", err)
	}
	if _, err := f.svc.Reservation().Cancel(f.ctx, r.ID, f.owner.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second cancel error = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.Reservation().Finish(f.ctx, r.ID, f.owner.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("finish after cancel error = %v, want ErrInvalidTransition", err)
	}
	if _, err := f.svc.Reservation().Cancel(f.ctx, 9999, f.owner.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cancel unknown error = %v, want ErrNotFound", err)
	}
	f.checkInvariant()
}

func TestFinishBillsElapsedTime(t *testing.T) {
	f := newFixture(t)
	r := f.arrive(f.reserve(30, 0))

	f.clock.Advance(12 * time.Minute)
	got, err := f.svc.Reservation().Finish(f.ctx, r.ID, f.driver.ID)
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	if got.Status != models.StatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.ElapsedMinutes == nil || *got.ElapsedMinutes != 12 {
		t.Errorf("elapsed = %v, want 12", got.ElapsedMinutes)
	}
	if got.TotalAmount == nil || *got.TotalAmount != 1200 {
		t.Errorf("total = %v, want 1200", got.TotalAmount)
	}

	p := f.parkingState()
	if !p.Active || p.OccupiedSince != nil {
		t.Errorf("parking = active %v occupied_since %v, want released", p.Active, p.OccupiedSince)
	}
	f.checkInvariant()

	stored := f.reservation(r.ID)
	if stored.TotalAmount == nil || *stored.TotalAmount != 1200 {
		t.Errorf("stored total = %v, want 1200", stored.TotalAmount)
	}

	for _, id := range []int64{f.owner.ID, f.driver.ID} {
		list := forReservation(f.inbox(id), r.ID)
		if len(list) != 1 || list[0].Type != models.NotifyReservationCompleted {
			t.Fatalf("user %d inbox = %+v, want one reservation_completed", id, list)
		}
		p := list[0].Payload
		if p == nil || p.TotalAmount == nil || *p.TotalAmount != 1200 || p.ElapsedMinutes == nil || *p.ElapsedMinutes != 12 {
			t.Errorf("payload = %+v, want elapsed 12 total 1200", p)
		}
	}

	want := []string{events.ReservationCreated, events.ReservationArrived, events.ReservationCompleted}
	if diff := cmp.Diff(want, f.pub.types()); diff != "" {
		t.Errorf("published events mismatch (-want +got):\n%s", diff)
	}
}

func TestFinishRules(t *testing.T) {
	t.Run("driver cannot finish before arriving", func(t *testing.T) {
		f := newFixture(t)
		r := f.reserve(30, 5)
		if _, err := f.svc.Reservation().Finish(f.ctx, r.ID, f.driver.ID); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Finish() error = %v, want ErrInvalidTransition", err)
		}
		f.checkInvariant()
	})

	t.Run("owner closes a no-show", func(t *testing.T) {
		f := newFixture(t)
		r := f.reserve(30, 5)
		got, err := f.svc.Reservation().Finish(f.ctx, r.ID, f.owner.ID)
		if err != nil {
			t.Fatalf("Finish() error = %v", err)
		}
		if *got.ElapsedMinutes != 30 || *got.TotalAmount != 3000 {
			t.Errorf("got elapsed %d total %d, want 30 and 3000", *got.ElapsedMinutes, *got.TotalAmount)
		}
		n := ofType(f.inbox(f.driver.ID), models.NotifyReservationCompleted)
		if len(n) != 1 || n[0].Payload == nil || !n[0].Payload.NoShow {
			t.Errorf("driver completion = %+v, want no_show flag", n)
		}
		f.checkInvariant()
	})

	t.Run("stranger", func(t *testing.T) {
		f := newFixture(t)
		r := f.arrive(f.reserve(30, 0))
		if _, err := f.svc.Reservation().Finish(f.ctx, r.ID, f.stranger.ID); !errors.Is(err, ErrForbidden) {
			t.Fatalf("Finish() error = %v, want ErrForbidden", err)
		}
	})
}

func TestExtraTimeApproved(t *testing.T) {
	f := newFixture(t)
	r := f.arrive(f.reserve(30, 0))

	if err := f.svc.Reservation().RequestExtraTime(f.ctx, r.ID, f.driver.ID, 20); err != nil {
		t.Fatalf("RequestExtraTime() error = %v", err)
	}
	requests := ofType(f.inbox(f.owner.ID), models.NotifyExtraTimeRequest)
	if len(requests) != 1 || requests[0].Payload == nil || requests[0].Payload.ExtraMinutes != 20 {
		t.Fatalf("owner requests = %+v, want one asking for 20", requests)
	}

	parkedBefore := ofType(f.inbox(f.driver.ID), models.NotifyVehicleParked)[0]

	got, err := f.svc.Reservation().ApproveExtraTime(f.ctx, r.ID, f.owner.ID, 20)
	if err != nil {
		t.Fatalf("ApproveExtraTime() error = %v", err)
	}
	if got.DurationMinutes != 50 {
		t.Errorf("duration = %d, want 50", got.DurationMinutes)
	}
	if stored := f.reservation(r.ID); stored.DurationMinutes != 50 {
		t.Errorf("stored duration = %d, want 50", stored.DurationMinutes)
	}

	if n := ofType(f.inbox(f.owner.ID), models.NotifyExtraTimeRequest); len(n) != 0 {
		t.Errorf("owner still has %d extra_time_request", len(n))
	}

	parked := ofType(f.inbox(f.driver.ID), models.NotifyVehicleParked)
	if len(parked) != 1 {
		t.Fatalf("driver has %d vehicle_parked, want 1", len(parked))
	}
	if parked[0].ID != parkedBefore.ID {
		t.Error("vehicle_parked should be updated in place")
	}
	if parked[0].Payload.DurationMinutes != 50 {
		t.Errorf("vehicle_parked duration = %d, want 50", parked[0].Payload.DurationMinutes)
	}
	if !parked[0].Payload.OccupiedSince.Equal(*parkedBefore.Payload.OccupiedSince) {
		t.Error("occupied_since should be preserved")
	}

	if n := ofType(f.inbox(f.driver.ID), models.NotifyExtraTimeApproved); len(n) != 1 {
		t.Errorf("driver has %d extra_time_approved, want 1", len(n))
	}
}

func TestExtraTimeRejectedArmsPenalty(t *testing.T) {
	f := newFixture(t)
	r := f.arrive(f.reserve(10, 0))

	if err := f.svc.Reservation().RequestExtraTime(f.ctx, r.ID, f.driver.ID, 10); err != nil {
		t.Fatal(err)
	}
	got, err := f.svc.Reservation().RejectExtraTime(f.ctx, r.ID, f.owner.ID)
	if err != nil {
		t.Fatalf("RejectExtraTime() error = %v", err)
	}
	if !got.PenaltyActive || !f.reservation(r.ID).PenaltyActive {
		t.Error("penalty should be armed")
	}
	if n := ofType(f.inbox(f.owner.ID), models.NotifyExtraTimeRequest); len(n) != 0 {
		t.Errorf("owner still has %d extra_time_request", len(n))
	}
	rejected := ofType(f.inbox(f.driver.ID), models.NotifyExtraTimeRejected)
	if len(rejected) != 1 || rejected[0].Payload == nil || rejected[0].Payload.Warning == "" {
		t.Errorf("driver rejected notices = %+v, want one with a warning", rejected)
	}
}

func TestExtraTimeRules(t *testing.T) {
	f := newFixture(t)
	pending := f.reserve(30, 5)

	tests := []struct {
		name    string
		call    func() error
		wantErr error
	}{
		{
			name:    "minutes outside the allowed set",
			call:    func() error { return f.svc.Reservation().RequestExtraTime(f.ctx, pending.ID, f.driver.ID, 15) },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "request before arriving",
			call:    func() error { return f.svc.Reservation().RequestExtraTime(f.ctx, pending.ID, f.driver.ID, 10) },
			wantErr: ErrInvalidTransition,
		},
		{
			name:    "owner cannot request",
			call:    func() error { return f.svc.Reservation().RequestExtraTime(f.ctx, pending.ID, f.owner.ID, 10) },
			wantErr: ErrForbidden,
		},
		{
			name: "driver cannot approve",
			call: func() error {
				_, err := f.svc.Reservation().ApproveExtraTime(f.ctx, pending.ID, f.driver.ID, 10)
				return err
			},
			wantErr: ErrForbidden,
		},
		{
			name: "approve invalid minutes",
			call: func() error {
				_, err := f.svc.Reservation().ApproveExtraTime(f.ctx, pending.ID, f.owner.ID, 45)
				return err
			},
			wantErr: ErrInvalidInput,
		},
		{
			name: "reject before arriving",
			call: func() error {
				_, err := f.svc.Reservation().RejectExtraTime(f.ctx, pending.ID, f.owner.ID)
				return err
			},
			wantErr: ErrInvalidTransition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if got := f.reservation(pending.ID); got.DurationMinutes != 30 || got.PenaltyActive {
		t.Errorf("rejected calls mutated the reservation: %+v", got)
	}
}

func TestCancelFinishRace(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t)
		r := f.arrive(f.reserve(30, 0))
		f.clock.Advance(5 * time.Minute)

		var (
			wg   sync.WaitGroup
			errs [2]error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, errs[0] = f.svc.Reservation().Cancel(f.ctx, r.ID, f.owner.ID)
		}()
		go func() {
			defer wg.Done()
			_, errs[1] = f.svc.Reservation().Finish(f.ctx, r.ID, f.driver.ID)
		}()
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case !errors.Is(err, ErrInvalidTransition):
				t.Fatalf("loser error = %v, want ErrInvalidTransition", err)
			}
		}
		if succeeded != 1 {
			t.Fatalf("%d of cancel/finish succeeded, want exactly 1", succeeded)
		}
		f.checkInvariant()
	}
}

func TestRoundTripRestoresParking(t *testing.T) {
	f := newFixture(t)
	before := f.parkingState()

	r := f.arrive(f.reserve(30, 0))
	f.clock.Advance(3 * time.Minute)
	if _, err := f.svc.Reservation().Finish(f.ctx, r.ID, f.owner.ID); err != nil {
		t.Fatal(err)
	}

	after := f.parkingState()
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("parking changed after a full cycle (-before +after):\n%s", diff)
	}
}

func TestForceFinish(t *testing.T) {
	f := newFixture(t)
	r := f.arrive(f.reserve(30, 0))
	f.clock.Advance(90 * time.Second)

	got, err := f.svc.Reservation().ForceFinish(f.ctx, r.ID)
	if err != nil {
		t.Fatalf("ForceFinish() error = %v", err)
	}
	if *got.ElapsedMinutes != 2 || *got.TotalAmount != 200 {
		t.Errorf("got elapsed %d total %d, want 2 and 200", *got.ElapsedMinutes, *got.TotalAmount)
	}
	if _, err := f.svc.Reservation().ForceFinish(f.ctx, r.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("second ForceFinish error = %v, want ErrInvalidTransition", err)
	}
	f.checkInvariant()
}

func TestGetReservationAccess(t *testing.T) {
	f := newFixture(t)
	r := f.reserve(30, 0)

	for _, id := range []int64{f.driver.ID, f.owner.ID} {
		if _, err := f.svc.Reservation().Get(f.ctx, r.ID, id); err != nil {
			t.Errorf("Get() by party %d error = %v", id, err)
		}
	}
	if _, err := f.svc.Reservation().Get(f.ctx, r.ID, f.stranger.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Get() by stranger error = %v, want ErrForbidden", err)
	}

	owned, err := f.svc.Reservation().ListForOwner(f.ctx, f.owner.ID)
	if err != nil || len(owned) != 1 || owned[0].ID != r.ID {
		t.Errorf("ListForOwner() = %v, %v", owned, err)
	}
	live, err := f.svc.Reservation().FindLive(f.ctx, f.driver.ID, f.parking.ID)
	if err != nil || live.ID != r.ID {
		t.Errorf("FindLive() = %v, %v", live, err)
	}
}

// interleavingStore runs beforeGet once, on the next reservation read made
// outside a transaction, to let another transition commit in between.
type interleavingStore struct {
	*memory.Store
	beforeGet func()
}

func (s *interleavingStore) Reservation() storage.IReservationStorage {
	return interleavingReservations{IReservationStorage: s.Store.Reservation(), s: s}
}

type interleavingReservations struct {
	storage.IReservationStorage
	s *interleavingStore
}

func (r interleavingReservations) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	if hook := r.s.beforeGet; hook != nil {
		r.s.beforeGet = nil
		hook()
	}
	return r.IReservationStorage.GetByID(ctx, id)
}

func TestFinishBillsCommittedState(t *testing.T) {
	t.Run("arrival after owner's read", func(t *testing.T) {
		stg := &interleavingStore{Store: memory.New()}
		f := newFixtureWithStore(t, stg)
		r := f.reserve(60, 10)

		stg.beforeGet = func() {
			f.arrive(r)
			f.clock.Advance(30 * time.Minute)
		}
		got, err := f.svc.Reservation().Finish(f.ctx, r.ID, f.owner.ID)
		if err != nil {
			t.Fatalf("Finish() error = %v", err)
		}
		if got.ElapsedMinutes == nil || *got.ElapsedMinutes != 30 {
			t.Errorf("elapsed = %v, want 30", got.ElapsedMinutes)
		}
		if got.TotalAmount == nil || *got.TotalAmount != 3000 {
			t.Errorf("total = %v, want 3000", got.TotalAmount)
		}
		done := ofType(f.inbox(f.driver.ID), models.NotifyReservationCompleted)
		if len(done) != 1 || done[0].Payload == nil || done[0].Payload.NoShow {
			t.Errorf("driver completion = %+v, want one without no_show", done)
		}
		f.checkInvariant()
	})

	t.Run("rejection after driver's read", func(t *testing.T) {
		stg := &interleavingStore{Store: memory.New()}
		f := newFixtureWithStore(t, stg)
		r := f.arrive(f.reserve(10, 0))

		stg.beforeGet = func() {
			if _, err := f.svc.Reservation().RejectExtraTime(f.ctx, r.ID, f.owner.ID); err != nil {
				t.Fatalf("RejectExtraTime() error = %v", err)
			}
			f.clock.Advance(22 * time.Minute)
		}
		got, err := f.svc.Reservation().Finish(f.ctx, r.ID, f.driver.ID)
		if err != nil {
			t.Fatalf("Finish() error = %v", err)
		}
		if got.PenaltyAmount != 1000 {
			t.Errorf("penalty = %d, want 1000", got.PenaltyAmount)
		}
		if got.TotalAmount == nil || *got.TotalAmount != 3200 {
			t.Errorf("total = %v, want 3200", got.TotalAmount)
		}
	})

	t.Run("cancel after owner's read", func(t *testing.T) {
		stg := &interleavingStore{Store: memory.New()}
		f := newFixtureWithStore(t, stg)
		r := f.reserve(60, 10)

		stg.beforeGet = func() {
			if _, err := f.svc.Reservation().Cancel(f.ctx, r.ID, f.driver.ID); err != nil {
				t.Fatalf("Cancel() error = %v", err)
			}
		}
		_, err := f.svc.Reservation().Finish(f.ctx, r.ID, f.owner.ID)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Finish() error = %v, want ErrInvalidTransition", err)
		}
		if got := f.reservation(r.ID); got.Status != models.StatusCancelled {
			t.Errorf("status = %q, want cancelled", got.Status)
		}
		f.checkInvariant()
	})
}
