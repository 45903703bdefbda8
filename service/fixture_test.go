package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"parkshare/pkg/events"
	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
	"parkshare/storage/memory"
)

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	stg   storage.IStorage
	clock *manualClock
	pub   *recordingPublisher
	svc   IServiceManager

	driver   *models.User
	owner    *models.User
	stranger *models.User
	parking  *models.Parking
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memory.New())
}

func newFixtureWithStore(t *testing.T, stg storage.IStorage) *fixture {
	t.Helper()

	f := &fixture{
		t:     t,
		ctx:   context.Background(),
		stg:   stg,
		clock: newManualClock(),
		pub:   &recordingPublisher{},
	}
	f.svc = New(stg, logger.NewNop(), Deps{
		Billing:            models.DefaultBilling(),
		MinDurationMinutes: 10,
		BcryptCost:         4,
		Clock:              f.clock,
		Publisher:          f.pub,
	})

	f.driver = f.user("Driver", "driver@example.com", models.RoleDriver)
	f.owner = f.user("Owner", "owner@example.com", models.RoleLandlord)
	f.stranger = f.user("Stranger", "stranger@example.com", models.RoleDriver)
	f.parking = f.newParking("Garage Centro")
	return f
}

func (f *fixture) user(name, email, role string) *models.User {
	f.t.Helper()
	u, err := f.stg.User().Create(f.ctx, &models.User{Name: name, Email: email, Role: role})
	if err != nil {
		f.t.Fatalf("create user %s: %v", email, err)
	}
	return u
}

func (f *fixture) newParking(name string) *models.Parking {
	f.t.Helper()
	p, err := f.stg.Parking().Create(f.ctx, &models.Parking{OwnerID: f.owner.ID, Name: name, Active: true})
	if err != nil {
		f.t.Fatalf("create parking: %v", err)
	}
	return p
}

func (f *fixture) reserve(duration, eta int) *models.Reservation {
	f.t.Helper()
	r, err := f.svc.Reservation().Create(f.ctx, f.driver.ID, models.CreateReservation{
		ParkingID:       f.parking.ID,
		DurationMinutes: duration,
		ETAMinutes:      eta,
	})
	if err != nil {
		f.t.Fatalf("create reservation: %v", err)
	}
	return r
}

func (f *fixture) arrive(r *models.Reservation) *models.Reservation {
	f.t.Helper()
	r, err := f.svc.Reservation().MarkArrived(f.ctx, r.ID, f.driver.ID)
	if err != nil {
		f.t.Fatalf("mark arrived: %v", err)
	}
	return r
}

func (f *fixture) inbox(userID int64) []*models.Notification {
	f.t.Helper()
	list, err := f.svc.Notification().ListForUser(f.ctx, userID)
	if err != nil {
		f.t.Fatalf("list notifications: %v", err)
	}
	return list
}

func (f *fixture) reservation(id int64) *models.Reservation {
	f.t.Helper()
	r, err := f.stg.Reservation().GetByID(f.ctx, id)
	if err != nil {
		f.t.Fatalf("get reservation: %v", err)
	}
	return r
}

func (f *fixture) parkingState() *models.Parking {
	f.t.Helper()
	p, err := f.stg.Parking().GetByID(f.ctx, f.parking.ID)
	if err != nil {
		f.t.Fatalf("get parking: %v", err)
	}
	return p
}

// checkInvariant asserts the spot is unavailable exactly while a live
// reservation holds it.
func (f *fixture) checkInvariant() {
	f.t.Helper()
	live, err := f.stg.Reservation().GetByStatus(f.ctx, models.LiveStatuses...)
	if err != nil {
		f.t.Fatal(err)
	}
	holders := 0
	for _, r := range live {
		if r.ParkingID == f.parking.ID {
			holders++
		}
	}
	p := f.parkingState()
	if holders > 1 {
		f.t.Fatalf("%d live reservations on one parking", holders)
	}
	if p.Active == (holders == 1) {
		f.t.Fatalf("parking active=%v with %d live reservations", p.Active, holders)
	}
	if p.OccupiedSince != nil && holders == 0 {
		f.t.Fatal("occupied_since set on a free parking")
	}
}

func ofType(list []*models.Notification, typ models.NotificationType) []*models.Notification {
	var out []*models.Notification
	for _, n := range list {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func forReservation(list []*models.Notification, id int64) []*models.Notification {
	var out []*models.Notification
	for _, n := range list {
		if n.ReservationID != nil && *n.ReservationID == id {
			out = append(out, n)
		}
	}
	return out
}
