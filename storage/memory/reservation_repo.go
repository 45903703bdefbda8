package memory

import (
	"context"
	"sort"
	"time"

	"parkshare/pkg/models"
	"parkshare/storage"
)

type reservationRepo struct {
	s *Store
}

func (r *reservationRepo) Create(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error) {
	r.s.lock()
	defer r.s.unlock()

	if _, ok := r.s.data.parkings[reservation.ParkingID]; !ok {
		return nil, storage.ErrNotFound
	}

	res := *reservation
	res.ID = r.s.nextID()
	res.CreatedAt = nowIfZero(res.CreatedAt)
	r.s.data.reservations[res.ID] = res
	return r.joined(res), nil
}

// GetForUpdate is GetByID; inside Tx the store lock already excludes
// every other writer.
func (r *reservationRepo) GetForUpdate(ctx context.Context, id int64) (*models.Reservation, error) {
	return r.GetByID(ctx, id)
}

func (r *reservationRepo) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	r.s.lock()
	defer r.s.unlock()

	res, ok := r.s.data.reservations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return r.joined(res), nil
}

func (r *reservationRepo) FindLive(ctx context.Context, driverID, parkingID int64) (*models.Reservation, error) {
	list := r.filter(func(res models.Reservation) bool {
		return res.DriverID == driverID && res.ParkingID == parkingID && !res.Status.IsTerminal()
	})
	if len(list) == 0 {
		return nil, storage.ErrNotFound
	}
	return list[0], nil
}

func (r *reservationRepo) GetByDriver(ctx context.Context, driverID int64) ([]*models.Reservation, error) {
	return r.filter(func(res models.Reservation) bool { return res.DriverID == driverID }), nil
}

func (r *reservationRepo) GetByOwner(ctx context.Context, ownerID int64) ([]*models.Reservation, error) {
	r.s.lock()
	owned := map[int64]bool{}
	for _, p := range r.s.data.parkings {
		if p.OwnerID == ownerID {
			owned[p.ID] = true
		}
	}
	r.s.unlock()

	return r.filter(func(res models.Reservation) bool { return owned[res.ParkingID] }), nil
}

func (r *reservationRepo) GetByStatus(ctx context.Context, statuses ...models.ReservationStatus) ([]*models.Reservation, error) {
	return r.filter(func(res models.Reservation) bool { return containsStatus(statuses, res.Status) }), nil
}

func (r *reservationRepo) UpdateStatus(ctx context.Context, id int64, from []models.ReservationStatus, to models.ReservationStatus) error {
	return r.update(id, from, func(res *models.Reservation) {
		res.Status = to
	})
}

func (r *reservationRepo) AddDuration(ctx context.Context, id int64, extraMinutes int) error {
	return r.update(id, models.OccupiedStatuses, func(res *models.Reservation) {
		res.DurationMinutes += extraMinutes
	})
}

func (r *reservationRepo) ArmPenalty(ctx context.Context, id int64) error {
	return r.update(id, models.OccupiedStatuses, func(res *models.Reservation) {
		res.PenaltyActive = true
	})
}

func (r *reservationRepo) SetPenaltyAmount(ctx context.Context, id int64, amount int64) error {
	return r.update(id, models.OccupiedStatuses, func(res *models.Reservation) {
		res.PenaltyAmount = amount
	})
}

func (r *reservationRepo) Complete(ctx context.Context, id int64, from []models.ReservationStatus, c models.CompleteReservation) error {
	return r.update(id, from, func(res *models.Reservation) {
		finished := c.FinishedAt
		elapsed := c.ElapsedMinutes
		total := c.TotalAmount

		res.Status = models.StatusCompleted
		res.FinishedAt = &finished
		res.ElapsedMinutes = &elapsed
		res.PenaltyAmount = c.PenaltyAmount
		res.TotalAmount = &total
	})
}

func (r *reservationRepo) MarkETANotified(ctx context.Context, id int64, at time.Time) (bool, error) {
	r.s.lock()
	defer r.s.unlock()

	res, ok := r.s.data.reservations[id]
	if !ok {
		return false, storage.ErrNotFound
	}
	if res.ETANotifiedAt != nil {
		return false, nil
	}
	res.ETANotifiedAt = &at
	r.s.data.reservations[id] = res
	return true, nil
}

func (r *reservationRepo) CountCompletedByDriver(ctx context.Context, driverID int64) (int, error) {
	list := r.filter(func(res models.Reservation) bool {
		return res.DriverID == driverID && res.Status == models.StatusCompleted
	})
	return len(list), nil
}

func (r *reservationRepo) update(id int64, from []models.ReservationStatus, fn func(res *models.Reservation)) error {
	r.s.lock()
	defer r.s.unlock()

	res, ok := r.s.data.reservations[id]
	if !ok {
		return storage.ErrNotFound
	}
	if !containsStatus(from, res.Status) {
		return storage.ErrConflict
	}
	fn(&res)
	r.s.data.reservations[id] = res
	return nil
}

func (r *reservationRepo) filter(keep func(res models.Reservation) bool) []*models.Reservation {
	r.s.lock()
	defer r.s.unlock()

	var out []*models.Reservation
	for _, res := range r.s.data.reservations {
		if keep(res) {
			out = append(out, r.joined(res))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// joined fills the fields read from the parking row. Caller holds the lock.
func (r *reservationRepo) joined(res models.Reservation) *models.Reservation {
	if p, ok := r.s.data.parkings[res.ParkingID]; ok {
		res.OwnerID = p.OwnerID
		res.ParkingName = p.Name
		res.OccupiedSince = p.OccupiedSince
	}
	return &res
}
