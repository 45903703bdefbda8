package memory

import (
	"context"
	"sync"
	"time"

	"parkshare/pkg/models"
	"parkshare/storage"
)

// Store keeps everything in process memory. It is the last link of the
// storage fallback chain and the backing store of most tests.
type Store struct {
	mu   *sync.Mutex
	data *state
	inTx bool
}

type state struct {
	seq           int64
	users         map[int64]models.User
	parkings      map[int64]models.Parking
	reservations  map[int64]models.Reservation
	notifications map[int64]models.Notification
	reviews       map[int64]models.Review
	geocodes      map[string]models.GeocodeEntry
}

func New() *Store {
	return &Store{
		mu: &sync.Mutex{},
		data: &state{
			users:         map[int64]models.User{},
			parkings:      map[int64]models.Parking{},
			reservations:  map[int64]models.Reservation{},
			notifications: map[int64]models.Notification{},
			reviews:       map[int64]models.Review{},
			geocodes:      map[string]models.GeocodeEntry{},
		},
	}
}

func (s *Store) User() storage.IUserStorage                 { return &userRepo{s} }
func (s *Store) Parking() storage.IParkingStorage           { return &parkingRepo{s} }
func (s *Store) Reservation() storage.IReservationStorage   { return &reservationRepo{s} }
func (s *Store) Notification() storage.INotificationStorage { return &notificationRepo{s} }
func (s *Store) Review() storage.IReviewStorage             { return &reviewRepo{s} }
func (s *Store) Geocode() storage.IGeocodeStorage           { return &geocodeRepo{s} }

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() {}

// Tx holds the store lock for the whole of fn and restores a snapshot
// when fn fails.
func (s *Store) Tx(ctx context.Context, fn func(stg storage.IStorage) error) error {
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &Store{mu: s.mu, data: s.data, inTx: true}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func (s *Store) lock() {
	if !s.inTx {
		s.mu.Lock()
	}
}

func (s *Store) unlock() {
	if !s.inTx {
		s.mu.Unlock()
	}
}

func (s *Store) nextID() int64 {
	s.data.seq++
	return s.data.seq
}

func (st *state) clone() *state {
	c := &state{
		seq:           st.seq,
		users:         make(map[int64]models.User, len(st.users)),
		parkings:      make(map[int64]models.Parking, len(st.parkings)),
		reservations:  make(map[int64]models.Reservation, len(st.reservations)),
		notifications: make(map[int64]models.Notification, len(st.notifications)),
		reviews:       make(map[int64]models.Review, len(st.reviews)),
		geocodes:      make(map[string]models.GeocodeEntry, len(st.geocodes)),
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.parkings {
		c.parkings[k] = v
	}
	for k, v := range st.reservations {
		c.reservations[k] = v
	}
	for k, v := range st.notifications {
		c.notifications[k] = v
	}
	for k, v := range st.reviews {
		c.reviews[k] = v
	}
	for k, v := range st.geocodes {
		c.geocodes[k] = v
	}
	return c
}

func nowIfZero(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

func containsStatus(list []models.ReservationStatus, s models.ReservationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
