package memory

import (
	"context"
	"sort"
	"time"

	"parkshare/pkg/models"
	"parkshare/storage"
)

type parkingRepo struct {
	s *Store
}

func (r *parkingRepo) Create(ctx context.Context, parking *models.Parking) (*models.Parking, error) {
	r.s.lock()
	defer r.s.unlock()

	p := *parking
	p.ID = r.s.nextID()
	p.CreatedAt = nowIfZero(p.CreatedAt)
	r.s.data.parkings[p.ID] = p
	return &p, nil
}

func (r *parkingRepo) GetByID(ctx context.Context, id int64) (*models.Parking, error) {
	r.s.lock()
	defer r.s.unlock()

	p, ok := r.s.data.parkings[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (r *parkingRepo) GetByOwner(ctx context.Context, ownerID int64) ([]*models.Parking, error) {
	return r.filter(func(p models.Parking) bool { return p.OwnerID == ownerID }), nil
}

func (r *parkingRepo) GetActive(ctx context.Context, bbox *models.BBox) ([]*models.Parking, error) {
	return r.filter(func(p models.Parking) bool {
		if !p.Active {
			return false
		}
		if bbox == nil {
			return true
		}
		return p.Latitude != nil && p.Longitude != nil && bbox.Contains(*p.Latitude, *p.Longitude)
	}), nil
}

func (r *parkingRepo) Claim(ctx context.Context, id int64) error {
	return r.update(id, func(p *models.Parking) bool {
		if !p.Active {
			return false
		}
		p.Active = false
		p.OccupiedSince = nil
		return true
	})
}

func (r *parkingRepo) StartOccupancy(ctx context.Context, id int64, since time.Time) error {
	return r.update(id, func(p *models.Parking) bool {
		if p.Active {
			return false
		}
		p.OccupiedSince = &since
		return true
	})
}

func (r *parkingRepo) Release(ctx context.Context, id int64) error {
	return r.update(id, func(p *models.Parking) bool {
		p.Active = true
		p.OccupiedSince = nil
		return true
	})
}

func (r *parkingRepo) update(id int64, fn func(p *models.Parking) bool) error {
	r.s.lock()
	defer r.s.unlock()

	p, ok := r.s.data.parkings[id]
	if !ok {
		return storage.ErrNotFound
	}
	if !fn(&p) {
		return storage.ErrConflict
	}
	r.s.data.parkings[id] = p
	return nil
}

func (r *parkingRepo) filter(keep func(p models.Parking) bool) []*models.Parking {
	r.s.lock()
	defer r.s.unlock()

	var out []*models.Parking
	for _, p := range r.s.data.parkings {
		if keep(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
