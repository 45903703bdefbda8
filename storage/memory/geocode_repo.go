package memory

import (
	"context"

	"parkshare/pkg/models"
	"parkshare/storage"
)

type geocodeRepo struct {
	s *Store
}

func (r *geocodeRepo) Get(ctx context.Context, query string) (*models.GeocodeEntry, error) {
	r.s.lock()
	defer r.s.unlock()

	e, ok := r.s.data.geocodes[query]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &e, nil
}

func (r *geocodeRepo) Put(ctx context.Context, entry *models.GeocodeEntry) error {
	r.s.lock()
	defer r.s.unlock()

	e := *entry
	e.CreatedAt = nowIfZero(e.CreatedAt)
	r.s.data.geocodes[e.Query] = e
	return nil
}
