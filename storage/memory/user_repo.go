package memory

import (
	"context"
	"strings"

	"parkshare/pkg/models"
	"parkshare/storage"
)

type userRepo struct {
	s *Store
}

func (r *userRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, storage.ErrConflict
		}
	}

	u := *user
	u.ID = r.s.nextID()
	u.CreatedAt = nowIfZero(u.CreatedAt)
	r.s.data.users[u.ID] = u
	return &u, nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.lock()
	defer r.s.unlock()

	u, ok := r.s.data.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.lock()
	defer r.s.unlock()

	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, storage.ErrNotFound
}
