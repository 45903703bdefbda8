package memory

import (
	"context"
	"sort"

	"parkshare/pkg/models"
	"parkshare/storage"
)

type notificationRepo struct {
	s *Store
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	r.s.lock()
	defer r.s.unlock()

	c := copyNotification(*n)
	c.ID = r.s.nextID()
	c.CreatedAt = nowIfZero(c.CreatedAt)
	if c.Status == "" {
		c.Status = models.NotificationUnread
	}
	r.s.data.notifications[c.ID] = c

	out := copyNotification(c)
	return &out, nil
}

func (r *notificationRepo) GetByUser(ctx context.Context, userID int64) ([]*models.Notification, error) {
	return r.filter(func(n *models.Notification) bool { return n.UserID == userID }), nil
}

func (r *notificationRepo) Find(ctx context.Context, filter models.NotificationFilter) ([]*models.Notification, error) {
	return r.filter(filter.Match), nil
}

func (r *notificationRepo) Delete(ctx context.Context, filter models.NotificationFilter) (int64, error) {
	return r.delete(filter.Match), nil
}

func (r *notificationRepo) UpdateContent(ctx context.Context, id int64, message string, payload *models.NotificationPayload) error {
	r.s.lock()
	defer r.s.unlock()

	n, ok := r.s.data.notifications[id]
	if !ok {
		return storage.ErrNotFound
	}
	n.Message = message
	n.Payload = copyPayload(payload)
	r.s.data.notifications[id] = n
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	r.s.lock()
	defer r.s.unlock()

	var count int64
	for id, n := range r.s.data.notifications {
		if n.UserID == userID && n.Status != models.NotificationRead {
			n.Status = models.NotificationRead
			r.s.data.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (r *notificationRepo) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	return r.delete(func(n *models.Notification) bool { return n.UserID == userID }), nil
}

func (r *notificationRepo) delete(match func(n *models.Notification) bool) int64 {
	r.s.lock()
	defer r.s.unlock()

	var count int64
	for id, n := range r.s.data.notifications {
		if match(&n) {
			delete(r.s.data.notifications, id)
			count++
		}
	}
	return count
}

// filter returns matches newest first.
func (r *notificationRepo) filter(keep func(n *models.Notification) bool) []*models.Notification {
	r.s.lock()
	defer r.s.unlock()

	var out []*models.Notification
	for _, n := range r.s.data.notifications {
		if keep(&n) {
			c := copyNotification(n)
			out = append(out, &c)
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

func copyNotification(n models.Notification) models.Notification {
	n.Payload = copyPayload(n.Payload)
	return n
}

func copyPayload(p *models.NotificationPayload) *models.NotificationPayload {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
