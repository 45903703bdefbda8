package service

import (
	"context"

	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

type NotificationService interface {
	Emit(ctx context.Context, n models.Notification) (*models.Notification, error)
	ClearForReservation(ctx context.Context, filter models.NotificationFilter) (int64, error)
	ListForUser(ctx context.Context, userID int64) ([]*models.Notification, error)
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
	ClearAll(ctx context.Context, userID int64) (int64, error)
}

type notificationService struct {
	stg    storage.IStorage
	log    logger.ILogger
	clock  Clock
	pusher Pusher
}

func newNotificationService(stg storage.IStorage, log logger.ILogger, clock Clock, pusher Pusher) *notificationService {
	return &notificationService{stg: stg, log: log, clock: clock, pusher: pusher}
}

// Emit stores an unread notification and hands it to the pusher.
func (s *notificationService) Emit(ctx context.Context, n models.Notification) (*models.Notification, error) {
	if !n.Type.Valid() {
		return nil, fail("notification.emit", ErrInvalidInput, "unknown notification type %q", n.Type)
	}
	n.Status = models.NotificationUnread
	n.CreatedAt = s.clock.Now()

	created, err := s.stg.Notification().Create(ctx, &n)
	if err != nil {
		s.log.Error("failed to emit notification",
			logger.Int64("user_id", n.UserID),
			logger.String("type", string(n.Type)),
			logger.Error(err))
		return nil, storageErr("notification.emit", err)
	}

	if s.pusher != nil {
		go s.pusher.Push(context.WithoutCancel(ctx), created)
	}
	return created, nil
}

// emitAll emits after a committed state change. Failures are logged and
// never reach the caller.
func (s *notificationService) emitAll(ctx context.Context, list []models.Notification) {
	for _, n := range list {
		_, _ = s.Emit(ctx, n)
	}
}

func (s *notificationService) ClearForReservation(ctx context.Context, filter models.NotificationFilter) (int64, error) {
	return s.clear(ctx, s.stg.Notification(), filter)
}

// clear runs against ns so state transitions can clear inside their own
// transaction. Clearing nothing is not an error.
func (s *notificationService) clear(ctx context.Context, ns storage.INotificationStorage, filter models.NotificationFilter) (int64, error) {
	n, err := ns.Delete(ctx, filter)
	if err != nil {
		return 0, storageErr("notification.clear", err)
	}
	if n > 0 {
		s.log.Debug("cleared notifications",
			logger.Int64("reservation_id", filter.ReservationID),
			logger.Int64("count", n))
	}
	return n, nil
}

func (s *notificationService) ListForUser(ctx context.Context, userID int64) ([]*models.Notification, error) {
	list, err := s.stg.Notification().GetByUser(ctx, userID)
	if err != nil {
		return nil, storageErr("notification.list", err)
	}
	return list, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	n, err := s.stg.Notification().MarkAllRead(ctx, userID)
	if err != nil {
		return 0, storageErr("notification.mark_read", err)
	}
	return n, nil
}

func (s *notificationService) ClearAll(ctx context.Context, userID int64) (int64, error) {
	n, err := s.stg.Notification().DeleteByUser(ctx, userID)
	if err != nil {
		return 0, storageErr("notification.clear_all", err)
	}
	return n, nil
}
