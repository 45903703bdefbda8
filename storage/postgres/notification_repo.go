package postgres

import (
	"context"
	"time"

	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

type notificationRepo struct {
	db  DB
	log logger.ILogger
}

func NewNotificationRepo(db DB, log logger.ILogger) storage.INotificationStorage {
	return &notificationRepo{db: db, log: log}
}

const notificationColumns = `id, user_id, message, type, status, reservation_id, owner_id, eta, extra_data, created_at`

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	payload, err := models.EncodePayload(n.Payload)
	if err != nil {
		return nil, err
	}

	var createdAt *time.Time
	if !n.CreatedAt.IsZero() {
		createdAt = &n.CreatedAt
	}
	status := n.Status
	if status == "" {
		status = models.NotificationUnread
	}

	query := `
		INSERT INTO notifications (user_id, message, type, status, reservation_id, owner_id, eta, extra_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, NOW()))
		RETURNING id, created_at
	`
	out := *n
	out.Status = status
	err = r.db.QueryRow(ctx, query,
		n.UserID, n.Message, string(n.Type), string(status), n.ReservationID, n.OwnerID, n.ETAMinutes, payload, createdAt,
	).Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		r.log.Error("failed to create notification",
			logger.Int64("user_id", n.UserID),
			logger.String("type", string(n.Type)),
			logger.Error(err))
		return nil, err
	}
	return &out, nil
}

func (r *notificationRepo) GetByUser(ctx context.Context, userID int64) ([]*models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	return r.scanNotifications(ctx, query, userID)
}

func (r *notificationRepo) Find(ctx context.Context, filter models.NotificationFilter) ([]*models.Notification, error) {
	where, args := filterClause(filter)
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE ` + where + ` ORDER BY created_at DESC, id DESC`
	return r.scanNotifications(ctx, query, args...)
}

func (r *notificationRepo) Delete(ctx context.Context, filter models.NotificationFilter) (int64, error) {
	where, args := filterClause(filter)
	tag, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE `+where, args...)
	if err != nil {
		r.log.Error("failed to delete notifications", logger.Int64("reservation_id", filter.ReservationID), logger.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *notificationRepo) UpdateContent(ctx context.Context, id int64, message string, payload *models.NotificationPayload) error {
	raw, err := models.EncodePayload(payload)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET message = $2, extra_data = $3 WHERE id = $1`, id, message, raw)
	if err != nil {
		r.log.Error("failed to update notification", logger.Int64("id", id), logger.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `UPDATE notifications SET status = 'read' WHERE user_id = $1 AND status <> 'read'`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *notificationRepo) DeleteByUser(ctx context.Context, userID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func filterClause(f models.NotificationFilter) (string, []any) {
	where := `reservation_id = $1`
	args := []any{f.ReservationID}
	if len(f.Types) > 0 {
		args = append(args, models.NotificationTypeStrings(f.Types))
		where += ` AND type = ANY($2)`
	}
	if f.UserID != nil {
		args = append(args, *f.UserID)
		if len(f.Types) > 0 {
			where += ` AND user_id = $3`
		} else {
			where += ` AND user_id = $2`
		}
	}
	return where, args
}

func (r *notificationRepo) scanNotifications(ctx context.Context, query string, args ...any) ([]*models.Notification, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to query notifications", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var list []*models.Notification
	for rows.Next() {
		var (
			n           models.Notification
			typ, status string
			rawPayload  []byte
		)
		err := rows.Scan(
			&n.ID, &n.UserID, &n.Message, &typ, &status, &n.ReservationID, &n.OwnerID, &n.ETAMinutes, &rawPayload, &n.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		n.Type = models.NotificationType(typ)
		n.Status = models.NotificationStatus(status)
		if n.Payload, err = models.DecodePayload(rawPayload); err != nil {
			r.log.Warning("malformed notification payload", logger.Int64("id", n.ID), logger.Error(err))
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}
