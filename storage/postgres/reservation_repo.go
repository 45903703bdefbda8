package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

type reservationRepo struct {
	db  DB
	log logger.ILogger
}

func NewReservationRepo(db DB, log logger.ILogger) storage.IReservationStorage {
	return &reservationRepo{db: db, log: log}
}

const reservationSelect = `
	SELECT r.id, r.driver_id, r.parking_id, r.status, r.duration_minutes, r.eta_minutes,
	       r.penalty_active, r.penalty_amount, r.eta_notified_at, r.finished_at,
	       r.elapsed_minutes, r.total_amount, r.created_at,
	       p.owner_id, p.name, p.occupied_since
	FROM reservations r
	JOIN parkings p ON p.id = r.parking_id
`

func (r *reservationRepo) Create(ctx context.Context, reservation *models.Reservation) (*models.Reservation, error) {
	query := `
		INSERT INTO reservations (driver_id, parking_id, status, duration_minutes, eta_minutes, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))
		RETURNING id
	`
	var createdAt *time.Time
	if !reservation.CreatedAt.IsZero() {
		createdAt = &reservation.CreatedAt
	}

	var id int64
	err := r.db.QueryRow(ctx, query,
		reservation.DriverID,
		reservation.ParkingID,
		string(reservation.Status),
		reservation.DurationMinutes,
		reservation.ETAMinutes,
		createdAt,
	).Scan(&id)
	if err != nil {
		r.log.Error("failed to create reservation",
			logger.Int64("driver_id", reservation.DriverID),
			logger.Int64("parking_id", reservation.ParkingID),
			logger.Error(err))
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *reservationRepo) GetByID(ctx context.Context, id int64) (*models.Reservation, error) {
	return r.one(ctx, reservationSelect+` WHERE r.id = $1`, id)
}

func (r *reservationRepo) GetForUpdate(ctx context.Context, id int64) (*models.Reservation, error) {
	return r.one(ctx, reservationSelect+` WHERE r.id = $1 FOR UPDATE OF r, p`, id)
}

func (r *reservationRepo) FindLive(ctx context.Context, driverID, parkingID int64) (*models.Reservation, error) {
	query := reservationSelect + `
		WHERE r.driver_id = $1 AND r.parking_id = $2 AND r.status = ANY($3)
		ORDER BY r.created_at DESC
		LIMIT 1`
	return r.one(ctx, query, driverID, parkingID, statusStrings(models.LiveStatuses))
}

func (r *reservationRepo) GetByDriver(ctx context.Context, driverID int64) ([]*models.Reservation, error) {
	return r.scanReservations(ctx, reservationSelect+` WHERE r.driver_id = $1 ORDER BY r.created_at DESC, r.id DESC`, driverID)
}

func (r *reservationRepo) GetByOwner(ctx context.Context, ownerID int64) ([]*models.Reservation, error) {
	return r.scanReservations(ctx, reservationSelect+` WHERE p.owner_id = $1 ORDER BY r.created_at DESC, r.id DESC`, ownerID)
}

func (r *reservationRepo) GetByStatus(ctx context.Context, statuses ...models.ReservationStatus) ([]*models.Reservation, error) {
	return r.scanReservations(ctx, reservationSelect+` WHERE r.status = ANY($1) ORDER BY r.created_at DESC, r.id DESC`, statusStrings(statuses))
}

func (r *reservationRepo) UpdateStatus(ctx context.Context, id int64, from []models.ReservationStatus, to models.ReservationStatus) error {
	return guarded(r.db.Exec(ctx,
		`UPDATE reservations SET status = $2 WHERE id = $1 AND status = ANY($3)`,
		id, string(to), statusStrings(from)))
}

func (r *reservationRepo) AddDuration(ctx context.Context, id int64, extraMinutes int) error {
	return guarded(r.db.Exec(ctx,
		`UPDATE reservations SET duration_minutes = duration_minutes + $2 WHERE id = $1 AND status = ANY($3)`,
		id, extraMinutes, statusStrings(models.OccupiedStatuses)))
}

func (r *reservationRepo) ArmPenalty(ctx context.Context, id int64) error {
	return guarded(r.db.Exec(ctx,
		`UPDATE reservations SET penalty_active = TRUE WHERE id = $1 AND status = ANY($2)`,
		id, statusStrings(models.OccupiedStatuses)))
}

func (r *reservationRepo) SetPenaltyAmount(ctx context.Context, id int64, amount int64) error {
	return guarded(r.db.Exec(ctx,
		`UPDATE reservations SET penalty_amount = $2 WHERE id = $1 AND status = ANY($3)`,
		id, amount, statusStrings(models.OccupiedStatuses)))
}

func (r *reservationRepo) Complete(ctx context.Context, id int64, from []models.ReservationStatus, c models.CompleteReservation) error {
	query := `
		UPDATE reservations
		SET status = 'completed', finished_at = $2, elapsed_minutes = $3, penalty_amount = $4, total_amount = $5
		WHERE id = $1 AND status = ANY($6)
	`
	return guarded(r.db.Exec(ctx, query,
		id, c.FinishedAt, c.ElapsedMinutes, c.PenaltyAmount, c.TotalAmount, statusStrings(from)))
}

func (r *reservationRepo) MarkETANotified(ctx context.Context, id int64, at time.Time) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE reservations SET eta_notified_at = $2 WHERE id = $1 AND eta_notified_at IS NULL`, id, at)
	if err != nil {
		r.log.Error("failed to mark eta notified", logger.Int64("id", id), logger.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *reservationRepo) CountCompletedByDriver(ctx context.Context, driverID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM reservations WHERE driver_id = $1 AND status = 'completed'`, driverID,
	).Scan(&count)
	return count, err
}

func (r *reservationRepo) one(ctx context.Context, query string, args ...any) (*models.Reservation, error) {
	list, err := r.scanReservations(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, storage.ErrNotFound
	}
	return list[0], nil
}

func (r *reservationRepo) scanReservations(ctx context.Context, query string, args ...any) ([]*models.Reservation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to query reservations", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var list []*models.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, res)
	}
	return list, rows.Err()
}

func scanReservation(row pgx.Row) (*models.Reservation, error) {
	var (
		res    models.Reservation
		status string
	)
	err := row.Scan(
		&res.ID, &res.DriverID, &res.ParkingID, &status, &res.DurationMinutes, &res.ETAMinutes,
		&res.PenaltyActive, &res.PenaltyAmount, &res.ETANotifiedAt, &res.FinishedAt,
		&res.ElapsedMinutes, &res.TotalAmount, &res.CreatedAt,
		&res.OwnerID, &res.ParkingName, &res.OccupiedSince,
	)
	if err != nil {
		return nil, err
	}
	res.Status = models.ReservationStatus(status)
	return &res, nil
}
