package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkshare/pkg/events"
	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

type ReservationService interface {
	Create(ctx context.Context, driverID int64, req models.CreateReservation) (*models.Reservation, error)
	MarkArrived(ctx context.Context, reservationID, actorID int64) (*models.Reservation, error)
	RequestExtraTime(ctx context.Context, reservationID, driverID int64, extraMinutes int) error
	ApproveExtraTime(ctx context.Context, reservationID, ownerID int64, extraMinutes int) (*models.Reservation, error)
	RejectExtraTime(ctx context.Context, reservationID, ownerID int64) (*models.Reservation, error)
	Cancel(ctx context.Context, reservationID, actorID int64) (*models.Reservation, error)
	Finish(ctx context.Context, reservationID, actorID int64) (*models.Reservation, error)
	// ForceFinish completes a live reservation without a party, for
	// maintenance runs. Billing is the same as Finish.
	ForceFinish(ctx context.Context, reservationID int64) (*models.Reservation, error)

	Get(ctx context.Context, reservationID, actorID int64) (*models.Reservation, error)
	FindLive(ctx context.Context, driverID, parkingID int64) (*models.Reservation, error)
	ListForDriver(ctx context.Context, driverID int64) ([]*models.Reservation, error)
	ListForOwner(ctx context.Context, ownerID int64) ([]*models.Reservation, error)
	ListLive(ctx context.Context) ([]*models.Reservation, error)
}

type reservationService struct {
	stg         storage.IStorage
	log         logger.ILogger
	notif       *notificationService
	clock       Clock
	billing     models.Billing
	minDuration int
	publisher   events.Publisher
}

func newReservationService(stg storage.IStorage, log logger.ILogger, notif *notificationService, deps Deps) *reservationService {
	return &reservationService{
		stg:         stg,
		log:         log,
		notif:       notif,
		clock:       deps.Clock,
		billing:     deps.Billing,
		minDuration: deps.MinDurationMinutes,
		publisher:   deps.Publisher,
	}
}

func (s *reservationService) Create(ctx context.Context, driverID int64, req models.CreateReservation) (*models.Reservation, error) {
	const op = "reservation.create"

	if err := validate.Struct(req); err != nil {
		return nil, &Error{Op: op, Kind: ErrInvalidInput, Err: err}
	}
	if req.DurationMinutes < s.minDuration {
		return nil, fail(op, ErrInvalidInput, "duration must be at least %d minutes", s.minDuration)
	}

	driver, err := s.stg.User().GetByID(ctx, driverID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if driver.Role != models.RoleDriver {
		return nil, fail(op, ErrForbidden, "only drivers can reserve")
	}

	parking, err := s.stg.Parking().GetByID(ctx, req.ParkingID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if parking.OwnerID == driverID {
		return nil, fail(op, ErrForbidden, "cannot reserve your own parking")
	}

	_, err = s.stg.Reservation().FindLive(ctx, driverID, parking.ID)
	switch {
	case err == nil:
		return nil, fail(op, ErrDuplicateActiveReservation, "driver %d already holds parking %d", driverID, parking.ID)
	case !errors.Is(err, storage.ErrNotFound):
		return nil, storageErr(op, err)
	}
	if !parking.Active {
		return nil, fail(op, ErrInvalidTransition, "parking %d is not available", parking.ID)
	}

	var created *models.Reservation
	err = s.stg.Tx(ctx, func(tx storage.IStorage) error {
		if err := tx.Parking().Claim(ctx, parking.ID); err != nil {
			return err
		}
		var err error
		created, err = tx.Reservation().Create(ctx, &models.Reservation{
			DriverID:        driverID,
			ParkingID:       parking.ID,
			Status:          models.StatusPending,
			DurationMinutes: req.DurationMinutes,
			ETAMinutes:      req.ETAMinutes,
			CreatedAt:       s.clock.Now(),
		})
		return err
	})
	if err != nil {
		return nil, storageErr(op, err)
	}

	s.notif.emitAll(ctx, []models.Notification{{
		UserID:        created.OwnerID,
		Type:          models.NotifyNewReservation,
		Message:       fmt.Sprintf(msg("new_reservation"), parking.Name, created.DurationMinutes, created.ETAMinutes),
		ReservationID: ptr(created.ID),
		OwnerID:       ptr(created.OwnerID),
		ETAMinutes:    ptr(created.ETAMinutes),
		Payload: &models.NotificationPayload{
			ParkingID:       parking.ID,
			ParkingName:     parking.Name,
			DurationMinutes: created.DurationMinutes,
			ETAMinutes:      ptr(created.ETAMinutes),
		},
	}})
	s.publish(ctx, events.ReservationCreated, created, driverID)

	s.log.Info("reservation created",
		logger.Int64("reservation_id", created.ID),
		logger.Int64("driver_id", driverID),
		logger.Int64("parking_id", parking.ID))
	return created, nil
}

func (s *reservationService) MarkArrived(ctx context.Context, reservationID, actorID int64) (*models.Reservation, error) {
	const op = "reservation.mark_arrived"

	r, err := s.load(ctx, op, reservationID)
	if err != nil {
		return nil, err
	}
	if !r.IsParty(actorID) {
		return nil, fail(op, ErrForbidden, "user %d is not part of reservation %d", actorID, r.ID)
	}
	if r.Status != models.StatusPending {
		return nil, fail(op, ErrInvalidTransition, "reservation is %s", r.Status)
	}

	now := s.clock.Now()
	err = s.stg.Tx(ctx, func(tx storage.IStorage) error {
		if _, err := s.notif.clear(ctx, tx.Notification(), models.NotificationFilter{
			ReservationID: r.ID,
			Types:         models.PendingPhaseTypes,
		}); err != nil {
			return err
		}
		if err := tx.Reservation().UpdateStatus(ctx, r.ID, []models.ReservationStatus{models.StatusPending}, models.StatusActive); err != nil {
			return err
		}
		return tx.Parking().StartOccupancy(ctx, r.ParkingID, now)
	})
	if err != nil {
		return nil, storageErr(op, err)
	}

	r.Status = models.StatusActive
	r.OccupiedSince = &now

	s.notif.emitAll(ctx, []models.Notification{
		{
			UserID:        r.OwnerID,
			Type:          models.NotifyDriverArrived,
			Message:       fmt.Sprintf(msg("driver_arrived"), r.ParkingName),
			ReservationID: ptr(r.ID),
			OwnerID:       ptr(r.OwnerID),
			Payload:       s.occupancyPayload(r, r.DurationMinutes),
		},
		{
			UserID:        r.DriverID,
			Type:          models.NotifyVehicleParked,
			Message:       fmt.Sprintf(msg("vehicle_parked"), r.ParkingName, r.DurationMinutes),
			ReservationID: ptr(r.ID),
			OwnerID:       ptr(r.OwnerID),
			Payload:       s.occupancyPayload(r, r.DurationMinutes),
		},
	})
	s.publish(ctx, events.ReservationArrived, r, actorID)

	s.log.Info("driver arrived", logger.Int64("reservation_id", r.ID), logger.Int64("actor_id", actorID))
	return r, nil
}

func (s *reservationService) RequestExtraTime(ctx context.Context, reservationID, driverID int64, extraMinutes int) error {
	const op = "reservation.request_extra_time"

	if err := validateExtraMinutes(op, extraMinutes); err != nil {
		return err
	}
	r, err := s.load(ctx, op, reservationID)
	if err != nil {
		return err
	}
	if r.DriverID != driverID {
		return fail(op, ErrForbidden, "only the driver can ask for extra time")
	}
	if !r.Status.IsOccupied() {
		return fail(op, ErrInvalidTransition, "reservation is %s", r.Status)
	}

	// One outstanding request per reservation.
	if _, err := s.notif.ClearForReservation(ctx, models.NotificationFilter{
		ReservationID: r.ID,
		Types:         []models.NotificationType{models.NotifyExtraTimeRequest},
		UserID:        ptr(r.OwnerID),
	}); err != nil {
		return err
	}

	payload := s.occupancyPayload(r, r.DurationMinutes)
	payload.ExtraMinutes = extraMinutes

	_, err = s.notif.Emit(ctx, models.Notification{
		UserID:        r.OwnerID,
		Type:          models.NotifyExtraTimeRequest,
		Message:       fmt.Sprintf(msg("extra_time_request"), extraMinutes, r.ParkingName),
		ReservationID: ptr(r.ID),
		OwnerID:       ptr(r.OwnerID),
		Payload:       payload,
	})
	return err
}

func (s *reservationService) ApproveExtraTime(ctx context.Context, reservationID, ownerID int64, extraMinutes int) (*models.Reservation, error) {
	const op = "reservation.approve_extra_time"

	if err := validateExtraMinutes(op, extraMinutes); err != nil {
		return nil, err
	}
	r, err := s.load(ctx, op, reservationID)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != ownerID {
		return nil, fail(op, ErrForbidden, "only the owner can approve extra time")
	}
	if !r.Status.IsOccupied() {
		return nil, fail(op, ErrInvalidTransition, "reservation is %s", r.Status)
	}

	err = s.stg.Tx(ctx, func(tx storage.IStorage) error {
		if err := tx.Reservation().AddDuration(ctx, r.ID, extraMinutes); err != nil {
			return err
		}
		updated, err := tx.Reservation().GetByID(ctx, r.ID)
		if err != nil {
			return err
		}
		r = updated
		_, err = s.notif.clear(ctx, tx.Notification(), models.NotificationFilter{
			ReservationID: r.ID,
			Types:         []models.NotificationType{models.NotifyExtraTimeRequest},
			UserID:        ptr(r.OwnerID),
		})
		return err
	})
	if err != nil {
		return nil, storageErr(op, err)
	}

	s.refreshParkedNotice(ctx, r)

	payload := s.occupancyPayload(r, r.DurationMinutes)
	payload.ExtraMinutes = extraMinutes
	s.notif.emitAll(ctx, []models.Notification{{
		UserID:        r.DriverID,
		Type:          models.NotifyExtraTimeApproved,
		Message:       fmt.Sprintf(msg("extra_time_approved"), extraMinutes, r.DurationMinutes),
		ReservationID: ptr(r.ID),
		OwnerID:       ptr(r.OwnerID),
		Payload:       payload,
	}})

	s.log.Info("extra time approved",
		logger.Int64("reservation_id", r.ID),
		logger.Int("extra_minutes", extraMinutes),
		logger.Int("duration_minutes", r.DurationMinutes))
	return r, nil
}

func (s *reservationService) RejectExtraTime(ctx context.Context, reservationID, ownerID int64) (*models.Reservation, error) {
	const op = "reservation.reject_extra_time"

	r, err := s.load(ctx, op, reservationID)
	if err != nil {
		return nil, err
	}
	if r.OwnerID != ownerID {
		return nil, fail(op, ErrForbidden, "only the owner can reject extra time")
	}
	if !r.Status.IsOccupied() {
		return nil, fail(op, ErrInvalidTransition, "reservation is %s", r.Status)
	}

	err = s.stg.Tx(ctx, func(tx storage.IStorage) error {
		if err := tx.Reservation().ArmPenalty(ctx, r.ID); err != nil {
			return err
		}
		_, err := s.notif.clear(ctx, tx.Notification(), models.NotificationFilter{
			ReservationID: r.ID,
			Types:         []models.NotificationType{models.NotifyExtraTimeRequest},
			UserID:        ptr(r.OwnerID),
		})
		return err
	})
	if err != nil {
		return nil, storageErr(op, err)
	}

	r.PenaltyActive = true

	warning := fmt.Sprintf(msg("penalty_warning"), s.billing.PenaltyPerPeriod, s.billing.PenaltyPeriodMinutes)
	payload := s.occupancyPayload(r, r.DurationMinutes)
	payload.Warning = warning
	s.notif.emitAll(ctx, []models.Notification{{
		UserID:        r.DriverID,
		Type:          models.NotifyExtraTimeRejected,
		Message:       fmt.Sprintf(msg("extra_time_rejected"), warning),
		ReservationID: ptr(r.ID),
		OwnerID:       ptr(r.OwnerID),
		Payload:       payload,
	}})

	s.log.Info("extra time rejected, penalty armed", logger.Int64("reservation_id", r.ID))
	return r, nil
}

func (s *reservationService) Cancel(ctx context.Context, reservationID, actorID int64) (*models.Reservation, error) {
	const op = "reservation.cancel"

	r, err := s.load(ctx, op, reservationID)
	if err != nil {
		return nil, err
	}
	if !r.IsParty(actorID) {
		return nil, fail(op, ErrForbidden, "user %d is not part of reservation %d", actorID, r.ID)
	}
	if r.Status.IsTerminal() {
		return nil, fail(op, ErrInvalidTransition, "reservation is %s", r.Status)
	}

	err = s.stg.Tx(ctx, func(tx storage.IStorage) error {
		if _, err := s.notif.clear(ctx, tx.Notification(), models.NotificationFilter{ReservationID: r.ID}); err != nil {
			return err
		}
		if err := tx.Reservation().UpdateStatus(ctx, r.ID, models.LiveStatuses, models.StatusCancelled); err != nil {
			return err
		}
		return tx.Parking().Release(ctx, r.ParkingID)
	})
	if err != nil {
		return nil, storageErr(op, err)
	}

	r.Status = models.StatusCancelled
	r.OccupiedSince = nil

	role, counterpartMsg := models.RoleLandlord, msg("cancelled_by_landlord")
	if actorID == r.DriverID {
		role, counterpartMsg = models.RoleDriver, msg("cancelled_by_driver")
	}
	payload := &models.NotificationPayload{
		ParkingID:       r.ParkingID,
		ParkingName:     r.ParkingName,
		CancelledBy:     ptr(actorID),
		CancelledByRole: role,
	}

	s.notif.emitAll(ctx, []models.Notification{
		{
			UserID:        r.Counterparty(actorID),
			Type:          models.NotifyReservationCancelled,
			Message:       fmt.Sprintf(counterpartMsg, r.ParkingName),
			ReservationID: ptr(r.ID),
			OwnerID:       ptr(r.OwnerID),
			Payload:       payload,
		},
		{
			UserID:        actorID,
			Type:          models.NotifyReservationCancelled,
			Message:       fmt.Sprintf(msg("cancelled_self"), r.ParkingName),
			ReservationID: ptr(r.ID),
			OwnerID:       ptr(r.OwnerID),
			Payload:       payload,
		},
	})
	s.publish(ctx, events.ReservationCancelled, r, actorID)

	s.log.Info("reservation cancelled",
		logger.Int64("reservation_id", r.ID),
		logger.Int64("cancelled_by", actorID),
		logger.String("role", role))
	return r, nil
}

func (s *reservationService) Finish(ctx context.Context, reservationID, actorID int64) (*models.Reservation, error) {
	const op = "reservation.finish"

	r, err := s.load(ctx, op, reservationID)
	if err != nil {
		return nil, err
	}
	if !r.IsParty(actorID) {
		return nil, fail(op, ErrForbidden, "user %d is not part of reservation %d", actorID, r.ID)
	}

	// The owner may close a no-show; the driver only once parked.
	from := models.OccupiedStatuses
	if actorID == r.OwnerID {
		from = models.LiveStatuses
	}
	if !hasStatus(from, r.Status) {
		return nil, fail(op, ErrInvalidTransition, "reservation is %s", r.Status)
	}

	return s.finish(ctx, op, r, from, actorID)
}

func (s *reservationService) ForceFinish(ctx context.Context, reservationID int64) (*models.Reservation, error) {
	const op = "reservation.force_finish"

	r, err := s.load(ctx, op, reservationID)
	if err != nil {
		return nil, err
	}
	if r.Status.IsTerminal() {
		return nil, fail(op, ErrInvalidTransition, "reservation is %s", r.Status)
	}
	return s.finish(ctx, op, r, models.LiveStatuses, 0)
}

func (s *reservationService) finish(ctx context.Context, op string, r *models.Reservation, from []models.ReservationStatus, actorID int64) (*models.Reservation, error) {
	now := s.clock.Now()

	// The bill is computed from the locked row so an arrival, extension or
	// rejection committed after the caller's read is not lost. The status
	// guard then pins exactly the status that was billed.
	var (
		c      models.CompleteReservation
		noShow bool
	)
	err := s.stg.Tx(ctx, func(tx storage.IStorage) error {
		locked, err := tx.Reservation().GetForUpdate(ctx, r.ID)
		if err != nil {
			return err
		}
		if !hasStatus(from, locked.Status) {
			return storage.ErrConflict
		}
		r = locked
		c, noShow = bill(s.billing, r, now)

		if _, err := s.notif.clear(ctx, tx.Notification(), models.NotificationFilter{ReservationID: r.ID}); err != nil {
			return err
		}
		if err := tx.Reservation().Complete(ctx, r.ID, []models.ReservationStatus{r.Status}, c); err != nil {
			return err
		}
		return tx.Parking().Release(ctx, r.ParkingID)
	})
	if err != nil {
		return nil, storageErr(op, err)
	}

	r.Status = models.StatusCompleted
	r.FinishedAt = &c.FinishedAt
	r.ElapsedMinutes = ptr(c.ElapsedMinutes)
	r.PenaltyAmount = c.PenaltyAmount
	r.TotalAmount = ptr(c.TotalAmount)
	r.OccupiedSince = nil

	payload := &models.NotificationPayload{
		ParkingID:      r.ParkingID,
		ParkingName:    r.ParkingName,
		ElapsedMinutes: ptr(c.ElapsedMinutes),
		TotalAmount:    ptr(c.TotalAmount),
		NoShow:         noShow,
	}
	if c.PenaltyAmount > 0 {
		payload.PenaltyAmount = ptr(c.PenaltyAmount)
	}
	message := fmt.Sprintf(msg("completed"), r.ParkingName, c.ElapsedMinutes, c.TotalAmount)

	s.notif.emitAll(ctx, []models.Notification{
		{
			UserID:        r.DriverID,
			Type:          models.NotifyReservationCompleted,
			Message:       message,
			ReservationID: ptr(r.ID),
			OwnerID:       ptr(r.OwnerID),
			Payload:       payload,
		},
		{
			UserID:        r.OwnerID,
			Type:          models.NotifyReservationCompleted,
			Message:       message,
			ReservationID: ptr(r.ID),
			OwnerID:       ptr(r.OwnerID),
			Payload:       payload,
		},
	})
	s.publish(ctx, events.ReservationCompleted, r, actorID)

	s.log.Info("reservation completed",
		logger.Int64("reservation_id", r.ID),
		logger.Int("elapsed_minutes", c.ElapsedMinutes),
		logger.Int64("penalty_amount", c.PenaltyAmount),
		logger.Int64("total_amount", c.TotalAmount),
		logger.Bool("no_show", noShow))
	return r, nil
}

func (s *reservationService) Get(ctx context.Context, reservationID, actorID int64) (*models.Reservation, error) {
	const op = "reservation.get"

	r, err := s.load(ctx, op, reservationID)
	if err != nil {
		return nil, err
	}
	if !r.IsParty(actorID) {
		return nil, fail(op, ErrForbidden, "user %d is not part of reservation %d", actorID, r.ID)
	}
	return r, nil
}

func (s *reservationService) FindLive(ctx context.Context, driverID, parkingID int64) (*models.Reservation, error) {
	r, err := s.stg.Reservation().FindLive(ctx, driverID, parkingID)
	if err != nil {
		return nil, storageErr("reservation.find_live", err)
	}
	return r, nil
}

func (s *reservationService) ListForDriver(ctx context.Context, driverID int64) ([]*models.Reservation, error) {
	list, err := s.stg.Reservation().GetByDriver(ctx, driverID)
	if err != nil {
		return nil, storageErr("reservation.list_driver", err)
	}
	return list, nil
}

func (s *reservationService) ListForOwner(ctx context.Context, ownerID int64) ([]*models.Reservation, error) {
	list, err := s.stg.Reservation().GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageErr("reservation.list_owner", err)
	}
	return list, nil
}

func (s *reservationService) ListLive(ctx context.Context) ([]*models.Reservation, error) {
	list, err := s.stg.Reservation().GetByStatus(ctx, models.LiveStatuses...)
	if err != nil {
		return nil, storageErr("reservation.list_live", err)
	}
	return list, nil
}

func (s *reservationService) load(ctx context.Context, op string, id int64) (*models.Reservation, error) {
	r, err := s.stg.Reservation().GetByID(ctx, id)
	if err != nil {
		return nil, storageErr(op, err)
	}
	return r, nil
}

// refreshParkedNotice rewrites the driver's vehicle_parked notification in
// place so it shows the new duration.
func (s *reservationService) refreshParkedNotice(ctx context.Context, r *models.Reservation) {
	list, err := s.stg.Notification().Find(ctx, models.NotificationFilter{
		ReservationID: r.ID,
		Types:         []models.NotificationType{models.NotifyVehicleParked},
		UserID:        ptr(r.DriverID),
	})
	if err != nil {
		s.log.Warning("failed to load parked notification", logger.Int64("reservation_id", r.ID), logger.Error(err))
		return
	}

	for _, n := range list {
		payload := s.occupancyPayload(r, r.DurationMinutes)
		if n.Payload != nil && n.Payload.OccupiedSince != nil {
			payload.OccupiedSince = n.Payload.OccupiedSince
		}
		message := fmt.Sprintf(msg("vehicle_parked"), r.ParkingName, r.DurationMinutes)
		if err := s.stg.Notification().UpdateContent(ctx, n.ID, message, payload); err != nil {
			s.log.Warning("failed to update parked notification", logger.Int64("notification_id", n.ID), logger.Error(err))
		}
	}
}

func (s *reservationService) occupancyPayload(r *models.Reservation, duration int) *models.NotificationPayload {
	return &models.NotificationPayload{
		ParkingID:       r.ParkingID,
		ParkingName:     r.ParkingName,
		DurationMinutes: duration,
		OccupiedSince:   r.OccupiedSince,
	}
}

func (s *reservationService) publish(ctx context.Context, typ string, r *models.Reservation, actorID int64) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	err := s.publisher.Publish(ctx, events.Event{
		Type:           typ,
		ReservationID:  r.ID,
		DriverID:       r.DriverID,
		OwnerID:        r.OwnerID,
		ParkingID:      r.ParkingID,
		Status:         string(r.Status),
		ActorID:        actorID,
		ElapsedMinutes: r.ElapsedMinutes,
		TotalAmount:    r.TotalAmount,
		OccurredAt:     s.clock.Now(),
	})
	if err != nil {
		s.log.Warning("failed to publish reservation event",
			logger.String("type", typ),
			logger.Int64("reservation_id", r.ID),
			logger.Error(err))
	}
}

func validateExtraMinutes(op string, minutes int) error {
	if err := validate.Var(minutes, "oneof=10 20 30"); err != nil {
		return fail(op, ErrInvalidInput, "extra minutes must be 10, 20 or 30, got %d", minutes)
	}
	return nil
}

func hasStatus(list []models.ReservationStatus, s models.ReservationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func ptr[T any](v T) *T {
	return &v
}
