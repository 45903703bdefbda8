package service

import (
	"context"
	"strings"

	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

type ParkingService interface {
	Create(ctx context.Context, ownerID int64, req models.CreateParking) (*models.Parking, error)
	Get(ctx context.Context, id int64) (*models.Parking, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Parking, error)
	// ListActive returns available spots, optionally inside bbox.
	ListActive(ctx context.Context, bbox *models.BBox) ([]*models.Parking, error)
}

type parkingService struct {
	stg      storage.IStorage
	log      logger.ILogger
	geocoder Geocoder
}

func NewParkingService(stg storage.IStorage, log logger.ILogger, geocoder Geocoder) ParkingService {
	return &parkingService{stg: stg, log: log, geocoder: geocoder}
}

func (s *parkingService) Create(ctx context.Context, ownerID int64, req models.CreateParking) (*models.Parking, error) {
	const op = "parking.create"

	if err := validate.Struct(req); err != nil {
		return nil, &Error{Op: op, Kind: ErrInvalidInput, Err: err}
	}

	owner, err := s.stg.User().GetByID(ctx, ownerID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	if owner.Role != models.RoleLandlord {
		return nil, fail(op, ErrForbidden, "only landlords can publish parkings")
	}

	p := &models.Parking{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(req.Name),
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     strings.TrimSpace(req.Address),
		Department:  strings.TrimSpace(req.Department),
		City:        strings.TrimSpace(req.City),
		HousingType: req.HousingType,
		Size:        req.Size,
		Features:    req.Features,
		ImagePath:   req.ImagePath,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Active:      true,
	}

	if (p.Latitude == nil || p.Longitude == nil) && s.geocoder != nil {
		p.Latitude, p.Longitude = s.geocoder.Resolve(ctx, models.Address{
			Address:    p.Address,
			City:       p.City,
			Department: p.Department,
		})
		if p.Latitude == nil {
			s.log.Warning("parking saved without coordinates", logger.String("address", p.Address))
		}
	}

	created, err := s.stg.Parking().Create(ctx, p)
	if err != nil {
		return nil, storageErr(op, err)
	}

	s.log.Info("parking created", logger.Int64("parking_id", created.ID), logger.Int64("owner_id", ownerID))
	return created, nil
}

func (s *parkingService) Get(ctx context.Context, id int64) (*models.Parking, error) {
	p, err := s.stg.Parking().GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("parking.get", err)
	}
	return p, nil
}

func (s *parkingService) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Parking, error) {
	list, err := s.stg.Parking().GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, storageErr("parking.list_owner", err)
	}
	return list, nil
}

func (s *parkingService) ListActive(ctx context.Context, bbox *models.BBox) ([]*models.Parking, error) {
	list, err := s.stg.Parking().GetActive(ctx, bbox)
	if err != nil {
		return nil, storageErr("parking.list_active", err)
	}
	return list, nil
}
