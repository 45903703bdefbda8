package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"parkshare/pkg/logger"
	"parkshare/pkg/models"
	"parkshare/storage"
)

type UserService interface {
	Register(ctx context.Context, req models.RegisterUser) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	Get(ctx context.Context, id int64) (*models.User, error)
}

type userService struct {
	stg  storage.IUserStorage
	log  logger.ILogger
	cost int
}

func NewUserService(stg storage.IStorage, log logger.ILogger, bcryptCost int) UserService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &userService{
		stg:  stg.User(),
		log:  log,
		cost: bcryptCost,
	}
}

func (s *userService) Register(ctx context.Context, req models.RegisterUser) (*models.User, error) {
	const op = "user.register"

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if err := validate.Struct(req); err != nil {
		return nil, &Error{Op: op, Kind: ErrInvalidInput, Err: err}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, &Error{Op: op, Kind: ErrInvalidInput, Err: err}
	}

	user, err := s.stg.Create(ctx, &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: string(hash),
		Phone:        req.Phone,
		Role:         req.Role,
		TelegramID:   req.TelegramID,
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, fail(op, ErrConflict, "email %s is already registered", req.Email)
		}
		return nil, storageErr(op, err)
	}

	s.log.Info("user registered", logger.Int64("user_id", user.ID), logger.String("role", user.Role))
	return user, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	const op = "user.authenticate"

	user, err := s.stg.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fail(op, ErrUnauthorized, "invalid credentials")
		}
		return nil, storageErr(op, err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, fail(op, ErrUnauthorized, "invalid credentials")
	}
	return user, nil
}

func (s *userService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.stg.GetByID(ctx, id)
	if err != nil {
		return nil, storageErr("user.get", err)
	}
	return user, nil
}
