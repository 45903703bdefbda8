package models

import "time"

const (
	RoleDriver   = "driver"
	RoleLandlord = "landlord"
)

type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        *string   `json:"phone"`
	Role         string    `json:"role"`
	TelegramID   *int64    `json:"telegram_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterUser struct {
	Name       string  `json:"name" validate:"required,max=120"`
	Email      string  `json:"email" validate:"required,email"`
	Password   string  `json:"password" validate:"required,min=6"`
	Phone      *string `json:"phone" validate:"omitempty,max=32"`
	Role       string  `json:"role" validate:"required,oneof=driver landlord"`
	TelegramID *int64  `json:"telegram_id"`
}
