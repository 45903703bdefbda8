package models

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

type Parking struct {
	ID            int64      `json:"id"`
	OwnerID       int64      `json:"owner_id"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone"`
	Email         string     `json:"email"`
	Address       string     `json:"address"`
	Department    string     `json:"department"`
	City          string     `json:"city"`
	HousingType   string     `json:"housing_type"`
	Size          string     `json:"size"`
	Features      string     `json:"features"`
	ImagePath     string     `json:"image_path"`
	Latitude      *float64   `json:"latitude"`
	Longitude     *float64   `json:"longitude"`
	Active        bool       `json:"active"`
	OccupiedSince *time.Time `json:"occupied_since"`
	CreatedAt     time.Time  `json:"created_at"`
}

type CreateParking struct {
	Name        string   `json:"name" validate:"required,max=120"`
	Phone       string   `json:"phone" validate:"max=32"`
	Email       string   `json:"email" validate:"omitempty,email"`
	Address     string   `json:"address" validate:"required,max=255"`
	Department  string   `json:"department" validate:"max=120"`
	City        string   `json:"city" validate:"max=120"`
	HousingType string   `json:"housing_type" validate:"max=64"`
	Size        string   `json:"size" validate:"max=64"`
	Features    string   `json:"features" validate:"max=1000"`
	ImagePath   string   `json:"image_path" validate:"max=255"`
	Latitude    *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" validate:"omitempty,longitude"`
}

// BBox is a map viewport, inclusive on every edge.
type BBox struct {
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
}

var ErrInvalidBBox = errors.New("bbox must be minLat,minLng,maxLat,maxLng")

// ParseBBox reads "minLat,minLng,maxLat,maxLng".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, ErrInvalidBBox
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, ErrInvalidBBox
		}
		v[i] = f
	}

	b := BBox{MinLat: v[0], MinLng: v[1], MaxLat: v[2], MaxLng: v[3]}
	if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
		return BBox{}, ErrInvalidBBox
	}
	return b, nil
}

func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}
