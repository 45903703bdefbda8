package models

import (
	"strings"
	"time"
)

type Address struct {
	Address    string
	City       string
	Department string
}

// Query joins the non-empty parts with ", " and appends the country hint.
func (a Address) Query(countryHint string) string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Address, a.City, a.Department, countryHint} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type GeocodeEntry struct {
	Query     string
	Latitude  float64
	Longitude float64
	CreatedAt time.Time
}
