package entities

import (
	"time"
)

// Category classifies a reported problem
type Category string

const (
	CategoryTraffic     Category = "traffic"
	CategoryEnvironment Category = "environment"
	CategoryEconomy     Category = "economy"
	CategoryLiving      Category = "living"
	CategoryDamage      Category = "damage"
	CategoryHeritage    Category = "heritage"
)

// Categories lists every category in display order
func Categories() []Category {
	return []Category{
		CategoryTraffic,
		CategoryEnvironment,
		CategoryEconomy,
		CategoryLiving,
		CategoryDamage,
		CategoryHeritage,
	}
}

// Valid reports whether c is one of the six categories
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Status is the lifecycle state of an issue
type Status string

const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
)

// StatusFilterAll selects issues in every status
const StatusFilterAll = "all"

// Statuses lists every status in lifecycle order
func Statuses() []Status {
	return []Status{StatusOpen, StatusInProgress, StatusResolved}
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Issue represents a single citizen-reported problem
type Issue struct {
	ID          string    `json:"id" db:"id"`
	Category    Category  `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	Latitude    float64   `json:"lat" db:"lat"`
	Longitude   float64   `json:"lng" db:"lng"`
	Status      Status    `json:"status" db:"status"`
	ImageRef    string    `json:"imageRef,omitempty" db:"image_ref"`
	ReporterID  string    `json:"reporterId" db:"reporter_id"`
	Address     string    `json:"address,omitempty" db:"address"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// Coordinates returns the issue's location
func (i *Issue) Coordinates() Coordinates {
	return Coordinates{Latitude: i.Latitude, Longitude: i.Longitude}
}

// Clone returns an independent copy
func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	cp := *i
	return &cp
}
