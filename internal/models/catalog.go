package models

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// CATALOG ENTITIES (packages, accommodation branches, vehicles)
// ============================================================================

// Package is a tour package template
type Package struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Duration  int       `json:"duration" db:"duration"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// VenueKind tells hotel branches from lodge branches
type VenueKind string

const (
	VenueHotel VenueKind = "hotel"
	VenueLodge VenueKind = "lodge"
)

// Branch is one bookable location of a hotel or lodge
type Branch struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Kind         VenueKind `json:"kind" db:"-"`
	PropertyID   uuid.UUID `json:"property_id" db:"property_id"`
	PropertyName string    `json:"property_name" db:"property_name"`
	Name         string    `json:"name" db:"name"`
	City         *string   `json:"city,omitempty" db:"city"`
	Address      *string   `json:"address,omitempty" db:"address"`
	Phone        *string   `json:"phone,omitempty" db:"phone"`
	Image        *string   `json:"image,omitempty" db:"image"`
}

// Vehicle is a fleet vehicle that can be assigned to a drive transfer
type Vehicle struct {
	ID     uuid.UUID `json:"id" db:"id"`
	Model  string    `json:"model" db:"model"`
	Number *string   `json:"number,omitempty" db:"number"`
	Image  *string   `json:"image,omitempty" db:"image"`
}
