package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// BOOKING STATUS
// ============================================================================

// BookingStatus is shared by accommodation bookings and vehicle bookings
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

// IsValid returns true if the status is a recognized booking status
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// IsCancelled reports whether the booking has been released
func (s BookingStatus) IsCancelled() bool {
	return s == BookingStatusCancelled
}

func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a status code, in any letter case, to a BookingStatus
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// ============================================================================
// ACCOMMODATION BOOKING
// ============================================================================

// Venue identifies the accommodation of a booking. Exactly one field is set
// on a valid venue.
type Venue struct {
	HotelBranchID *uuid.UUID `json:"hotel_id,omitempty"`
	LodgeBranchID *uuid.UUID `json:"lodge_id,omitempty"`
}

// IsExclusive reports whether exactly one of hotel and lodge is referenced
func (v Venue) IsExclusive() bool {
	return (v.HotelBranchID == nil) != (v.LodgeBranchID == nil)
}

// Kind returns which accommodation type the venue points at.
// Only meaningful on an exclusive venue.
func (v Venue) Kind() VenueKind {
	if v.HotelBranchID != nil {
		return VenueHotel
	}
	return VenueLodge
}

// BranchID returns the referenced branch id of an exclusive venue
func (v Venue) BranchID() uuid.UUID {
	if v.HotelBranchID != nil {
		return *v.HotelBranchID
	}
	if v.LodgeBranchID != nil {
		return *v.LodgeBranchID
	}
	return uuid.Nil
}

// Same reports whether both venues reference the same branch
func (v Venue) Same(other Venue) bool {
	return v.Kind() == other.Kind() && v.BranchID() == other.BranchID() && v.IsExclusive() && other.IsExclusive()
}

// Booking is a date-scoped reservation of one hotel or lodge branch for a group
type Booking struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	GroupID       uuid.UUID     `json:"group_id" db:"group_id"`
	Date          time.Time     `json:"date" db:"booking_date"`
	HotelBranchID *uuid.UUID    `json:"hotel_id,omitempty" db:"hotel_branch_id"`
	LodgeBranchID *uuid.UUID    `json:"lodge_id,omitempty" db:"lodge_branch_id"`
	Status        BookingStatus `json:"status" db:"status"`
	Meal          *string       `json:"meal,omitempty" db:"meal"`
	Comment       *string       `json:"comment,omitempty" db:"comment"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// Venue returns the accommodation reference of the booking
func (b *Booking) Venue() Venue {
	return Venue{HotelBranchID: b.HotelBranchID, LodgeBranchID: b.LodgeBranchID}
}

// SetVenue replaces the accommodation reference of the booking
func (b *Booking) SetVenue(v Venue) {
	b.HotelBranchID = v.HotelBranchID
	b.LodgeBranchID = v.LodgeBranchID
}

// CreateBookingParams carries the inputs of a new accommodation booking
type CreateBookingParams struct {
	GroupID uuid.UUID
	Date    time.Time
	Meal    *string
	Venue   Venue
	Comment *string
}

// UpdateBookingRequest is a partial update of a booking; nil fields are left unchanged.
// When either venue field is present the pair replaces the current venue.
type UpdateBookingRequest struct {
	Date    *time.Time `json:"date,omitempty"`
	HotelID *uuid.UUID `json:"hotel_id,omitempty"`
	LodgeID *uuid.UUID `json:"lodge_id,omitempty"`
	Status  *string    `json:"status,omitempty"`
	Meal    *string    `json:"meal,omitempty"`
	Comment *string    `json:"comment,omitempty"`
}

// ChangesVenue reports whether the request touches the venue reference
func (r *UpdateBookingRequest) ChangesVenue() bool {
	return r.HotelID != nil || r.LodgeID != nil
}

// BookingView is a booking hydrated for read APIs
type BookingView struct {
	Booking
	GroupCode string     `json:"group_code,omitempty"`
	Venue     *VenueView `json:"venue,omitempty"`
}

// VenueView describes the branch a booking points at, with a signed image URL
type VenueView struct {
	Kind         VenueKind `json:"kind"`
	BranchID     uuid.UUID `json:"branch_id"`
	BranchName   string    `json:"branch_name"`
	PropertyID   uuid.UUID `json:"property_id"`
	PropertyName string    `json:"property_name"`
	City         *string   `json:"city,omitempty"`
	Address      *string   `json:"address,omitempty"`
	Phone        *string   `json:"phone,omitempty"`
	ImageURL     *string   `json:"image_url,omitempty"`
}
