package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ============================================================================
// STORED ITINERARY
// ============================================================================

// Itinerary is the per-group, per-package day-by-day plan. The activity list
// is embedded in a single JSONB column.
type Itinerary struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	GroupID        uuid.UUID    `json:"group_id" db:"group_id"`
	GroupCode      string       `json:"group_code" db:"group_code"`
	LeaderID       uuid.UUID    `json:"leader_id" db:"leader_id"`
	GuideID        uuid.UUID    `json:"guide_id" db:"guide_id"`
	PackageID      uuid.UUID    `json:"package_id" db:"package_id"`
	Activities     Activities   `json:"activities" db:"activities"`
	AdditionalInfo JSONDocument `json:"additional_info,omitempty" db:"additional_info"`
	Version        int          `json:"version" db:"version"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at" db:"updated_at"`
}

// ItineraryActivity is one assembled activity as persisted on the itinerary
type ItineraryActivity struct {
	ID               uuid.UUID
	Name             string
	Date             time.Time
	Description      string
	Meal             *string
	BookingID        uuid.UUID
	Transfer         TransferMode
	TransferDetails  TransferDetails
	VehicleBookingID *uuid.UUID
}

type activityJSON struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Date             time.Time       `json:"date"`
	Description      string          `json:"description"`
	Meal             *string         `json:"meal,omitempty"`
	BookingID        uuid.UUID       `json:"booking_id"`
	Transfer         TransferMode    `json:"transfer"`
	TransferDetails  json.RawMessage `json:"transfer_details,omitempty"`
	VehicleBookingID *uuid.UUID      `json:"vehicle_booking_id,omitempty"`
}

// MarshalJSON implements json.Marshaler
func (a ItineraryActivity) MarshalJSON() ([]byte, error) {
	out := activityJSON{
		ID:               a.ID,
		Name:             a.Name,
		Date:             a.Date,
		Description:      a.Description,
		Meal:             a.Meal,
		BookingID:        a.BookingID,
		Transfer:         a.Transfer,
		VehicleBookingID: a.VehicleBookingID,
	}
	if a.TransferDetails != nil {
		raw, err := json.Marshal(a.TransferDetails)
		if err != nil {
			return nil, err
		}
		out.TransferDetails = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Details that no longer satisfy
// their mode are kept opaque so old documents stay readable.
func (a *ItineraryActivity) UnmarshalJSON(data []byte) error {
	var in activityJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*a = ItineraryActivity{
		ID:               in.ID,
		Name:             in.Name,
		Date:             in.Date,
		Description:      in.Description,
		Meal:             in.Meal,
		BookingID:        in.BookingID,
		Transfer:         ParseTransferMode(string(in.Transfer)),
		VehicleBookingID: in.VehicleBookingID,
	}
	details, err := DecodeTransferDetails(a.Transfer, in.TransferDetails)
	if err != nil {
		details = OpaqueDetails{Tag: a.Transfer, Raw: in.TransferDetails}
	}
	a.TransferDetails = details
	return nil
}

// Drive returns the drive details of a DRIVE activity
func (a *ItineraryActivity) Drive() (DriveDetails, bool) {
	if !a.Transfer.IsDrive() {
		return DriveDetails{}, false
	}
	d, ok := a.TransferDetails.(DriveDetails)
	return d, ok
}

// Activities is the ordered activity list stored as JSONB
type Activities []ItineraryActivity

func (a Activities) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(a)
}

func (a *Activities) Scan(value interface{}) error {
	if value == nil {
		*a = Activities{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("type assertion to []byte failed for Activities")
	}
	return json.Unmarshal(data, a)
}

// ByID returns the activity with the given id, or nil
func (a Activities) ByID(id uuid.UUID) *ItineraryActivity {
	for i := range a {
		if a[i].ID == id {
			return &a[i]
		}
	}
	return nil
}

// DriveVehicleBookingIDs returns the vehicle bookings linked from DRIVE activities, in list order
func (a Activities) DriveVehicleBookingIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool)
	for _, act := range a {
		if act.Transfer.IsDrive() && act.VehicleBookingID != nil && !seen[*act.VehicleBookingID] {
			seen[*act.VehicleBookingID] = true
			ids = append(ids, *act.VehicleBookingID)
		}
	}
	return ids
}

// BookingIDs returns the distinct accommodation bookings referenced, in list order
func (a Activities) BookingIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(a))
	seen := make(map[uuid.UUID]bool)
	for _, act := range a {
		if act.BookingID != uuid.Nil && !seen[act.BookingID] {
			seen[act.BookingID] = true
			ids = append(ids, act.BookingID)
		}
	}
	return ids
}

// ============================================================================
// REQUEST DTOs
// ============================================================================

// ActivityInput is one activity as submitted by a caller
type ActivityInput struct {
	ID               *uuid.UUID      `json:"id,omitempty"`
	Name             string          `json:"name" binding:"required"`
	Date             time.Time       `json:"date" binding:"required"`
	Description      string          `json:"description"`
	Meal             *string         `json:"meal,omitempty"`
	HotelID          *uuid.UUID      `json:"hotel_id,omitempty"`
	LodgeID          *uuid.UUID      `json:"lodge_id,omitempty"`
	Comment          *string         `json:"comment,omitempty"`
	Transfer         string          `json:"transfer"`
	TransferDetails  json.RawMessage `json:"transfer_details,omitempty"`
	VehicleBookingID *uuid.UUID      `json:"vehicle_booking_id,omitempty"`
}

// Venue returns the accommodation reference of the activity
func (a *ActivityInput) Venue() Venue {
	return Venue{HotelBranchID: a.HotelID, LodgeBranchID: a.LodgeID}
}

// CreateItineraryRequest is the payload of a new itinerary
type CreateItineraryRequest struct {
	GroupCode      string          `json:"group_code" binding:"required"`
	LeaderID       uuid.UUID       `json:"leader_id" binding:"required"`
	GuideID        uuid.UUID       `json:"guide_id" binding:"required"`
	PackageID      uuid.UUID       `json:"package_id" binding:"required"`
	Activities     []ActivityInput `json:"activities" binding:"required,dive"`
	AdditionalInfo JSONDocument    `json:"additional_info,omitempty"`
}

// UpdateItineraryRequest replaces the activity list of an itinerary.
// Nil leader, guide and package keep the stored values. When Version is set
// it must match the stored version.
type UpdateItineraryRequest struct {
	GroupCode      string          `json:"group_code" binding:"required"`
	LeaderID       *uuid.UUID      `json:"leader_id,omitempty"`
	GuideID        *uuid.UUID      `json:"guide_id,omitempty"`
	PackageID      *uuid.UUID      `json:"package_id,omitempty"`
	Activities     []ActivityInput `json:"activities" binding:"dive"`
	AdditionalInfo JSONDocument    `json:"additional_info,omitempty"`
	Version        *int            `json:"version,omitempty"`
}

// ============================================================================
// READ MODELS
// ============================================================================

// ItineraryView is an itinerary hydrated for read APIs
type ItineraryView struct {
	ID             uuid.UUID      `json:"id"`
	Group          *GroupSummary  `json:"group"`
	Leader         *UserSummary   `json:"leader"`
	Guide          *UserSummary   `json:"guide"`
	Package        *Package       `json:"package"`
	Activities     []ActivityView `json:"activities"`
	AdditionalInfo JSONDocument   `json:"additional_info,omitempty"`
	Version        int            `json:"version"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// ActivityView is an activity with its booking, vehicle booking, driver and vehicle resolved
type ActivityView struct {
	ID               uuid.UUID       `json:"id"`
	Name             string          `json:"name"`
	Date             time.Time       `json:"date"`
	Description      string          `json:"description"`
	Meal             *string         `json:"meal,omitempty"`
	Transfer         TransferMode    `json:"transfer"`
	TransferDetails  TransferDetails `json:"transfer_details,omitempty"`
	BookingID        uuid.UUID       `json:"booking_id"`
	Booking          *BookingView    `json:"booking"`
	VehicleBookingID *uuid.UUID      `json:"vehicle_booking_id,omitempty"`
	VehicleBooking   *VehicleBooking `json:"vehicle_booking,omitempty"`
	Driver           *UserSummary    `json:"driver,omitempty"`
	Vehicle          *VehicleView    `json:"vehicle,omitempty"`
}
