package models

import (
	"time"

	"github.com/google/uuid"
)

// VehicleBooking is a date-scoped assignment of a vehicle and driver to a transfer.
// Vehicle bookings are cancelled, never deleted.
type VehicleBooking struct {
	ID        uuid.UUID     `json:"id" db:"id"`
	VehicleID uuid.UUID     `json:"vehicle_id" db:"vehicle_id"`
	DriverID  uuid.UUID     `json:"driver_id" db:"driver_id"`
	Date      time.Time     `json:"date" db:"booking_date"`
	Status    BookingStatus `json:"status" db:"status"`
	Comment   *string       `json:"comment,omitempty" db:"comment"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" db:"updated_at"`
}

// CreateVehicleBookingParams carries the inputs of a new vehicle booking
type CreateVehicleBookingParams struct {
	VehicleID uuid.UUID
	DriverID  uuid.UUID
	Date      time.Time
	Status    *BookingStatus
	Comment   *string
}

// UpdateVehicleBookingParams is a partial update; nil fields are left unchanged
type UpdateVehicleBookingParams struct {
	VehicleID *uuid.UUID
	DriverID  *uuid.UUID
	Date      *time.Time
	Status    *BookingStatus
	Comment   *string
}

// VehicleBookingView is a vehicle booking hydrated with vehicle and driver
type VehicleBookingView struct {
	VehicleBooking
	Vehicle *VehicleView `json:"vehicle,omitempty"`
	Driver  *UserSummary `json:"driver,omitempty"`
}

// VehicleView is a vehicle with its image signed into a time-limited URL
type VehicleView struct {
	ID       uuid.UUID `json:"id"`
	Model    string    `json:"model"`
	Number   *string   `json:"number,omitempty"`
	ImageURL *string   `json:"image_url,omitempty"`
}
