package models

import (
	"time"

	"github.com/google/uuid"
)

// DashboardBooking is an accommodation booking row on the operations dashboard
type DashboardBooking struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	Date        time.Time     `json:"date" db:"booking_date"`
	Status      BookingStatus `json:"status" db:"status"`
	Meal        *string       `json:"meal,omitempty" db:"meal"`
	GroupCode   string        `json:"group_code" db:"group_code"`
	MemberCount int           `json:"member_count" db:"member_count"`
	VenueName   *string       `json:"venue_name,omitempty" db:"venue_name"`
}

// DashboardVehicleBooking is a vehicle booking row on the operations dashboard
type DashboardVehicleBooking struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	Date          time.Time     `json:"date" db:"booking_date"`
	Status        BookingStatus `json:"status" db:"status"`
	VehicleModel  string        `json:"vehicle_model" db:"vehicle_model"`
	VehicleNumber *string       `json:"vehicle_number,omitempty" db:"vehicle_number"`
	DriverName    *string       `json:"driver_name,omitempty" db:"driver_name"`
}

// DashboardActivity is an upcoming activity of an itinerary
type DashboardActivity struct {
	ItineraryID uuid.UUID    `json:"itinerary_id"`
	GroupCode   string       `json:"group_code"`
	Name        string       `json:"name"`
	Date        time.Time    `json:"date"`
	Transfer    TransferMode `json:"transfer"`
}

// Dashboard summarizes operations within a date range
type Dashboard struct {
	StartDate       time.Time                 `json:"start_date"`
	EndDate         time.Time                 `json:"end_date"`
	Bookings        []DashboardBooking        `json:"bookings"`
	VehicleBookings []DashboardVehicleBooking `json:"vehicle_bookings"`
	Activities      []DashboardActivity       `json:"activities"`
}
