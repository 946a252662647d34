package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TransferMode tags how a group travels on an activity day and which
// transfer details it requires.
type TransferMode string

const (
	TransferDrive  TransferMode = "DRIVE"
	TransferFlight TransferMode = "FLIGHT"
	TransferTrek   TransferMode = "TREK"
	TransferNone   TransferMode = "NONE"
)

// ParseTransferMode normalizes a transfer tag. Unknown tags are kept as-is
// so their details pass through untouched; an empty tag means NONE.
func ParseTransferMode(s string) TransferMode {
	mode := TransferMode(strings.ToUpper(strings.TrimSpace(s)))
	if mode == "" {
		return TransferNone
	}
	return mode
}

// IsDrive reports whether the mode needs a vehicle booking
func (m TransferMode) IsDrive() bool {
	return m == TransferDrive
}

// FieldError reports an invalid or missing input field
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// ============================================================================
// TRANSFER DETAILS (tagged by transfer mode)
// ============================================================================

// TransferDetails is the mode-specific payload of an activity transfer.
// Implemented by DriveDetails, FlightDetails and OpaqueDetails.
type TransferDetails interface {
	Mode() TransferMode
}

// DriveDetails assigns a driver and vehicle to a DRIVE transfer
type DriveDetails struct {
	DriverID  uuid.UUID      `json:"driver_id"`
	VehicleID uuid.UUID      `json:"vehicle_id"`
	Comment   *string        `json:"comment,omitempty"`
	Status    *BookingStatus `json:"status,omitempty"`
	From      *string        `json:"from,omitempty"`
	To        *string        `json:"to,omitempty"`
}

func (DriveDetails) Mode() TransferMode { return TransferDrive }

// FlightDetails describes a FLIGHT transfer
type FlightDetails struct {
	FlightNumber  string     `json:"flight_number"`
	From          *string    `json:"from,omitempty"`
	To            *string    `json:"to,omitempty"`
	DepartureTime *time.Time `json:"departure_time,omitempty"`
}

func (FlightDetails) Mode() TransferMode { return TransferFlight }

// OpaqueDetails carries the details of any other mode verbatim
type OpaqueDetails struct {
	Tag TransferMode
	Raw json.RawMessage
}

func (d OpaqueDetails) Mode() TransferMode { return d.Tag }

// MarshalJSON implements json.Marshaler
func (d OpaqueDetails) MarshalJSON() ([]byte, error) {
	if len(d.Raw) == 0 {
		return []byte("null"), nil
	}
	return d.Raw, nil
}

type driveDetailsInput struct {
	DriverID  *string `json:"driver_id"`
	VehicleID *string `json:"vehicle_id"`
	Comment   *string `json:"comment"`
	Status    *string `json:"status"`
	From      *string `json:"from"`
	To        *string `json:"to"`
}

type flightDetailsInput struct {
	FlightNumber  *string    `json:"flight_number"`
	From          *string    `json:"from"`
	To            *string    `json:"to"`
	DepartureTime *time.Time `json:"departure_time"`
}

func isEmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// DecodeTransferDetails validates raw transfer details against the mode.
// DRIVE requires driver_id and vehicle_id; FLIGHT details are optional but
// need a flight_number when present; other modes are kept opaque.
// Returns nil details when the mode carries none.
func DecodeTransferDetails(mode TransferMode, raw json.RawMessage) (TransferDetails, error) {
	switch mode {
	case TransferDrive:
		if isEmptyJSON(raw) {
			return nil, &FieldError{Field: "transfer_details.driver_id", Message: "is required for DRIVE transfers"}
		}
		var in driveDetailsInput
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, &FieldError{Field: "transfer_details", Message: "must be an object"}
		}
		driverID, err := requireUUID("transfer_details.driver_id", in.DriverID)
		if err != nil {
			return nil, err
		}
		vehicleID, err := requireUUID("transfer_details.vehicle_id", in.VehicleID)
		if err != nil {
			return nil, err
		}
		details := DriveDetails{
			DriverID:  driverID,
			VehicleID: vehicleID,
			Comment:   in.Comment,
			From:      in.From,
			To:        in.To,
		}
		if in.Status != nil {
			status, err := ParseBookingStatus(*in.Status)
			if err != nil {
				return nil, &FieldError{Field: "transfer_details.status", Message: "must be one of PENDING, CONFIRMED, CANCELLED"}
			}
			details.Status = &status
		}
		return details, nil

	case TransferFlight:
		if isEmptyJSON(raw) {
			return nil, nil
		}
		var in flightDetailsInput
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, &FieldError{Field: "transfer_details", Message: "must be an object"}
		}
		if in.FlightNumber == nil || strings.TrimSpace(*in.FlightNumber) == "" {
			return nil, &FieldError{Field: "transfer_details.flight_number", Message: "is required for FLIGHT transfers"}
		}
		return FlightDetails{
			FlightNumber:  strings.TrimSpace(*in.FlightNumber),
			From:          in.From,
			To:            in.To,
			DepartureTime: in.DepartureTime,
		}, nil

	default:
		if isEmptyJSON(raw) {
			return nil, nil
		}
		if !json.Valid(raw) {
			return nil, &FieldError{Field: "transfer_details", Message: "must be valid JSON"}
		}
		return OpaqueDetails{Tag: mode, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}

func requireUUID(field string, value *string) (uuid.UUID, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return uuid.Nil, &FieldError{Field: field, Message: "is required for DRIVE transfers"}
	}
	id, err := uuid.Parse(strings.TrimSpace(*value))
	if err != nil {
		return uuid.Nil, &FieldError{Field: field, Message: "must be a valid UUID"}
	}
	return id, nil
}
