package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tripdesk/pms-backend/internal/models"
)

// VehicleBookingManager creates, finds, updates and cancels vehicle+driver
// bookings. Vehicle bookings are never hard-deleted.
type VehicleBookingManager struct {
	vehicleBookings VehicleBookingRepository
	vehicles        VehicleRepository
	users           UserRepository
	logger          *logrus.Logger
}

// NewVehicleBookingManager creates a new vehicle booking manager
func NewVehicleBookingManager(vehicleBookings VehicleBookingRepository, vehicles VehicleRepository, users UserRepository, logger *logrus.Logger) *VehicleBookingManager {
	return &VehicleBookingManager{
		vehicleBookings: vehicleBookings,
		vehicles:        vehicles,
		users:           users,
		logger:          logger,
	}
}

// Create assigns a vehicle and driver on a date
func (m *VehicleBookingManager) Create(params models.CreateVehicleBookingParams) (*models.VehicleBooking, error) {
	if err := m.ValidateVehicle(params.VehicleID); err != nil {
		return nil, err
	}
	if err := m.ValidateDriver(params.DriverID); err != nil {
		return nil, err
	}

	vb := &models.VehicleBooking{
		VehicleID: params.VehicleID,
		DriverID:  params.DriverID,
		Date:      dateOnly(params.Date),
		Status:    models.BookingStatusPending,
		Comment:   params.Comment,
	}
	if params.Status != nil {
		vb.Status = *params.Status
	}

	if err := m.vehicleBookings.Create(vb); err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"vehicle_booking_id": vb.ID,
		"vehicle_id":         vb.VehicleID,
		"driver_id":          vb.DriverID,
		"date":               vb.Date.Format("2006-01-02"),
	}).Info("Vehicle booking created")

	return vb, nil
}

// Find returns a vehicle booking by id or NotFound
func (m *VehicleBookingManager) Find(id uuid.UUID) (*models.VehicleBooking, error) {
	vb, err := m.vehicleBookings.GetByID(id)
	if err != nil {
		return nil, err
	}
	if vb == nil {
		return nil, NotFound("vehicle booking", id)
	}
	return vb, nil
}

// Update mutates a vehicle booking in place. A changed vehicle or driver is re-validated.
func (m *VehicleBookingManager) Update(id uuid.UUID, params models.UpdateVehicleBookingParams) (*models.VehicleBooking, error) {
	vb, err := m.Find(id)
	if err != nil {
		return nil, err
	}

	if params.VehicleID != nil && *params.VehicleID != vb.VehicleID {
		if err := m.ValidateVehicle(*params.VehicleID); err != nil {
			return nil, err
		}
		vb.VehicleID = *params.VehicleID
	}
	if params.DriverID != nil && *params.DriverID != vb.DriverID {
		if err := m.ValidateDriver(*params.DriverID); err != nil {
			return nil, err
		}
		vb.DriverID = *params.DriverID
	}
	if params.Date != nil {
		vb.Date = dateOnly(*params.Date)
	}
	if params.Status != nil {
		vb.Status = *params.Status
	}
	if params.Comment != nil {
		vb.Comment = params.Comment
	}

	if err := m.vehicleBookings.Update(vb); err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"vehicle_booking_id": vb.ID,
		"vehicle_id":         vb.VehicleID,
		"driver_id":          vb.DriverID,
		"status":             vb.Status,
	}).Info("Vehicle booking updated")

	return vb, nil
}

// Cancel transitions a vehicle booking to CANCELLED; the row is retained
func (m *VehicleBookingManager) Cancel(id uuid.UUID) (*models.VehicleBooking, error) {
	vb, err := m.Find(id)
	if err != nil {
		return nil, err
	}
	if vb.Status.IsCancelled() {
		return vb, nil
	}

	vb.Status = models.BookingStatusCancelled
	if err := m.vehicleBookings.Update(vb); err != nil {
		return nil, err
	}

	m.logger.WithField("vehicle_booking_id", vb.ID).Info("Vehicle booking cancelled")
	return vb, nil
}

// ValidateVehicle fails with NotFound(vehicle) when the vehicle does not exist
func (m *VehicleBookingManager) ValidateVehicle(id uuid.UUID) error {
	vehicle, err := m.vehicles.GetByID(id)
	if err != nil {
		return err
	}
	if vehicle == nil {
		return NotFound("vehicle", id)
	}
	return nil
}

// ValidateDriver fails with NotFound(driver) unless the user exists, holds the
// ADMIN role and has the DRIVER designation
func (m *VehicleBookingManager) ValidateDriver(id uuid.UUID) error {
	user, err := m.users.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil || !user.IsDriver() {
		return NotFound("driver", id)
	}
	return nil
}
