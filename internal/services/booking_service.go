package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tripdesk/pms-backend/internal/models"
)

// BookingService exposes direct edits of bookings and vehicle bookings
// outside of an itinerary update
type BookingService struct {
	uow    UnitOfWork
	query  *ItineraryQueryService
	audit  AuditRecorder
	logger *logrus.Logger
}

// NewBookingService creates a new booking service
func NewBookingService(uow UnitOfWork, query *ItineraryQueryService, audit AuditRecorder, logger *logrus.Logger) *BookingService {
	return &BookingService{
		uow:    uow,
		query:  query,
		audit:  audit,
		logger: logger,
	}
}

// UpdateBooking applies a partial update to a booking and returns it hydrated
func (s *BookingService) UpdateBooking(id uuid.UUID, req *models.UpdateBookingRequest, actor AuditContext) (*models.BookingView, error) {
	var updated *models.Booking
	err := s.uow.WithinTx(func(repos Repositories) error {
		manager := NewAccommodationBookingManager(repos.Bookings, repos.Branches, s.logger)
		booking, err := manager.Update(id, *req)
		if err != nil {
			return err
		}
		updated = booking
		return nil
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.audit, s.logger, AuditEvent{
		Context:    actor,
		Action:     AuditBookingUpdated,
		EntityType: "booking",
		EntityID:   &updated.ID,
		Details: map[string]interface{}{
			"status": updated.Status,
			"date":   updated.Date.Format("2006-01-02"),
		},
	})

	return s.query.GetBooking(updated.ID)
}

// CancelVehicleBooking marks a vehicle booking cancelled and returns it hydrated
func (s *BookingService) CancelVehicleBooking(id uuid.UUID, actor AuditContext) (*models.VehicleBookingView, error) {
	err := s.uow.WithinTx(func(repos Repositories) error {
		manager := NewVehicleBookingManager(repos.VehicleBookings, repos.Vehicles, repos.Users, s.logger)
		_, err := manager.Cancel(id)
		return err
	})
	if err != nil {
		return nil, err
	}

	recordAudit(s.audit, s.logger, AuditEvent{
		Context:    actor,
		Action:     AuditVehicleBookingCanceled,
		EntityType: "vehicle_booking",
		EntityID:   &id,
	})

	return s.query.GetVehicleBooking(id)
}
