package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tripdesk/pms-backend/internal/models"
)

// AccommodationBookingManager creates, finds and updates date-scoped hotel or
// lodge bookings. Every validation runs before the row is written.
type AccommodationBookingManager struct {
	bookings BookingRepository
	branches BranchRepository
	logger   *logrus.Logger
}

// NewAccommodationBookingManager creates a new accommodation booking manager
func NewAccommodationBookingManager(bookings BookingRepository, branches BranchRepository, logger *logrus.Logger) *AccommodationBookingManager {
	return &AccommodationBookingManager{
		bookings: bookings,
		branches: branches,
		logger:   logger,
	}
}

// Create books a hotel or lodge branch for a group on one date
func (m *AccommodationBookingManager) Create(params models.CreateBookingParams) (*models.Booking, error) {
	if err := m.checkVenue(params.Venue, "booking"); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		GroupID: params.GroupID,
		Date:    dateOnly(params.Date),
		Status:  models.BookingStatusPending,
		Meal:    params.Meal,
		Comment: params.Comment,
	}
	booking.SetVenue(params.Venue)

	if err := m.bookings.Create(booking); err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"group_id":   booking.GroupID,
		"date":       booking.Date.Format("2006-01-02"),
		"venue":      booking.Venue().Kind(),
	}).Info("Accommodation booking created")

	return booking, nil
}

// Get returns a booking by id or NotFound
func (m *AccommodationBookingManager) Get(id uuid.UUID) (*models.Booking, error) {
	booking, err := m.bookings.GetByID(id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, NotFound("booking", id)
	}
	return booking, nil
}

// FindForDate returns the live booking of the group at the venue on date, or nil
func (m *AccommodationBookingManager) FindForDate(groupID uuid.UUID, venue models.Venue, date time.Time) (*models.Booking, error) {
	return m.bookings.FindByGroupVenueDate(groupID, venue, dateOnly(date))
}

// FindByGroupAndVenue returns the group's live booking at the venue on any date, or NotFound
func (m *AccommodationBookingManager) FindByGroupAndVenue(groupID uuid.UUID, venue models.Venue) (*models.Booking, error) {
	booking, err := m.bookings.FindByGroupAndVenue(groupID, venue)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, NotFound("booking", "group "+groupID.String()+" at "+string(venue.Kind())+" branch "+venue.BranchID().String())
	}
	return booking, nil
}

// Update mutates a booking in place. A changed venue is re-checked for
// exclusivity and existence before anything is written.
func (m *AccommodationBookingManager) Update(id uuid.UUID, req models.UpdateBookingRequest) (*models.Booking, error) {
	booking, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	if req.ChangesVenue() {
		venue := models.Venue{HotelBranchID: req.HotelID, LodgeBranchID: req.LodgeID}
		if err := m.checkVenue(venue, "booking"); err != nil {
			return nil, err
		}
		booking.SetVenue(venue)
	}
	if req.Status != nil {
		status, err := models.ParseBookingStatus(*req.Status)
		if err != nil {
			return nil, BadRequest("status", "must be one of PENDING, CONFIRMED, CANCELLED")
		}
		booking.Status = status
	}
	if req.Date != nil {
		booking.Date = dateOnly(*req.Date)
	}
	if req.Meal != nil {
		booking.Meal = req.Meal
	}
	if req.Comment != nil {
		booking.Comment = req.Comment
	}

	if err := m.bookings.Update(booking); err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"status":     booking.Status,
		"date":       booking.Date.Format("2006-01-02"),
	}).Info("Accommodation booking updated")

	return booking, nil
}

// Cancel marks a booking cancelled; the row is retained
func (m *AccommodationBookingManager) Cancel(id uuid.UUID) (*models.Booking, error) {
	booking, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	if booking.Status.IsCancelled() {
		return booking, nil
	}

	booking.Status = models.BookingStatusCancelled
	if err := m.bookings.Update(booking); err != nil {
		return nil, err
	}

	m.logger.WithField("booking_id", booking.ID).Info("Accommodation booking cancelled")
	return booking, nil
}

func (m *AccommodationBookingManager) checkVenue(venue models.Venue, subject string) error {
	if !venue.IsExclusive() {
		return ExclusivityViolation(subject)
	}
	kind := venue.Kind()
	branch, err := m.branches.GetBranch(kind, venue.BranchID())
	if err != nil {
		return err
	}
	if branch == nil {
		return NotFound(string(kind)+" branch", venue.BranchID())
	}
	return nil
}

// dateOnly truncates t to its calendar day in UTC
func dateOnly(t time.Time) time.Time {
	y, mo, d := t.UTC().Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}
