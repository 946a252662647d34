package services

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tripdesk/pms-backend/internal/models"
)

// DashboardRepository is the read side behind the operations dashboard
type DashboardRepository interface {
	BookingsBetween(start, end time.Time) ([]models.DashboardBooking, error)
	VehicleBookingsBetween(start, end time.Time) ([]models.DashboardVehicleBooking, error)
	ActivitiesFrom(start time.Time) ([]models.DashboardActivity, error)
}

// DefaultDashboardWindow is used when the caller gives no end date
const DefaultDashboardWindow = 7 * 24 * time.Hour

// DashboardService summarizes bookings, vehicle bookings and upcoming activities
type DashboardService struct {
	repo   DashboardRepository
	logger *logrus.Logger
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(repo DashboardRepository, logger *logrus.Logger) *DashboardService {
	return &DashboardService{repo: repo, logger: logger}
}

// GetDashboard returns everything dated within [start, end]; activities are
// those dated on or after start
func (s *DashboardService) GetDashboard(start, end time.Time) (*models.Dashboard, error) {
	start = dateOnly(start)
	if end.IsZero() {
		end = start.Add(DefaultDashboardWindow)
	}
	end = dateOnly(end)
	if end.Before(start) {
		return nil, BadRequest("end_date", "must not be before start_date")
	}

	bookings, err := s.repo.BookingsBetween(start, end)
	if err != nil {
		return nil, err
	}
	vehicleBookings, err := s.repo.VehicleBookingsBetween(start, end)
	if err != nil {
		return nil, err
	}
	activities, err := s.repo.ActivitiesFrom(start)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"start_date":       start.Format("2006-01-02"),
		"end_date":         end.Format("2006-01-02"),
		"bookings":         len(bookings),
		"vehicle_bookings": len(vehicleBookings),
		"activities":       len(activities),
	}).Debug("Dashboard generated")

	return &models.Dashboard{
		StartDate:       start,
		EndDate:         end,
		Bookings:        bookings,
		VehicleBookings: vehicleBookings,
		Activities:      activities,
	}, nil
}
