package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tripdesk/pms-backend/internal/models"
)

// DashboardRepository runs the read-only aggregate queries behind the operations dashboard
type DashboardRepository struct {
	db Querier
}

// NewDashboardRepository creates a new dashboard repository
func NewDashboardRepository(db Querier) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// BookingsBetween returns accommodation bookings dated within [start, end]
func (r *DashboardRepository) BookingsBetween(start, end time.Time) ([]models.DashboardBooking, error) {
	query := `
		SELECT b.id, b.booking_date, b.status, b.meal, g.group_code,
		       (SELECT COUNT(*) FROM group_members gm WHERE gm.group_id = g.id) AS member_count,
		       COALESCE(hb.name, lb.name) AS venue_name
		FROM bookings b
		JOIN groups g ON g.id = b.group_id
		LEFT JOIN hotel_branches hb ON hb.id = b.hotel_branch_id
		LEFT JOIN lodge_branches lb ON lb.id = b.lodge_branch_id
		WHERE b.booking_date BETWEEN $1::date AND $2::date
		ORDER BY b.booking_date ASC
	`
	rows := []models.DashboardBooking{}
	if err := r.db.Select(&rows, query, start, end); err != nil {
		return nil, fmt.Errorf("failed to get dashboard bookings: %w", err)
	}
	return rows, nil
}

// VehicleBookingsBetween returns vehicle bookings dated within [start, end]
func (r *DashboardRepository) VehicleBookingsBetween(start, end time.Time) ([]models.DashboardVehicleBooking, error) {
	query := `
		SELECT vb.id, vb.booking_date, vb.status, v.model AS vehicle_model,
		       v.number AS vehicle_number, u.name AS driver_name
		FROM vehicle_bookings vb
		JOIN vehicles v ON v.id = vb.vehicle_id
		LEFT JOIN users u ON u.id = vb.driver_id
		WHERE vb.booking_date BETWEEN $1::date AND $2::date
		ORDER BY vb.booking_date ASC
	`
	rows := []models.DashboardVehicleBooking{}
	if err := r.db.Select(&rows, query, start, end); err != nil {
		return nil, fmt.Errorf("failed to get dashboard vehicle bookings: %w", err)
	}
	return rows, nil
}

type dashboardActivityRow struct {
	ItineraryID uuid.UUID `db:"itinerary_id"`
	GroupCode   string    `db:"group_code"`
	Name        string    `db:"name"`
	Date        time.Time `db:"activity_date"`
	Transfer    *string   `db:"transfer"`
}

// ActivitiesFrom expands the activity documents of every itinerary and returns
// activities dated on or after start
func (r *DashboardRepository) ActivitiesFrom(start time.Time) ([]models.DashboardActivity, error) {
	query := `
		SELECT i.id AS itinerary_id, g.group_code,
		       COALESCE(a->>'name', '') AS name,
		       (a->>'date')::timestamptz AS activity_date,
		       a->>'transfer' AS transfer
		FROM itineraries i
		JOIN groups g ON g.id = i.group_id
		CROSS JOIN LATERAL jsonb_array_elements(i.activities) AS a
		WHERE (a->>'date')::timestamptz >= $1
		ORDER BY activity_date ASC
	`
	var rows []dashboardActivityRow
	if err := r.db.Select(&rows, query, start); err != nil {
		return nil, fmt.Errorf("failed to get dashboard activities: %w", err)
	}

	activities := make([]models.DashboardActivity, 0, len(rows))
	for _, row := range rows {
		transfer := models.TransferNone
		if row.Transfer != nil {
			transfer = models.ParseTransferMode(*row.Transfer)
		}
		activities = append(activities, models.DashboardActivity{
			ItineraryID: row.ItineraryID,
			GroupCode:   row.GroupCode,
			Name:        row.Name,
			Date:        row.Date,
			Transfer:    transfer,
		})
	}
	return activities, nil
}
