package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tripdesk/pms-backend/internal/models"
)

// VehicleBookingRepository handles vehicle booking rows. Rows are never deleted.
type VehicleBookingRepository struct {
	db Querier
}

// NewVehicleBookingRepository creates a new vehicle booking repository
func NewVehicleBookingRepository(db Querier) *VehicleBookingRepository {
	return &VehicleBookingRepository{db: db}
}

const vehicleBookingColumns = `
	vb.id, vb.vehicle_id, vb.driver_id, vb.booking_date, vb.status, vb.comment,
	vb.created_at, vb.updated_at
`

// Create inserts a new vehicle booking
func (r *VehicleBookingRepository) Create(vb *models.VehicleBooking) error {
	if vb.ID == uuid.Nil {
		vb.ID = uuid.New()
	}
	if vb.Status == "" {
		vb.Status = models.BookingStatusPending
	}
	now := time.Now()
	vb.CreatedAt = now
	vb.UpdatedAt = now

	query := `
		INSERT INTO vehicle_bookings (
			id, vehicle_id, driver_id, booking_date, status, comment, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(query,
		vb.ID,
		vb.VehicleID,
		vb.DriverID,
		vb.Date,
		vb.Status,
		vb.Comment,
		vb.CreatedAt,
		vb.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create vehicle booking: %w", err)
	}
	return nil
}

// Update writes every mutable field of the vehicle booking in place
func (r *VehicleBookingRepository) Update(vb *models.VehicleBooking) error {
	vb.UpdatedAt = time.Now()

	query := `
		UPDATE vehicle_bookings
		SET vehicle_id = $2, driver_id = $3, booking_date = $4, status = $5,
		    comment = $6, updated_at = $7
		WHERE id = $1
	`
	result, err := r.db.Exec(query,
		vb.ID,
		vb.VehicleID,
		vb.DriverID,
		vb.Date,
		vb.Status,
		vb.Comment,
		vb.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update vehicle booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("vehicle booking not found: %s", vb.ID)
	}
	return nil
}

// GetByID retrieves a vehicle booking by ID. Returns nil, nil when not found.
func (r *VehicleBookingRepository) GetByID(id uuid.UUID) (*models.VehicleBooking, error) {
	var vb models.VehicleBooking
	err := r.db.Get(&vb, `SELECT `+vehicleBookingColumns+` FROM vehicle_bookings vb WHERE vb.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle booking: %w", err)
	}
	return &vb, nil
}

// List returns one page of vehicle bookings, newest date first. The search
// term matches the vehicle model or number and the driver name.
func (r *VehicleBookingRepository) List(q models.PageQuery) ([]models.VehicleBooking, int, error) {
	where := `
		FROM vehicle_bookings vb
		JOIN vehicles v ON v.id = vb.vehicle_id
		JOIN users u ON u.id = vb.driver_id
		WHERE ($1 = '' OR v.model ILIKE '%' || $1 || '%'
		       OR v.number ILIKE '%' || $1 || '%'
		       OR u.name ILIKE '%' || $1 || '%')
	`

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) `+where, q.Search); err != nil {
		return nil, 0, fmt.Errorf("failed to count vehicle bookings: %w", err)
	}

	bookings := []models.VehicleBooking{}
	query := `SELECT ` + vehicleBookingColumns + where + `
		ORDER BY vb.booking_date DESC, vb.created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.Select(&bookings, query, q.Search, q.PerPage, q.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list vehicle bookings: %w", err)
	}
	return bookings, total, nil
}
