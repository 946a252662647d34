package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tripdesk/pms-backend/internal/models"
)

// BookingRepository handles accommodation booking rows
type BookingRepository struct {
	db Querier
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db Querier) *BookingRepository {
	return &BookingRepository{db: db}
}

const bookingColumns = `
	b.id, b.group_id, b.booking_date, b.hotel_branch_id, b.lodge_branch_id,
	b.status, b.meal, b.comment, b.created_at, b.updated_at
`

// ============================================================================
// WRITES
// ============================================================================

// Create inserts a new booking. ID, status and timestamps are filled in when empty.
func (r *BookingRepository) Create(booking *models.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.Status == "" {
		booking.Status = models.BookingStatusPending
	}
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	query := `
		INSERT INTO bookings (
			id, group_id, booking_date, hotel_branch_id, lodge_branch_id,
			status, meal, comment, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(query,
		booking.ID,
		booking.GroupID,
		booking.Date,
		booking.HotelBranchID,
		booking.LodgeBranchID,
		booking.Status,
		booking.Meal,
		booking.Comment,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// Update writes every mutable field of the booking in place
func (r *BookingRepository) Update(booking *models.Booking) error {
	booking.UpdatedAt = time.Now()

	query := `
		UPDATE bookings
		SET booking_date = $2, hotel_branch_id = $3, lodge_branch_id = $4,
		    status = $5, meal = $6, comment = $7, updated_at = $8
		WHERE id = $1
	`
	result, err := r.db.Exec(query,
		booking.ID,
		booking.Date,
		booking.HotelBranchID,
		booking.LodgeBranchID,
		booking.Status,
		booking.Meal,
		booking.Comment,
		booking.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("booking not found: %s", booking.ID)
	}
	return nil
}

// ============================================================================
// READS
// ============================================================================

// GetByID retrieves a booking by ID. Returns nil, nil when not found.
func (r *BookingRepository) GetByID(id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.Get(&booking, `SELECT `+bookingColumns+` FROM bookings b WHERE b.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

// FindByGroupVenueDate finds the live booking of a group at a venue on one date
func (r *BookingRepository) FindByGroupVenueDate(groupID uuid.UUID, venue models.Venue, date time.Time) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.group_id = $1
		  AND b.hotel_branch_id IS NOT DISTINCT FROM $2
		  AND b.lodge_branch_id IS NOT DISTINCT FROM $3
		  AND b.booking_date = $4::date
		  AND b.status <> 'CANCELLED'
		ORDER BY b.created_at ASC
		LIMIT 1
	`
	var booking models.Booking
	err := r.db.Get(&booking, query, groupID, venue.HotelBranchID, venue.LodgeBranchID, date)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking by group, venue and date: %w", err)
	}
	return &booking, nil
}

// FindByGroupAndVenue finds the earliest live booking of a group at a venue, on any date
func (r *BookingRepository) FindByGroupAndVenue(groupID uuid.UUID, venue models.Venue) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.group_id = $1
		  AND b.hotel_branch_id IS NOT DISTINCT FROM $2
		  AND b.lodge_branch_id IS NOT DISTINCT FROM $3
		  AND b.status <> 'CANCELLED'
		ORDER BY b.booking_date ASC, b.created_at ASC
		LIMIT 1
	`
	var booking models.Booking
	err := r.db.Get(&booking, query, groupID, venue.HotelBranchID, venue.LodgeBranchID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking by group and venue: %w", err)
	}
	return &booking, nil
}

// List returns one page of bookings, newest date first. The search term
// matches the group code and the hotel or lodge branch name.
func (r *BookingRepository) List(q models.PageQuery) ([]models.Booking, int, error) {
	where := `
		FROM bookings b
		JOIN groups g ON g.id = b.group_id
		LEFT JOIN hotel_branches hb ON hb.id = b.hotel_branch_id
		LEFT JOIN lodge_branches lb ON lb.id = b.lodge_branch_id
		WHERE ($1 = '' OR g.group_code ILIKE '%' || $1 || '%'
		       OR hb.name ILIKE '%' || $1 || '%'
		       OR lb.name ILIKE '%' || $1 || '%')
	`

	var total int
	if err := r.db.Get(&total, `SELECT COUNT(*) `+where, q.Search); err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	bookings := []models.Booking{}
	query := `SELECT ` + bookingColumns + where + `
		ORDER BY b.booking_date DESC, b.created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.Select(&bookings, query, q.Search, q.PerPage, q.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, total, nil
}
