package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tripdesk/pms-backend/internal/models"
)

// ItineraryRepository handles itinerary (PMS record) rows
type ItineraryRepository struct {
	db Querier
}

// NewItineraryRepository creates a new itinerary repository
func NewItineraryRepository(db Querier) *ItineraryRepository {
	return &ItineraryRepository{db: db}
}

const itinerarySelect = `
	SELECT i.id, i.group_id, g.group_code, i.leader_id, i.guide_id, i.package_id,
	       i.activities, i.additional_info, i.version, i.created_at, i.updated_at
	FROM itineraries i
	JOIN groups g ON g.id = i.group_id
	JOIN packages p ON p.id = i.package_id
`

// Create inserts the itinerary header and its activity document as one row
func (r *ItineraryRepository) Create(it *models.Itinerary) error {
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	now := time.Now()
	it.Version = 1
	it.CreatedAt = now
	it.UpdatedAt = now

	query := `
		INSERT INTO itineraries (
			id, group_id, leader_id, guide_id, package_id,
			activities, additional_info, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(query,
		it.ID,
		it.GroupID,
		it.LeaderID,
		it.GuideID,
		it.PackageID,
		it.Activities,
		it.AdditionalInfo,
		it.Version,
		it.CreatedAt,
		it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create itinerary: %w", err)
	}
	return nil
}

// Update rewrites the itinerary if its stored version still equals expectedVersion.
// Returns false when the row is missing or was changed by another writer.
// On success the version is incremented on it.
func (r *ItineraryRepository) Update(it *models.Itinerary, expectedVersion int) (bool, error) {
	updatedAt := time.Now()

	query := `
		UPDATE itineraries
		SET group_id = $2, leader_id = $3, guide_id = $4, package_id = $5,
		    activities = $6, additional_info = $7,
		    version = version + 1, updated_at = $8
		WHERE id = $1 AND version = $9
	`
	result, err := r.db.Exec(query,
		it.ID,
		it.GroupID,
		it.LeaderID,
		it.GuideID,
		it.PackageID,
		it.Activities,
		it.AdditionalInfo,
		updatedAt,
		expectedVersion,
	)
	if err != nil {
		return false, fmt.Errorf("failed to update itinerary: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return false, nil
	}

	it.Version = expectedVersion + 1
	it.UpdatedAt = updatedAt
	return true, nil
}

// Delete removes the itinerary row. Its bookings are left in place.
func (r *ItineraryRepository) Delete(id uuid.UUID) error {
	if _, err := r.db.Exec(`DELETE FROM itineraries WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete itinerary: %w", err)
	}
	return nil
}

// GetByID retrieves an itinerary by ID. Returns nil, nil when not found.
func (r *ItineraryRepository) GetByID(id uuid.UUID) (*models.Itinerary, error) {
	var it models.Itinerary
	err := r.db.Get(&it, itinerarySelect+` WHERE i.id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get itinerary: %w", err)
	}
	return &it, nil
}

// ReferencesBooking reports whether any itinerary other than exceptID links an
// activity to bookingID
func (r *ItineraryRepository) ReferencesBooking(bookingID, exceptID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM itineraries
			WHERE id <> $2
			  AND activities @> jsonb_build_array(jsonb_build_object('booking_id', $1::text))
		)
	`
	var referenced bool
	if err := r.db.Get(&referenced, query, bookingID, exceptID); err != nil {
		return false, fmt.Errorf("failed to check booking references: %w", err)
	}
	return referenced, nil
}

// List returns one page of itineraries, newest first, optionally filtered by
// group code or package name
func (r *ItineraryRepository) List(q models.PageQuery) ([]models.Itinerary, int, error) {
	filter := ` WHERE ($1 = '' OR g.group_code ILIKE '%' || $1 || '%' OR p.name ILIKE '%' || $1 || '%')`

	var total int
	countQuery := `
		SELECT COUNT(*) FROM itineraries i
		JOIN groups g ON g.id = i.group_id
		JOIN packages p ON p.id = i.package_id
	` + filter
	if err := r.db.Get(&total, countQuery, q.Search); err != nil {
		return nil, 0, fmt.Errorf("failed to count itineraries: %w", err)
	}

	itineraries := []models.Itinerary{}
	query := itinerarySelect + filter + `
		ORDER BY i.created_at DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.Select(&itineraries, query, q.Search, q.PerPage, q.Offset()); err != nil {
		return nil, 0, fmt.Errorf("failed to list itineraries: %w", err)
	}
	return itineraries, total, nil
}
