package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/tripdesk/pms-backend/internal/models"
)

// ============================================================================
// PACKAGES
// ============================================================================

// PackageRepository handles tour package lookups
type PackageRepository struct {
	db Querier
}

// NewPackageRepository creates a new package repository
func NewPackageRepository(db Querier) *PackageRepository {
	return &PackageRepository{db: db}
}

// GetByID retrieves a package by ID. Returns nil, nil when not found.
func (r *PackageRepository) GetByID(id uuid.UUID) (*models.Package, error) {
	var pkg models.Package
	err := r.db.Get(&pkg, `SELECT id, name, duration, created_at FROM packages WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get package: %w", err)
	}
	return &pkg, nil
}

// ============================================================================
// HOTEL / LODGE BRANCHES
// ============================================================================

// BranchRepository handles hotel and lodge branch lookups
type BranchRepository struct {
	db Querier
}

// NewBranchRepository creates a new branch repository
func NewBranchRepository(db Querier) *BranchRepository {
	return &BranchRepository{db: db}
}

// GetBranch retrieves a hotel or lodge branch together with its property name.
// Returns nil, nil when not found.
func (r *BranchRepository) GetBranch(kind models.VenueKind, id uuid.UUID) (*models.Branch, error) {
	var query string
	switch kind {
	case models.VenueHotel:
		query = `
			SELECT hb.id, hb.hotel_id AS property_id, h.name AS property_name, hb.name,
			       hb.city, hb.address, hb.phone, hb.image
			FROM hotel_branches hb
			JOIN hotels h ON h.id = hb.hotel_id
			WHERE hb.id = $1
		`
	case models.VenueLodge:
		query = `
			SELECT lb.id, lb.lodge_id AS property_id, l.name AS property_name, lb.name,
			       lb.city, lb.address, lb.phone, lb.image
			FROM lodge_branches lb
			JOIN lodges l ON l.id = lb.lodge_id
			WHERE lb.id = $1
		`
	default:
		return nil, fmt.Errorf("unknown venue kind: %s", kind)
	}

	var branch models.Branch
	err := r.db.Get(&branch, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s branch: %w", kind, err)
	}
	branch.Kind = kind
	return &branch, nil
}

// ============================================================================
// VEHICLES
// ============================================================================

// VehicleRepository handles fleet vehicle lookups
type VehicleRepository struct {
	db Querier
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(db Querier) *VehicleRepository {
	return &VehicleRepository{db: db}
}

// GetByID retrieves a vehicle by ID. Returns nil, nil when not found.
func (r *VehicleRepository) GetByID(id uuid.UUID) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.Get(&vehicle, `SELECT id, model, number, image FROM vehicles WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}
	return &vehicle, nil
}
