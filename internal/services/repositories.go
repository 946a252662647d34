package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/tripdesk/pms-backend/internal/database"
	"github.com/tripdesk/pms-backend/internal/models"
)

// ============================================================================
// STORAGE CONTRACTS
// ============================================================================

type GroupRepository interface {
	GetByCode(code string) (*models.Group, error)
	GetByID(id uuid.UUID) (*models.Group, error)
}

type PackageRepository interface {
	GetByID(id uuid.UUID) (*models.Package, error)
}

type BranchRepository interface {
	GetBranch(kind models.VenueKind, id uuid.UUID) (*models.Branch, error)
}

type VehicleRepository interface {
	GetByID(id uuid.UUID) (*models.Vehicle, error)
}

type UserRepository interface {
	GetByID(id uuid.UUID) (*models.User, error)
}

type BookingRepository interface {
	Create(booking *models.Booking) error
	Update(booking *models.Booking) error
	GetByID(id uuid.UUID) (*models.Booking, error)
	FindByGroupVenueDate(groupID uuid.UUID, venue models.Venue, date time.Time) (*models.Booking, error)
	FindByGroupAndVenue(groupID uuid.UUID, venue models.Venue) (*models.Booking, error)
	List(q models.PageQuery) ([]models.Booking, int, error)
}

type VehicleBookingRepository interface {
	Create(vb *models.VehicleBooking) error
	Update(vb *models.VehicleBooking) error
	GetByID(id uuid.UUID) (*models.VehicleBooking, error)
	List(q models.PageQuery) ([]models.VehicleBooking, int, error)
}

type ItineraryRepository interface {
	Create(it *models.Itinerary) error
	Update(it *models.Itinerary, expectedVersion int) (bool, error)
	Delete(id uuid.UUID) error
	GetByID(id uuid.UUID) (*models.Itinerary, error)
	ReferencesBooking(bookingID, exceptID uuid.UUID) (bool, error)
	List(q models.PageQuery) ([]models.Itinerary, int, error)
}

// Repositories is the set of stores one unit of work operates on
type Repositories struct {
	Groups          GroupRepository
	Packages        PackageRepository
	Branches        BranchRepository
	Vehicles        VehicleRepository
	Users           UserRepository
	Bookings        BookingRepository
	VehicleBookings VehicleBookingRepository
	Itineraries     ItineraryRepository
}

// UnitOfWork hands out repositories, either bound to the pool for reads or to
// a transaction that commits only if fn succeeds.
type UnitOfWork interface {
	Repos() Repositories
	WithinTx(fn func(repos Repositories) error) error
}

// ============================================================================
// SQL UNIT OF WORK
// ============================================================================

type sqlUnitOfWork struct {
	tx *database.TxManager
}

// NewSQLUnitOfWork adapts a database transaction manager to UnitOfWork
func NewSQLUnitOfWork(tx *database.TxManager) UnitOfWork {
	return &sqlUnitOfWork{tx: tx}
}

func (u *sqlUnitOfWork) Repos() Repositories {
	return repositoriesFromStore(u.tx.Store())
}

func (u *sqlUnitOfWork) WithinTx(fn func(repos Repositories) error) error {
	return u.tx.WithinTx(func(store *database.Store) error {
		return fn(repositoriesFromStore(store))
	})
}

func repositoriesFromStore(store *database.Store) Repositories {
	return Repositories{
		Groups:          store.Groups,
		Packages:        store.Packages,
		Branches:        store.Branches,
		Vehicles:        store.Vehicles,
		Users:           store.Users,
		Bookings:        store.Bookings,
		VehicleBookings: store.VehicleBookings,
		Itineraries:     store.Itineraries,
	}
}
