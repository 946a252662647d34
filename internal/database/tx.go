package database

import (
	"fmt"
)

// Store groups the repositories bound to one Querier (the pool or a transaction)
type Store struct {
	Groups          *GroupRepository
	Packages        *PackageRepository
	Branches        *BranchRepository
	Vehicles        *VehicleRepository
	Users           *UserRepository
	Bookings        *BookingRepository
	VehicleBookings *VehicleBookingRepository
	Itineraries     *ItineraryRepository
}

// NewStore binds every repository to q
func NewStore(q Querier) *Store {
	return &Store{
		Groups:          NewGroupRepository(q),
		Packages:        NewPackageRepository(q),
		Branches:        NewBranchRepository(q),
		Vehicles:        NewVehicleRepository(q),
		Users:           NewUserRepository(q),
		Bookings:        NewBookingRepository(q),
		VehicleBookings: NewVehicleBookingRepository(q),
		Itineraries:     NewItineraryRepository(q),
	}
}

// TxManager runs units of work inside a single database transaction
type TxManager struct {
	db DB
}

// NewTxManager creates a new transaction manager
func NewTxManager(db DB) *TxManager {
	return &TxManager{db: db}
}

// Store returns repositories bound to the connection pool (no transaction)
func (m *TxManager) Store() *Store {
	return NewStore(m.db)
}

// WithinTx runs fn with repositories bound to a fresh transaction.
// The transaction commits only when fn returns nil; otherwise every write is rolled back.
func (m *TxManager) WithinTx(fn func(store *Store) error) error {
	tx, err := m.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(NewStore(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
