package database

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripdesk/pms-backend/internal/models"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

var bookingRowColumns = []string{
	"id", "group_id", "booking_date", "hotel_branch_id", "lodge_branch_id",
	"status", "meal", "comment", "created_at", "updated_at",
}

// ============================================================================
// BOOKINGS
// ============================================================================

func TestBookingRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)

	groupID := uuid.New()
	hotelID := uuid.New()
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO bookings`).
			WithArgs(sqlmock.AnyArg(), groupID, date, hotelID, nil, models.BookingStatusPending, nil, nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		booking := &models.Booking{GroupID: groupID, Date: date, HotelBranchID: &hotelID}
		require.NoError(t, repo.Create(booking))

		assert.NotEqual(t, uuid.Nil, booking.ID)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
		assert.False(t, booking.CreatedAt.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Check constraint violation", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO bookings`).
			WillReturnError(errors.New(`pq: new row for relation "bookings" violates check constraint "bookings_one_venue"`))

		err := repo.Create(&models.Booking{GroupID: groupID, Date: date})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create booking")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_Update(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)
	booking := &models.Booking{ID: uuid.New(), Status: models.BookingStatusConfirmed}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(booking.ID, sqlmock.AnyArg(), nil, nil, models.BookingStatusConfirmed, nil, nil, sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Update(booking))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing row", func(t *testing.T) {
		mock.ExpectExec(`UPDATE bookings`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Update(booking)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "booking not found")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)

	id := uuid.New()
	groupID := uuid.New()
	lodgeID := uuid.New()
	now := time.Now()
	date := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM bookings b WHERE b.id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns).AddRow(
				id.String(), groupID.String(), date, nil, lodgeID.String(),
				"CONFIRMED", "Full board", nil, now, now,
			))

		booking, err := repo.GetByID(id)
		require.NoError(t, err)
		require.NotNil(t, booking)
		assert.Equal(t, id, booking.ID)
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
		assert.Nil(t, booking.HotelBranchID)
		require.NotNil(t, booking.LodgeBranchID)
		assert.Equal(t, lodgeID, *booking.LodgeBranchID)
		assert.Equal(t, models.VenueLodge, booking.Venue().Kind())
		require.NotNil(t, booking.Meal)
		assert.Equal(t, "Full board", *booking.Meal)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM bookings b WHERE b.id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns))

		booking, err := repo.GetByID(id)
		assert.NoError(t, err)
		assert.Nil(t, booking)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM bookings b WHERE b.id = \$1`).
			WithArgs(id).
			WillReturnError(errors.New("connection refused"))

		booking, err := repo.GetByID(id)
		assert.Error(t, err)
		assert.Nil(t, booking)
		assert.Contains(t, err.Error(), "failed to get booking")
	})
}

func TestBookingRepository_Finders(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)

	groupID := uuid.New()
	hotelID := uuid.New()
	venue := models.Venue{HotelBranchID: &hotelID}
	date := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)

	t.Run("By group, venue and date skips cancelled rows", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`b.status <> 'CANCELLED'
		ORDER BY b.created_at ASC`)).
			WithArgs(groupID, hotelID, nil, date).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns))

		booking, err := repo.FindByGroupVenueDate(groupID, venue, date)
		require.NoError(t, err)
		assert.Nil(t, booking)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("By group and venue takes the earliest date", func(t *testing.T) {
		id := uuid.New()
		now := time.Now()
		mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY b.booking_date ASC, b.created_at ASC`)).
			WithArgs(groupID, hotelID, nil).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns).AddRow(
				id.String(), groupID.String(), date, hotelID.String(), nil,
				"PENDING", nil, nil, now, now,
			))

		booking, err := repo.FindByGroupAndVenue(groupID, venue)
		require.NoError(t, err)
		require.NotNil(t, booking)
		assert.Equal(t, id, booking.ID)
		assert.True(t, booking.Venue().Same(venue))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepository_List(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)
	q := models.NewPageQuery("kandy", 2, 5)

	mock.ExpectQuery(`SELECT COUNT\(\*\)`).
		WithArgs("kandy").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectQuery(`ORDER BY b.booking_date DESC`).
		WithArgs("kandy", 5, 5).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).AddRow(
			uuid.NewString(), uuid.NewString(), time.Now(), uuid.NewString(), nil,
			"PENDING", nil, nil, time.Now(), time.Now(),
		))

	bookings, total, err := repo.List(q)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
	assert.Len(t, bookings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================================
// ITINERARIES
// ============================================================================

var itineraryRowColumns = []string{
	"id", "group_id", "group_code", "leader_id", "guide_id", "package_id",
	"activities", "additional_info", "version", "created_at", "updated_at",
}

func TestItineraryRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewItineraryRepository(db)

	it := &models.Itinerary{GroupID: uuid.New(), LeaderID: uuid.New(), GuideID: uuid.New(), PackageID: uuid.New()}

	mock.ExpectExec(`INSERT INTO itineraries`).
		WithArgs(sqlmock.AnyArg(), it.GroupID, it.LeaderID, it.GuideID, it.PackageID, []byte("[]"), nil, 1, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(it))
	assert.Equal(t, 1, it.Version)
	assert.NotEqual(t, uuid.Nil, it.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItineraryRepository_Update(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewItineraryRepository(db)

	t.Run("Version matches", func(t *testing.T) {
		it := &models.Itinerary{ID: uuid.New(), Version: 3}
		mock.ExpectExec(regexp.QuoteMeta(`WHERE id = $1 AND version = $9`)).
			WithArgs(it.ID, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), 3).
			WillReturnResult(sqlmock.NewResult(0, 1))

		ok, err := repo.Update(it, 3)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, 4, it.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Stale version", func(t *testing.T) {
		it := &models.Itinerary{ID: uuid.New(), Version: 3}
		mock.ExpectExec(`UPDATE itineraries`).WillReturnResult(sqlmock.NewResult(0, 0))

		ok, err := repo.Update(it, 3)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, 3, it.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database error", func(t *testing.T) {
		mock.ExpectExec(`UPDATE itineraries`).WillReturnError(errors.New("deadlock detected"))

		ok, err := repo.Update(&models.Itinerary{ID: uuid.New()}, 1)
		assert.Error(t, err)
		assert.False(t, ok)
	})
}

func TestItineraryRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewItineraryRepository(db)

	id := uuid.New()
	bookingID := uuid.New()
	vbID := uuid.New()
	driverID := uuid.New()
	vehicleID := uuid.New()
	now := time.Now()

	activities := `[
		{"id":"` + uuid.NewString() + `","name":"Arrival","date":"2025-03-01T00:00:00Z","description":"","booking_id":"` + bookingID.String() + `","transfer":"NONE"},
		{"id":"` + uuid.NewString() + `","name":"Transfer","date":"2025-03-02T00:00:00Z","description":"","booking_id":"` + bookingID.String() + `","transfer":"DRIVE",
		 "transfer_details":{"driver_id":"` + driverID.String() + `","vehicle_id":"` + vehicleID.String() + `"},"vehicle_booking_id":"` + vbID.String() + `"}
	]`

	mock.ExpectQuery(`FROM itineraries i\s+JOIN groups g ON g.id = i.group_id\s+JOIN packages p ON p.id = i.package_id\s+WHERE i.id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(itineraryRowColumns).AddRow(
			id.String(), uuid.NewString(), "GRP-001", uuid.NewString(), uuid.NewString(), uuid.NewString(),
			[]byte(activities), []byte(`{"notes":"vegetarian"}`), 2, now, now,
		))

	it, err := repo.GetByID(id)
	require.NoError(t, err)
	require.NotNil(t, it)
	assert.Equal(t, "GRP-001", it.GroupCode)
	assert.Equal(t, 2, it.Version)
	assert.JSONEq(t, `{"notes":"vegetarian"}`, string(it.AdditionalInfo))

	require.Len(t, it.Activities, 2)
	drive, ok := it.Activities[1].Drive()
	require.True(t, ok)
	assert.Equal(t, driverID, drive.DriverID)
	assert.Equal(t, vehicleID, drive.VehicleID)
	assert.Equal(t, []uuid.UUID{vbID}, it.Activities.DriveVehicleBookingIDs())
	assert.Equal(t, []uuid.UUID{bookingID}, it.Activities.BookingIDs())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItineraryRepository_List(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewItineraryRepository(db)
	q := models.NewPageQuery("triangle", 1, 10)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM itineraries i.*JOIN packages p.*g.group_code ILIKE .* OR p.name ILIKE`).
		WithArgs("triangle").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`OR p.name ILIKE .*ORDER BY i.created_at DESC`).
		WithArgs("triangle", 10, 0).
		WillReturnRows(sqlmock.NewRows(itineraryRowColumns).AddRow(
			uuid.NewString(), uuid.NewString(), "GRP-001", uuid.NewString(), uuid.NewString(), uuid.NewString(),
			[]byte("[]"), nil, 1, time.Now(), time.Now(),
		))

	itineraries, total, err := repo.List(q)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, itineraries, 1)
	assert.Equal(t, "GRP-001", itineraries[0].GroupCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItineraryRepository_ReferencesBooking(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewItineraryRepository(db)
	bookingID := uuid.New()
	exceptID := uuid.New()

	t.Run("Linked elsewhere", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS .*WHERE id <> \$2\s+AND activities @> jsonb_build_array\(jsonb_build_object\('booking_id', \$1::text\)\)`).
			WithArgs(bookingID, exceptID).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		referenced, err := repo.ReferencesBooking(bookingID, exceptID)
		require.NoError(t, err)
		assert.True(t, referenced)
	})

	t.Run("Query error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(bookingID, exceptID).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.ReferencesBooking(bookingID, exceptID)
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestItineraryRepository_Delete(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewItineraryRepository(db)
	id := uuid.New()

	mock.ExpectExec(`DELETE FROM itineraries WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ============================================================================
// GROUPS AND USERS
// ============================================================================

func TestGroupRepository_GetByCode(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGroupRepository(db)

	groupID := uuid.New()
	leaderID := uuid.New()
	guideID := uuid.New()

	t.Run("Members with role tags", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, group_code FROM groups WHERE group_code = \$1`).
			WithArgs("GRP-001").
			WillReturnRows(sqlmock.NewRows([]string{"id", "group_code"}).AddRow(groupID.String(), "GRP-001"))
		mock.ExpectQuery(`FROM group_members gm`).
			WithArgs(groupID).
			WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "roles", "room_number", "extension"}).
				AddRow(leaderID.String(), "Nimal", []byte(`{LEADER,PARTICIPANT}`), "204", nil).
				AddRow(guideID.String(), "Kamal", []byte(`{guide,CHEF}`), nil, nil))

		group, err := repo.GetByCode("GRP-001")
		require.NoError(t, err)
		require.NotNil(t, group)
		require.Len(t, group.Members, 2)

		assert.Equal(t, []models.MemberRole{models.MemberRoleLeader, models.MemberRoleParticipant}, group.Members[0].Roles)
		assert.Equal(t, []models.MemberRole{models.MemberRoleGuide}, group.Members[1].Roles)
		require.NotNil(t, group.Members[0].RoomNumber)
		assert.Equal(t, "204", *group.Members[0].RoomNumber)

		leaders := group.HoldersOf(models.MemberRoleLeader)
		require.Len(t, leaders, 1)
		assert.Equal(t, leaderID, leaders[0].UserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown code", func(t *testing.T) {
		mock.ExpectQuery(`SELECT id, group_code FROM groups WHERE group_code = \$1`).
			WithArgs("NOPE").
			WillReturnRows(sqlmock.NewRows([]string{"id", "group_code"}))

		group, err := repo.GetByCode("NOPE")
		assert.NoError(t, err)
		assert.Nil(t, group)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	columns := []string{"id", "name", "email", "phone", "roles", "designation", "profile_image", "created_at", "updated_at"}

	t.Run("Driver", func(t *testing.T) {
		id := uuid.New()
		now := time.Now()
		mock.ExpectQuery(`SELECT (.+) FROM users\s+WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(
				id.String(), "Sunil", nil, "+94712345678", []byte(`{ADMIN}`), "driver", "users/sunil.jpg", now, now,
			))

		user, err := repo.GetByID(id)
		require.NoError(t, err)
		require.NotNil(t, user)
		assert.True(t, user.IsDriver())
		assert.Equal(t, []models.UserRole{models.UserRoleAdmin}, user.Roles)
		require.NotNil(t, user.Phone)
		assert.Equal(t, "+94712345678", *user.Phone)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Admin without designation is not a driver", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(columns).AddRow(
				id.String(), "Office", nil, nil, []byte(`{ADMIN,USER}`), nil, nil, time.Now(), time.Now(),
			))

		user, err := repo.GetByID(id)
		require.NoError(t, err)
		assert.False(t, user.IsDriver())
		assert.Nil(t, user.Designation)
	})

	t.Run("Not found", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectQuery(`SELECT (.+) FROM users`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(columns))

		user, err := repo.GetByID(id)
		assert.NoError(t, err)
		assert.Nil(t, user)
	})
}

// ============================================================================
// TRANSACTIONS
// ============================================================================

func TestTxManager_WithinTx(t *testing.T) {
	db, mock := setupMockDB(t)
	manager := NewTxManager(NewPostgresDB(db))

	t.Run("Commits on success", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM itineraries`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := manager.WithinTx(func(store *Store) error {
			return store.Itineraries.Delete(id)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Rolls back on error", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO vehicle_bookings`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectRollback()

		failure := errors.New("driver not found")
		err := manager.WithinTx(func(store *Store) error {
			if err := store.VehicleBookings.Create(&models.VehicleBooking{VehicleID: uuid.New(), DriverID: uuid.New()}); err != nil {
				return err
			}
			return failure
		})
		assert.ErrorIs(t, err, failure)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Begin failure", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		err := manager.WithinTx(func(store *Store) error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin transaction")
	})
}
