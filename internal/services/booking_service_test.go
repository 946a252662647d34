package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tripdesk/pms-backend/internal/models"
)

func TestBookingService_UpdateBooking(t *testing.T) {
	f := newFixture()
	it, err := f.itineraryService().Create(f.createRequest(f.hotelActivity("Arrival", day(1), f.hotelA)), AuditContext{})
	require.NoError(t, err)

	svc := NewBookingService(f.uow, f.queryService(nil), f.audit, f.logger)
	bookingID := it.Activities[0].BookingID
	actorID := uuid.New()
	actor := AuditContext{UserID: &actorID, IPAddress: "203.0.113.9"}

	t.Run("Confirms and moves to a lodge", func(t *testing.T) {
		status := "CONFIRMED"
		view, err := svc.UpdateBooking(bookingID, &models.UpdateBookingRequest{
			Status:  &status,
			LodgeID: &f.lodge,
		}, actor)
		require.NoError(t, err)

		assert.Equal(t, models.BookingStatusConfirmed, view.Status)
		require.NotNil(t, view.Venue)
		assert.Equal(t, "Yala Camp", view.Venue.BranchName)

		last := f.audit.events[len(f.audit.events)-1]
		assert.Equal(t, AuditBookingUpdated, last.Action)
		assert.Equal(t, &actorID, last.Context.UserID)
		assert.Equal(t, bookingID, *last.EntityID)
	})

	t.Run("Both venues rejected", func(t *testing.T) {
		_, err := svc.UpdateBooking(bookingID, &models.UpdateBookingRequest{
			HotelID: &f.hotelA,
			LodgeID: &f.lodge,
		}, actor)
		assertKind(t, err, KindExclusivityViolation)
	})

	t.Run("Unknown booking", func(t *testing.T) {
		_, err := svc.UpdateBooking(uuid.New(), &models.UpdateBookingRequest{}, actor)
		assertKind(t, err, KindNotFound)
	})
}

func TestBookingService_CancelVehicleBooking(t *testing.T) {
	f := newFixture()
	it, err := f.itineraryService().Create(f.createRequest(f.driveActivity("Transfer", day(1), f.hotelA)), AuditContext{})
	require.NoError(t, err)

	svc := NewBookingService(f.uow, f.queryService(nil), nil, f.logger)
	vbID := *it.Activities[0].VehicleBookingID

	view, err := svc.CancelVehicleBooking(vbID, AuditContext{})
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, view.Status)
	require.NotNil(t, view.Driver)
	assert.Equal(t, f.driver, view.Driver.ID)

	_, err = svc.CancelVehicleBooking(uuid.New(), AuditContext{})
	assertKind(t, err, KindNotFound)
}
