package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tripdesk/pms-backend/internal/models"
)

// ItineraryService composes itineraries from activity lists. Each create,
// update or remove runs as one transaction: any failing activity rolls back
// every booking, vehicle booking and itinerary write of the call.
type ItineraryService struct {
	uow    UnitOfWork
	audit  AuditRecorder
	logger *logrus.Logger
}

// NewItineraryService creates a new itinerary service
func NewItineraryService(uow UnitOfWork, audit AuditRecorder, logger *logrus.Logger) *ItineraryService {
	return &ItineraryService{
		uow:    uow,
		audit:  audit,
		logger: logger,
	}
}

// composition holds the per-call state of one create or update
type composition struct {
	group    *models.Group
	previous models.Activities
	update   bool
	logger   *logrus.Logger

	bookings *AccommodationBookingManager
	vehicles *VehicleBookingManager

	// booking id -> date it was resolved for, within this call
	claimed map[uuid.UUID]string
}

func (s *ItineraryService) newComposition(repos Repositories, group *models.Group, previous models.Activities, update bool) *composition {
	return &composition{
		group:    group,
		previous: previous,
		update:   update,
		logger:   s.logger,
		bookings: NewAccommodationBookingManager(repos.Bookings, repos.Branches, s.logger),
		vehicles: NewVehicleBookingManager(repos.VehicleBookings, repos.Vehicles, repos.Users, s.logger),
		claimed:  make(map[uuid.UUID]string),
	}
}

// ============================================================================
// CREATE
// ============================================================================

// Create validates the assignments, books every activity and writes the itinerary
func (s *ItineraryService) Create(req *models.CreateItineraryRequest, actor AuditContext) (*models.Itinerary, error) {
	var created *models.Itinerary

	err := s.uow.WithinTx(func(repos Repositories) error {
		validator := NewRoleValidator(repos.Groups, repos.Packages)
		group, err := validator.Validate(req.GroupCode, &req.LeaderID, &req.GuideID, &req.PackageID)
		if err != nil {
			return err
		}

		c := s.newComposition(repos, group, nil, false)
		activities, err := c.composeAll(req.Activities)
		if err != nil {
			return err
		}

		it := &models.Itinerary{
			GroupID:        group.ID,
			GroupCode:      group.Code,
			LeaderID:       req.LeaderID,
			GuideID:        req.GuideID,
			PackageID:      req.PackageID,
			Activities:     activities,
			AdditionalInfo: req.AdditionalInfo,
		}
		if err := repos.Itineraries.Create(it); err != nil {
			return err
		}
		created = it
		return nil
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"group_code": req.GroupCode,
			"activities": len(req.Activities),
		}).WithError(err).Warn("Itinerary creation rolled back")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"itinerary_id": created.ID,
		"group_code":   created.GroupCode,
		"activities":   len(created.Activities),
	}).Info("Itinerary created")

	recordAudit(s.audit, s.logger, AuditEvent{
		Context:    actor,
		Action:     AuditItineraryCreated,
		EntityType: "itinerary",
		EntityID:   &created.ID,
		Details: map[string]interface{}{
			"group_code": created.GroupCode,
			"activities": len(created.Activities),
		},
	})

	return created, nil
}

// ============================================================================
// UPDATE
// ============================================================================

// Update replaces the activity list of an itinerary. Bookings referenced by the
// new list are found and mutated in place; vehicle bookings linked from the
// previous list and no longer referenced by a DRIVE activity are cancelled.
func (s *ItineraryService) Update(id uuid.UUID, req *models.UpdateItineraryRequest, actor AuditContext) (*models.Itinerary, error) {
	var updated *models.Itinerary
	var cancelled, released []uuid.UUID

	err := s.uow.WithinTx(func(repos Repositories) error {
		existing, err := repos.Itineraries.GetByID(id)
		if err != nil {
			return err
		}
		if existing == nil {
			return NotFound("itinerary", id)
		}
		if req.Version != nil && *req.Version != existing.Version {
			return Conflict("itinerary", fmt.Sprintf("version %d is stale, current version is %d", *req.Version, existing.Version))
		}

		leaderID := pickID(req.LeaderID, existing.LeaderID)
		guideID := pickID(req.GuideID, existing.GuideID)
		packageID := pickID(req.PackageID, existing.PackageID)

		validator := NewRoleValidator(repos.Groups, repos.Packages)
		group, err := validator.Validate(req.GroupCode, req.LeaderID, req.GuideID, req.PackageID)
		if err != nil {
			return err
		}
		if group.ID != existing.GroupID {
			// Moving to another group: carried-over assignments must hold there too.
			if _, err := validator.Validate(group.Code, &leaderID, &guideID, nil); err != nil {
				return err
			}
		}

		c := s.newComposition(repos, group, existing.Activities, true)
		activities, err := c.composeAll(req.Activities)
		if err != nil {
			return err
		}

		cancelled, err = c.reconcileVehicleBookings(activities)
		if err != nil {
			return err
		}
		released, err = cancelUnsharedBookings(c.bookings, repos.Itineraries, existing.ID, unreferenced(existing.Activities, activities))
		if err != nil {
			return err
		}

		it := *existing
		it.GroupID = group.ID
		it.GroupCode = group.Code
		it.LeaderID = leaderID
		it.GuideID = guideID
		it.PackageID = packageID
		it.Activities = activities
		if req.AdditionalInfo != nil {
			it.AdditionalInfo = req.AdditionalInfo
		}

		ok, err := repos.Itineraries.Update(&it, existing.Version)
		if err != nil {
			return err
		}
		if !ok {
			return Conflict("itinerary", "it was modified by another update")
		}
		updated = &it
		return nil
	})
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"itinerary_id": id,
			"group_code":   req.GroupCode,
		}).WithError(err).Warn("Itinerary update rolled back")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"itinerary_id":               updated.ID,
		"version":                    updated.Version,
		"activities":                 len(updated.Activities),
		"cancelled_vehicle_bookings": len(cancelled),
		"released_bookings":          len(released),
	}).Info("Itinerary updated")

	recordAudit(s.audit, s.logger, AuditEvent{
		Context:    actor,
		Action:     AuditItineraryUpdated,
		EntityType: "itinerary",
		EntityID:   &updated.ID,
		Details: map[string]interface{}{
			"version":                    updated.Version,
			"activities":                 len(updated.Activities),
			"cancelled_vehicle_bookings": cancelled,
			"released_bookings":          released,
		},
	})

	return updated, nil
}

// ============================================================================
// REMOVE
// ============================================================================

// Remove cancels every booking and vehicle booking the itinerary references
// (the rows are kept) and deletes the itinerary. A booking another itinerary
// of the group still links to stays live.
func (s *ItineraryService) Remove(id uuid.UUID, actor AuditContext) error {
	var bookingIDs, vehicleBookingIDs []uuid.UUID

	err := s.uow.WithinTx(func(repos Repositories) error {
		existing, err := repos.Itineraries.GetByID(id)
		if err != nil {
			return err
		}
		if existing == nil {
			return NotFound("itinerary", id)
		}

		bookings := NewAccommodationBookingManager(repos.Bookings, repos.Branches, s.logger)
		vehicles := NewVehicleBookingManager(repos.VehicleBookings, repos.Vehicles, repos.Users, s.logger)

		bookingIDs, err = cancelUnsharedBookings(bookings, repos.Itineraries, existing.ID, existing.Activities.BookingIDs())
		if err != nil {
			return err
		}
		for _, vbID := range existing.Activities.DriveVehicleBookingIDs() {
			if _, err := vehicles.Cancel(vbID); err != nil {
				if IsKind(err, KindNotFound) {
					continue
				}
				return err
			}
			vehicleBookingIDs = append(vehicleBookingIDs, vbID)
		}

		return repos.Itineraries.Delete(id)
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"itinerary_id":               id,
		"cancelled_bookings":         len(bookingIDs),
		"cancelled_vehicle_bookings": len(vehicleBookingIDs),
	}).Info("Itinerary removed")

	recordAudit(s.audit, s.logger, AuditEvent{
		Context:    actor,
		Action:     AuditItineraryRemoved,
		EntityType: "itinerary",
		EntityID:   &id,
		Details: map[string]interface{}{
			"cancelled_bookings":         bookingIDs,
			"cancelled_vehicle_bookings": vehicleBookingIDs,
		},
	})
	return nil
}

// ============================================================================
// PER-ACTIVITY COMPOSITION
// ============================================================================

// composeAll processes activities in list order; the first failure wins
func (c *composition) composeAll(inputs []models.ActivityInput) (models.Activities, error) {
	activities := make(models.Activities, 0, len(inputs))
	for i := range inputs {
		act, err := c.compose(i, &inputs[i])
		if err != nil {
			return nil, err
		}
		activities = append(activities, act)
	}
	return activities, nil
}

// compose validates one activity, then books its accommodation and, for
// DRIVE transfers, its vehicle. Venue, transfer details, vehicle, driver and
// any carried-over vehicle booking are checked before the activity's writes;
// branch existence is checked by the booking manager ahead of its own write.
func (c *composition) compose(index int, in *models.ActivityInput) (models.ItineraryActivity, error) {
	field := fmt.Sprintf("activities[%d]", index)

	venue := in.Venue()
	if !venue.IsExclusive() {
		return models.ItineraryActivity{}, ExclusivityViolation(field)
	}
	if in.Date.IsZero() {
		return models.ItineraryActivity{}, BadRequest(field+".date", "is required")
	}

	mode := models.ParseTransferMode(in.Transfer)
	details, err := models.DecodeTransferDetails(mode, in.TransferDetails)
	if err != nil {
		var fieldErr *models.FieldError
		if errors.As(err, &fieldErr) {
			return models.ItineraryActivity{}, BadRequest(field+"."+fieldErr.Field, fieldErr.Message)
		}
		return models.ItineraryActivity{}, err
	}

	var prev *models.ItineraryActivity
	if c.update && in.ID != nil {
		prev = c.previous.ByID(*in.ID)
	}

	drive, isDrive := details.(models.DriveDetails)
	var linked *models.VehicleBooking
	if isDrive {
		if linked, err = c.checkDrive(in, drive, prev); err != nil {
			return models.ItineraryActivity{}, err
		}
	}

	booking, err := c.resolveBooking(in, venue, prev)
	if err != nil {
		return models.ItineraryActivity{}, err
	}

	act := models.ItineraryActivity{
		ID:              uuid.New(),
		Name:            in.Name,
		Date:            in.Date,
		Description:     in.Description,
		Meal:            in.Meal,
		BookingID:       booking.ID,
		Transfer:        mode,
		TransferDetails: details,
	}
	if prev != nil {
		act.ID = prev.ID
	}

	if isDrive {
		vb, err := c.resolveVehicleBooking(in, drive, linked)
		if err != nil {
			return models.ItineraryActivity{}, err
		}
		act.VehicleBookingID = &vb.ID
	}

	return act, nil
}

// resolveBooking creates or reuses the activity's accommodation booking.
//
// Create reuses the group's live booking at the venue on that date, else books it.
// Update looks the booking up, in order, by group+venue+date, by the echoed
// activity's previous booking, then by group+venue, and mutates it in place;
// NotFound when the group holds no booking at the venue. A date and venue the
// group already holds a live booking for always resolves to that booking.
func (c *composition) resolveBooking(in *models.ActivityInput, venue models.Venue, prev *models.ItineraryActivity) (*models.Booking, error) {
	dateKey := dateOnly(in.Date).Format("2006-01-02")
	changes := models.UpdateBookingRequest{
		Date:    &in.Date,
		HotelID: venue.HotelBranchID,
		LodgeID: venue.LodgeBranchID,
		Meal:    in.Meal,
		Comment: in.Comment,
	}

	if !c.update {
		existing, err := c.bookings.FindForDate(c.group.ID, venue, in.Date)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			booking, err := c.bookings.Create(models.CreateBookingParams{
				GroupID: c.group.ID,
				Date:    in.Date,
				Meal:    in.Meal,
				Venue:   venue,
				Comment: in.Comment,
			})
			if err != nil {
				return nil, err
			}
			c.claimed[booking.ID] = dateKey
			return booking, nil
		}
		return c.mutate(existing.ID, changes, dateKey)
	}

	booking, err := c.bookings.FindForDate(c.group.ID, venue, in.Date)
	if err != nil {
		return nil, err
	}
	if booking != nil && c.claimable(booking.ID, dateKey) {
		return c.mutate(booking.ID, changes, dateKey)
	}

	if prev != nil {
		previous, err := c.bookings.Get(prev.BookingID)
		if err != nil && !IsKind(err, KindNotFound) {
			return nil, err
		}
		if previous != nil && !previous.Status.IsCancelled() && c.claimable(previous.ID, dateKey) {
			return c.mutate(previous.ID, changes, dateKey)
		}
	}

	booking, err = c.bookings.FindByGroupAndVenue(c.group.ID, venue)
	if err != nil {
		return nil, err
	}
	if !c.claimable(booking.ID, dateKey) {
		// The venue's booking already serves another date of this update;
		// moving it would strip that activity, so this date gets its own.
		created, err := c.bookings.Create(models.CreateBookingParams{
			GroupID: c.group.ID,
			Date:    in.Date,
			Meal:    in.Meal,
			Venue:   venue,
			Comment: in.Comment,
		})
		if err != nil {
			return nil, err
		}
		c.claimed[created.ID] = dateKey
		return created, nil
	}
	return c.mutate(booking.ID, changes, dateKey)
}

func (c *composition) mutate(id uuid.UUID, changes models.UpdateBookingRequest, dateKey string) (*models.Booking, error) {
	booking, err := c.bookings.Update(id, changes)
	if err != nil {
		return nil, err
	}
	c.claimed[booking.ID] = dateKey
	return booking, nil
}

// claimable reports whether the booking is unused in this call or used for the same date
func (c *composition) claimable(id uuid.UUID, dateKey string) bool {
	claimedFor, ok := c.claimed[id]
	return !ok || claimedFor == dateKey
}

// checkDrive validates the vehicle and driver of a DRIVE activity and loads
// the vehicle booking it carries over (explicit id, else the echoed activity's)
func (c *composition) checkDrive(in *models.ActivityInput, drive models.DriveDetails, prev *models.ItineraryActivity) (*models.VehicleBooking, error) {
	if err := c.vehicles.ValidateVehicle(drive.VehicleID); err != nil {
		return nil, err
	}
	if err := c.vehicles.ValidateDriver(drive.DriverID); err != nil {
		return nil, err
	}

	vbID := in.VehicleBookingID
	if vbID == nil && prev != nil && prev.Transfer.IsDrive() {
		vbID = prev.VehicleBookingID
	}
	if vbID == nil {
		return nil, nil
	}
	return c.vehicles.Find(*vbID)
}

// resolveVehicleBooking creates or updates the vehicle booking of a DRIVE
// activity. A cancelled vehicle booking is never revived; a fresh one is made.
func (c *composition) resolveVehicleBooking(in *models.ActivityInput, drive models.DriveDetails, linked *models.VehicleBooking) (*models.VehicleBooking, error) {
	if linked == nil || linked.Status.IsCancelled() {
		return c.vehicles.Create(models.CreateVehicleBookingParams{
			VehicleID: drive.VehicleID,
			DriverID:  drive.DriverID,
			Date:      in.Date,
			Status:    drive.Status,
			Comment:   drive.Comment,
		})
	}

	return c.vehicles.Update(linked.ID, models.UpdateVehicleBookingParams{
		VehicleID: &drive.VehicleID,
		DriverID:  &drive.DriverID,
		Date:      &in.Date,
		Status:    drive.Status,
		Comment:   drive.Comment,
	})
}

// reconcileVehicleBookings cancels vehicle bookings linked from DRIVE
// activities of the previous list that no DRIVE activity of the new list
// references any more. Runs once per update.
func (c *composition) reconcileVehicleBookings(next models.Activities) ([]uuid.UUID, error) {
	kept := make(map[uuid.UUID]bool)
	for _, id := range next.DriveVehicleBookingIDs() {
		kept[id] = true
	}

	cancelled := make([]uuid.UUID, 0)
	for _, id := range c.previous.DriveVehicleBookingIDs() {
		if kept[id] {
			continue
		}
		vb, err := c.vehicles.Cancel(id)
		if err != nil {
			if IsKind(err, KindNotFound) {
				c.logger.WithField("vehicle_booking_id", id).Warn("Stale vehicle booking reference skipped during reconciliation")
				continue
			}
			return nil, err
		}
		cancelled = append(cancelled, vb.ID)
	}
	return cancelled, nil
}

// unreferenced returns the bookings of previous that next no longer links to
func unreferenced(previous, next models.Activities) []uuid.UUID {
	kept := make(map[uuid.UUID]bool)
	for _, id := range next.BookingIDs() {
		kept[id] = true
	}
	ids := make([]uuid.UUID, 0)
	for _, id := range previous.BookingIDs() {
		if !kept[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

// cancelUnsharedBookings cancels each booking unless an itinerary other than
// itineraryID still links to it. Missing bookings are skipped.
func cancelUnsharedBookings(bookings *AccommodationBookingManager, itineraries ItineraryRepository, itineraryID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	cancelled := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		shared, err := itineraries.ReferencesBooking(id, itineraryID)
		if err != nil {
			return nil, err
		}
		if shared {
			continue
		}
		if _, err := bookings.Cancel(id); err != nil {
			if IsKind(err, KindNotFound) {
				continue
			}
			return nil, err
		}
		cancelled = append(cancelled, id)
	}
	return cancelled, nil
}

func pickID(supplied *uuid.UUID, fallback uuid.UUID) uuid.UUID {
	if supplied != nil {
		return *supplied
	}
	return fallback
}
