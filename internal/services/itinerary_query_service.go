package services

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tripdesk/pms-backend/internal/models"
)

// URLSigner turns a stored media key into a time-limited access URL
type URLSigner interface {
	SignURL(key string) (string, error)
}

// ItineraryQueryService expands persisted itineraries, bookings and vehicle
// bookings into read models. It performs no writes; references that no longer
// resolve are left nil and current state is reflected as-is.
type ItineraryQueryService struct {
	repos  Repositories
	signer URLSigner
	logger *logrus.Logger
}

// NewItineraryQueryService creates a new itinerary query service
func NewItineraryQueryService(repos Repositories, signer URLSigner, logger *logrus.Logger) *ItineraryQueryService {
	return &ItineraryQueryService{
		repos:  repos,
		signer: signer,
		logger: logger,
	}
}

// ============================================================================
// ITINERARIES
// ============================================================================

// GetItinerary returns the hydrated itinerary or NotFound
func (s *ItineraryQueryService) GetItinerary(id uuid.UUID) (*models.ItineraryView, error) {
	it, err := s.repos.Itineraries.GetByID(id)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, NotFound("itinerary", id)
	}
	return s.newHydrator().itinerary(it)
}

// ListItineraries returns one page of hydrated itineraries
func (s *ItineraryQueryService) ListItineraries(q models.PageQuery) (models.Page[models.ItineraryView], error) {
	rows, total, err := s.repos.Itineraries.List(q)
	if err != nil {
		return models.Page[models.ItineraryView]{}, err
	}

	h := s.newHydrator()
	views := make([]models.ItineraryView, 0, len(rows))
	for i := range rows {
		view, err := h.itinerary(&rows[i])
		if err != nil {
			return models.Page[models.ItineraryView]{}, err
		}
		views = append(views, *view)
	}
	return models.NewPage(views, total, q), nil
}

// ============================================================================
// BOOKINGS
// ============================================================================

// GetBooking returns the hydrated booking or NotFound
func (s *ItineraryQueryService) GetBooking(id uuid.UUID) (*models.BookingView, error) {
	booking, err := s.repos.Bookings.GetByID(id)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, NotFound("booking", id)
	}
	return s.newHydrator().booking(booking)
}

// ListBookings returns one page of hydrated bookings
func (s *ItineraryQueryService) ListBookings(q models.PageQuery) (models.Page[models.BookingView], error) {
	rows, total, err := s.repos.Bookings.List(q)
	if err != nil {
		return models.Page[models.BookingView]{}, err
	}

	h := s.newHydrator()
	views := make([]models.BookingView, 0, len(rows))
	for i := range rows {
		view, err := h.booking(&rows[i])
		if err != nil {
			return models.Page[models.BookingView]{}, err
		}
		views = append(views, *view)
	}
	return models.NewPage(views, total, q), nil
}

// ============================================================================
// VEHICLE BOOKINGS
// ============================================================================

// GetVehicleBooking returns the vehicle booking with vehicle and driver, or NotFound
func (s *ItineraryQueryService) GetVehicleBooking(id uuid.UUID) (*models.VehicleBookingView, error) {
	vb, err := s.repos.VehicleBookings.GetByID(id)
	if err != nil {
		return nil, err
	}
	if vb == nil {
		return nil, NotFound("vehicle booking", id)
	}
	return s.newHydrator().vehicleBooking(vb)
}

// ListVehicleBookings returns one page of hydrated vehicle bookings
func (s *ItineraryQueryService) ListVehicleBookings(q models.PageQuery) (models.Page[models.VehicleBookingView], error) {
	rows, total, err := s.repos.VehicleBookings.List(q)
	if err != nil {
		return models.Page[models.VehicleBookingView]{}, err
	}

	h := s.newHydrator()
	views := make([]models.VehicleBookingView, 0, len(rows))
	for i := range rows {
		view, err := h.vehicleBooking(&rows[i])
		if err != nil {
			return models.Page[models.VehicleBookingView]{}, err
		}
		views = append(views, *view)
	}
	return models.NewPage(views, total, q), nil
}

// ============================================================================
// HYDRATION
// ============================================================================

type branchKey struct {
	kind models.VenueKind
	id   uuid.UUID
}

// hydrator memoizes lookups for the duration of one read call
type hydrator struct {
	s        *ItineraryQueryService
	groups   map[uuid.UUID]*models.Group
	users    map[uuid.UUID]*models.UserSummary
	vehicles map[uuid.UUID]*models.VehicleView
	branches map[branchKey]*models.VenueView
	packages map[uuid.UUID]*models.Package
}

func (s *ItineraryQueryService) newHydrator() *hydrator {
	return &hydrator{
		s:        s,
		groups:   make(map[uuid.UUID]*models.Group),
		users:    make(map[uuid.UUID]*models.UserSummary),
		vehicles: make(map[uuid.UUID]*models.VehicleView),
		branches: make(map[branchKey]*models.VenueView),
		packages: make(map[uuid.UUID]*models.Package),
	}
}

func (h *hydrator) itinerary(it *models.Itinerary) (*models.ItineraryView, error) {
	view := &models.ItineraryView{
		ID:             it.ID,
		AdditionalInfo: it.AdditionalInfo,
		Version:        it.Version,
		CreatedAt:      it.CreatedAt,
		UpdatedAt:      it.UpdatedAt,
		Activities:     make([]models.ActivityView, 0, len(it.Activities)),
	}

	group, err := h.group(it.GroupID)
	if err != nil {
		return nil, err
	}
	if group != nil {
		view.Group = group.Summary()
	}
	if view.Leader, err = h.user(it.LeaderID); err != nil {
		return nil, err
	}
	if view.Guide, err = h.user(it.GuideID); err != nil {
		return nil, err
	}
	if view.Package, err = h.pkg(it.PackageID); err != nil {
		return nil, err
	}

	for i := range it.Activities {
		act, err := h.activity(&it.Activities[i])
		if err != nil {
			return nil, err
		}
		view.Activities = append(view.Activities, *act)
	}
	return view, nil
}

func (h *hydrator) activity(a *models.ItineraryActivity) (*models.ActivityView, error) {
	view := &models.ActivityView{
		ID:               a.ID,
		Name:             a.Name,
		Date:             a.Date,
		Description:      a.Description,
		Meal:             a.Meal,
		Transfer:         a.Transfer,
		TransferDetails:  a.TransferDetails,
		BookingID:        a.BookingID,
		VehicleBookingID: a.VehicleBookingID,
	}

	booking, err := h.s.repos.Bookings.GetByID(a.BookingID)
	if err != nil {
		return nil, err
	}
	if booking != nil {
		if view.Booking, err = h.booking(booking); err != nil {
			return nil, err
		}
	}

	drive, ok := a.Drive()
	if !ok {
		return view, nil
	}
	if view.Driver, err = h.user(drive.DriverID); err != nil {
		return nil, err
	}
	if view.Vehicle, err = h.vehicle(drive.VehicleID); err != nil {
		return nil, err
	}
	if a.VehicleBookingID != nil {
		if view.VehicleBooking, err = h.s.repos.VehicleBookings.GetByID(*a.VehicleBookingID); err != nil {
			return nil, err
		}
	}
	return view, nil
}

func (h *hydrator) booking(b *models.Booking) (*models.BookingView, error) {
	view := &models.BookingView{Booking: *b}

	group, err := h.group(b.GroupID)
	if err != nil {
		return nil, err
	}
	if group != nil {
		view.GroupCode = group.Code
	}

	venue := b.Venue()
	if venue.IsExclusive() {
		if view.Venue, err = h.branch(venue.Kind(), venue.BranchID()); err != nil {
			return nil, err
		}
	}
	return view, nil
}

func (h *hydrator) vehicleBooking(vb *models.VehicleBooking) (*models.VehicleBookingView, error) {
	view := &models.VehicleBookingView{VehicleBooking: *vb}
	var err error
	if view.Vehicle, err = h.vehicle(vb.VehicleID); err != nil {
		return nil, err
	}
	if view.Driver, err = h.user(vb.DriverID); err != nil {
		return nil, err
	}
	return view, nil
}

func (h *hydrator) group(id uuid.UUID) (*models.Group, error) {
	if g, ok := h.groups[id]; ok {
		return g, nil
	}
	g, err := h.s.repos.Groups.GetByID(id)
	if err != nil {
		return nil, err
	}
	h.groups[id] = g
	return g, nil
}

func (h *hydrator) user(id uuid.UUID) (*models.UserSummary, error) {
	if u, ok := h.users[id]; ok {
		return u, nil
	}
	user, err := h.s.repos.Users.GetByID(id)
	if err != nil {
		return nil, err
	}
	var summary *models.UserSummary
	if user != nil {
		summary = user.Summary()
		summary.ProfileImage = h.sign(user.ProfileImage)
	}
	h.users[id] = summary
	return summary, nil
}

func (h *hydrator) vehicle(id uuid.UUID) (*models.VehicleView, error) {
	if v, ok := h.vehicles[id]; ok {
		return v, nil
	}
	vehicle, err := h.s.repos.Vehicles.GetByID(id)
	if err != nil {
		return nil, err
	}
	var view *models.VehicleView
	if vehicle != nil {
		view = &models.VehicleView{
			ID:       vehicle.ID,
			Model:    vehicle.Model,
			Number:   vehicle.Number,
			ImageURL: h.sign(vehicle.Image),
		}
	}
	h.vehicles[id] = view
	return view, nil
}

func (h *hydrator) branch(kind models.VenueKind, id uuid.UUID) (*models.VenueView, error) {
	key := branchKey{kind: kind, id: id}
	if v, ok := h.branches[key]; ok {
		return v, nil
	}
	branch, err := h.s.repos.Branches.GetBranch(kind, id)
	if err != nil {
		return nil, err
	}
	var view *models.VenueView
	if branch != nil {
		view = &models.VenueView{
			Kind:         kind,
			BranchID:     branch.ID,
			BranchName:   branch.Name,
			PropertyID:   branch.PropertyID,
			PropertyName: branch.PropertyName,
			City:         branch.City,
			Address:      branch.Address,
			Phone:        branch.Phone,
			ImageURL:     h.sign(branch.Image),
		}
	}
	h.branches[key] = view
	return view, nil
}

func (h *hydrator) pkg(id uuid.UUID) (*models.Package, error) {
	if p, ok := h.packages[id]; ok {
		return p, nil
	}
	p, err := h.s.repos.Packages.GetByID(id)
	if err != nil {
		return nil, err
	}
	h.packages[id] = p
	return p, nil
}

// sign returns a signed URL for a media key. Signing failures leave the URL
// empty rather than failing the whole read.
func (h *hydrator) sign(key *string) *string {
	if key == nil || *key == "" || h.s.signer == nil {
		return nil
	}
	url, err := h.s.signer.SignURL(*key)
	if err != nil {
		h.s.logger.WithField("key", *key).WithError(err).Warn("Failed to sign media URL")
		return nil
	}
	return &url
}
