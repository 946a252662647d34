package services

import (
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tripdesk/pms-backend/internal/models"
)

// memStore is an in-memory stand-in for the PostgreSQL repositories. WithinTx
// snapshots the mutable tables and restores them when fn fails, mirroring a
// rolled back transaction.
type memStore struct {
	groups    map[uuid.UUID]*models.Group
	packages  map[uuid.UUID]*models.Package
	branches  map[branchKey]*models.Branch
	vehicles  map[uuid.UUID]*models.Vehicle
	users     map[uuid.UUID]*models.User
	bookings  map[uuid.UUID]models.Booking
	vbookings map[uuid.UUID]models.VehicleBooking
	itins     map[uuid.UUID]models.Itinerary

	seq   int
	order map[uuid.UUID]int

	failItineraryWrite error
	staleOnUpdate      bool

	// booking creates and updates attempted, kept across rollbacks
	bookingWrites int
}

func newMemStore() *memStore {
	return &memStore{
		groups:    make(map[uuid.UUID]*models.Group),
		packages:  make(map[uuid.UUID]*models.Package),
		branches:  make(map[branchKey]*models.Branch),
		vehicles:  make(map[uuid.UUID]*models.Vehicle),
		users:     make(map[uuid.UUID]*models.User),
		bookings:  make(map[uuid.UUID]models.Booking),
		vbookings: make(map[uuid.UUID]models.VehicleBooking),
		itins:     make(map[uuid.UUID]models.Itinerary),
		order:     make(map[uuid.UUID]int),
	}
}

func (s *memStore) next(id uuid.UUID) {
	s.seq++
	s.order[id] = s.seq
}

func (s *memStore) repos() Repositories {
	return Repositories{
		Groups:          memGroups{s},
		Packages:        memPackages{s},
		Branches:        memBranches{s},
		Vehicles:        memVehicles{s},
		Users:           memUsers{s},
		Bookings:        memBookings{s},
		VehicleBookings: memVehicleBookings{s},
		Itineraries:     memItineraries{s},
	}
}

type memUnitOfWork struct {
	s *memStore
}

func (u memUnitOfWork) Repos() Repositories {
	return u.s.repos()
}

func (u memUnitOfWork) WithinTx(fn func(repos Repositories) error) error {
	bookings := make(map[uuid.UUID]models.Booking, len(u.s.bookings))
	for k, v := range u.s.bookings {
		bookings[k] = v
	}
	vbookings := make(map[uuid.UUID]models.VehicleBooking, len(u.s.vbookings))
	for k, v := range u.s.vbookings {
		vbookings[k] = v
	}
	itins := make(map[uuid.UUID]models.Itinerary, len(u.s.itins))
	for k, v := range u.s.itins {
		itins[k] = v
	}

	if err := fn(u.s.repos()); err != nil {
		u.s.bookings = bookings
		u.s.vbookings = vbookings
		u.s.itins = itins
		return err
	}
	return nil
}

// ----------------------------------------------------------------------------

type memGroups struct{ s *memStore }

func (r memGroups) GetByCode(code string) (*models.Group, error) {
	for _, g := range r.s.groups {
		if g.Code == code {
			cp := *g
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memGroups) GetByID(id uuid.UUID) (*models.Group, error) {
	if g, ok := r.s.groups[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, nil
}

type memPackages struct{ s *memStore }

func (r memPackages) GetByID(id uuid.UUID) (*models.Package, error) {
	if p, ok := r.s.packages[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

type memBranches struct{ s *memStore }

func (r memBranches) GetBranch(kind models.VenueKind, id uuid.UUID) (*models.Branch, error) {
	if b, ok := r.s.branches[branchKey{kind: kind, id: id}]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

type memVehicles struct{ s *memStore }

func (r memVehicles) GetByID(id uuid.UUID) (*models.Vehicle, error) {
	if v, ok := r.s.vehicles[id]; ok {
		cp := *v
		return &cp, nil
	}
	return nil, nil
}

type memUsers struct{ s *memStore }

func (r memUsers) GetByID(id uuid.UUID) (*models.User, error) {
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

type memBookings struct{ s *memStore }

func (r memBookings) Create(b *models.Booking) error {
	r.s.bookingWrites++
	if !b.Venue().IsExclusive() {
		return errors.New(`pq: new row for relation "bookings" violates check constraint "bookings_one_venue"`)
	}
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = models.BookingStatusPending
	}
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	r.s.bookings[b.ID] = *b
	r.s.next(b.ID)
	return nil
}

func (r memBookings) Update(b *models.Booking) error {
	r.s.bookingWrites++
	if _, ok := r.s.bookings[b.ID]; !ok {
		return errors.New("booking not found")
	}
	b.UpdatedAt = time.Now()
	r.s.bookings[b.ID] = *b
	return nil
}

func (r memBookings) GetByID(id uuid.UUID) (*models.Booking, error) {
	if b, ok := r.s.bookings[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (r memBookings) sorted(match func(models.Booking) bool, less func(a, b models.Booking) bool) []models.Booking {
	out := make([]models.Booking, 0)
	for _, b := range r.s.bookings {
		if match(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func (r memBookings) FindByGroupVenueDate(groupID uuid.UUID, venue models.Venue, date time.Time) (*models.Booking, error) {
	found := r.sorted(func(b models.Booking) bool {
		return b.GroupID == groupID && b.Venue().Same(venue) && b.Date.Equal(dateOnly(date)) && !b.Status.IsCancelled()
	}, func(a, b models.Booking) bool { return r.s.order[a.ID] < r.s.order[b.ID] })
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (r memBookings) FindByGroupAndVenue(groupID uuid.UUID, venue models.Venue) (*models.Booking, error) {
	found := r.sorted(func(b models.Booking) bool {
		return b.GroupID == groupID && b.Venue().Same(venue) && !b.Status.IsCancelled()
	}, func(a, b models.Booking) bool {
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return r.s.order[a.ID] < r.s.order[b.ID]
	})
	if len(found) == 0 {
		return nil, nil
	}
	return &found[0], nil
}

func (r memBookings) List(q models.PageQuery) ([]models.Booking, int, error) {
	all := r.sorted(func(b models.Booking) bool {
		if q.Search == "" {
			return true
		}
		g := r.s.groups[b.GroupID]
		return g != nil && strings.Contains(strings.ToLower(g.Code), strings.ToLower(q.Search))
	}, func(a, b models.Booking) bool { return r.s.order[a.ID] < r.s.order[b.ID] })
	return page(all, q), len(all), nil
}

type memVehicleBookings struct{ s *memStore }

func (r memVehicleBookings) Create(vb *models.VehicleBooking) error {
	if vb.ID == uuid.Nil {
		vb.ID = uuid.New()
	}
	vb.CreatedAt = time.Now()
	vb.UpdatedAt = vb.CreatedAt
	r.s.vbookings[vb.ID] = *vb
	r.s.next(vb.ID)
	return nil
}

func (r memVehicleBookings) Update(vb *models.VehicleBooking) error {
	if _, ok := r.s.vbookings[vb.ID]; !ok {
		return errors.New("vehicle booking not found")
	}
	vb.UpdatedAt = time.Now()
	r.s.vbookings[vb.ID] = *vb
	return nil
}

func (r memVehicleBookings) GetByID(id uuid.UUID) (*models.VehicleBooking, error) {
	if vb, ok := r.s.vbookings[id]; ok {
		return &vb, nil
	}
	return nil, nil
}

func (r memVehicleBookings) List(q models.PageQuery) ([]models.VehicleBooking, int, error) {
	all := make([]models.VehicleBooking, 0, len(r.s.vbookings))
	for _, vb := range r.s.vbookings {
		all = append(all, vb)
	}
	sort.Slice(all, func(i, j int) bool { return r.s.order[all[i].ID] < r.s.order[all[j].ID] })
	return page(all, q), len(all), nil
}

type memItineraries struct{ s *memStore }

func (r memItineraries) Create(it *models.Itinerary) error {
	if r.s.failItineraryWrite != nil {
		return r.s.failItineraryWrite
	}
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	it.Version = 1
	it.CreatedAt = time.Now()
	it.UpdatedAt = it.CreatedAt
	r.s.itins[it.ID] = cloneItinerary(*it)
	r.s.next(it.ID)
	return nil
}

func (r memItineraries) Update(it *models.Itinerary, expectedVersion int) (bool, error) {
	if r.s.failItineraryWrite != nil {
		return false, r.s.failItineraryWrite
	}
	current, ok := r.s.itins[it.ID]
	if !ok || current.Version != expectedVersion || r.s.staleOnUpdate {
		return false, nil
	}
	it.Version = expectedVersion + 1
	it.UpdatedAt = time.Now()
	r.s.itins[it.ID] = cloneItinerary(*it)
	return true, nil
}

func (r memItineraries) Delete(id uuid.UUID) error {
	delete(r.s.itins, id)
	return nil
}

func (r memItineraries) GetByID(id uuid.UUID) (*models.Itinerary, error) {
	if it, ok := r.s.itins[id]; ok {
		cp := cloneItinerary(it)
		return &cp, nil
	}
	return nil, nil
}

func (r memItineraries) ReferencesBooking(bookingID, exceptID uuid.UUID) (bool, error) {
	for id, it := range r.s.itins {
		if id == exceptID {
			continue
		}
		for _, act := range it.Activities {
			if act.BookingID == bookingID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r memItineraries) List(q models.PageQuery) ([]models.Itinerary, int, error) {
	all := make([]models.Itinerary, 0, len(r.s.itins))
	search := strings.ToLower(q.Search)
	for _, it := range r.s.itins {
		pkgName := ""
		if pkg, ok := r.s.packages[it.PackageID]; ok {
			pkgName = strings.ToLower(pkg.Name)
		}
		if search == "" || strings.Contains(strings.ToLower(it.GroupCode), search) || strings.Contains(pkgName, search) {
			all = append(all, cloneItinerary(it))
		}
	}
	sort.Slice(all, func(i, j int) bool { return r.s.order[all[i].ID] < r.s.order[all[j].ID] })
	return page(all, q), len(all), nil
}

func cloneItinerary(it models.Itinerary) models.Itinerary {
	it.Activities = append(models.Activities(nil), it.Activities...)
	return it
}

func page[T any](all []T, q models.PageQuery) []T {
	start := q.Offset()
	if start >= len(all) {
		return []T{}
	}
	end := start + q.PerPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

// ----------------------------------------------------------------------------
// FIXTURE
// ----------------------------------------------------------------------------

// fixture seeds one group with a leader, a guide and a participant, a package,
// two hotel branches, one lodge branch, one vehicle and one driver
type fixture struct {
	store *memStore
	uow   memUnitOfWork

	group       *models.Group
	leader      uuid.UUID
	guide       uuid.UUID
	participant uuid.UUID
	pkg         uuid.UUID
	hotelA      uuid.UUID
	hotelB      uuid.UUID
	lodge       uuid.UUID
	vehicle     uuid.UUID
	driver      uuid.UUID
	nonDriver   uuid.UUID

	audit  *recordingAudit
	logger *logrus.Logger
}

type recordingAudit struct {
	events []AuditEvent
	err    error
}

func (a *recordingAudit) Record(event AuditEvent) error {
	a.events = append(a.events, event)
	return a.err
}

func (a *recordingAudit) actions() []string {
	out := make([]string, 0, len(a.events))
	for _, e := range a.events {
		out = append(out, e.Action)
	}
	return out
}

func strPtr(s string) *string { return &s }

func newFixture() *fixture {
	s := newMemStore()
	f := &fixture{
		store:       s,
		uow:         memUnitOfWork{s: s},
		leader:      uuid.New(),
		guide:       uuid.New(),
		participant: uuid.New(),
		pkg:         uuid.New(),
		hotelA:      uuid.New(),
		hotelB:      uuid.New(),
		lodge:       uuid.New(),
		vehicle:     uuid.New(),
		driver:      uuid.New(),
		nonDriver:   uuid.New(),
		audit:       &recordingAudit{},
		logger:      logrus.New(),
	}
	f.logger.SetOutput(io.Discard)

	f.group = &models.Group{
		ID:   uuid.New(),
		Code: "GRP-001",
		Members: []models.GroupMember{
			{UserID: f.leader, Name: "Leader", Roles: []models.MemberRole{models.MemberRoleLeader}},
			{UserID: f.guide, Name: "Guide", Roles: []models.MemberRole{models.MemberRoleGuide}},
			{UserID: f.participant, Name: "Participant", Roles: []models.MemberRole{models.MemberRoleParticipant}},
		},
	}
	s.groups[f.group.ID] = f.group
	s.packages[f.pkg] = &models.Package{ID: f.pkg, Name: "Cultural Triangle", Duration: 5}

	s.branches[branchKey{kind: models.VenueHotel, id: f.hotelA}] = &models.Branch{
		ID: f.hotelA, Kind: models.VenueHotel, Name: "Kandy City", PropertyName: "Grand Hotels", Image: strPtr("hotels/kandy.jpg"),
	}
	s.branches[branchKey{kind: models.VenueHotel, id: f.hotelB}] = &models.Branch{
		ID: f.hotelB, Kind: models.VenueHotel, Name: "Ella Gap", PropertyName: "Grand Hotels",
	}
	s.branches[branchKey{kind: models.VenueLodge, id: f.lodge}] = &models.Branch{
		ID: f.lodge, Kind: models.VenueLodge, Name: "Yala Camp", PropertyName: "Wild Lodges",
	}

	s.vehicles[f.vehicle] = &models.Vehicle{ID: f.vehicle, Model: "Toyota HiAce", Number: strPtr("WP-KA-1234"), Image: strPtr("vehicles/hiace.png")}

	driverDesignation := models.DesignationDriver
	staffDesignation := models.DesignationStaff
	s.users[f.driver] = &models.User{ID: f.driver, Name: "Sunil Driver", Roles: []models.UserRole{models.UserRoleAdmin}, Designation: &driverDesignation}
	s.users[f.nonDriver] = &models.User{ID: f.nonDriver, Name: "Office Staff", Roles: []models.UserRole{models.UserRoleAdmin}, Designation: &staffDesignation}
	s.users[f.leader] = &models.User{ID: f.leader, Name: "Leader", Roles: []models.UserRole{models.UserRoleUser}}
	s.users[f.guide] = &models.User{ID: f.guide, Name: "Guide", Roles: []models.UserRole{models.UserRoleUser}}

	return f
}

func (f *fixture) itineraryService() *ItineraryService {
	return NewItineraryService(f.uow, f.audit, f.logger)
}

func (f *fixture) queryService(signer URLSigner) *ItineraryQueryService {
	return NewItineraryQueryService(f.uow.Repos(), signer, f.logger)
}

func day(d int) time.Time {
	return time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC)
}

func driveDetails(driver, vehicle uuid.UUID) []byte {
	return []byte(`{"driver_id":"` + driver.String() + `","vehicle_id":"` + vehicle.String() + `"}`)
}

func (f *fixture) hotelActivity(name string, date time.Time, hotel uuid.UUID) models.ActivityInput {
	return models.ActivityInput{Name: name, Date: date, HotelID: &hotel, Transfer: "NONE"}
}

func (f *fixture) driveActivity(name string, date time.Time, hotel uuid.UUID) models.ActivityInput {
	return models.ActivityInput{
		Name:            name,
		Date:            date,
		HotelID:         &hotel,
		Transfer:        "DRIVE",
		TransferDetails: driveDetails(f.driver, f.vehicle),
	}
}

func (f *fixture) createRequest(activities ...models.ActivityInput) *models.CreateItineraryRequest {
	return &models.CreateItineraryRequest{
		GroupCode:  f.group.Code,
		LeaderID:   f.leader,
		GuideID:    f.guide,
		PackageID:  f.pkg,
		Activities: activities,
	}
}

// echo turns stored activities back into inputs, the way a client re-submits
// them; the venue comes from each activity's booking
func (f *fixture) echo(stored models.Activities) []models.ActivityInput {
	inputs := make([]models.ActivityInput, 0, len(stored))
	for _, a := range stored {
		id := a.ID
		in := models.ActivityInput{
			ID:               &id,
			Name:             a.Name,
			Date:             a.Date,
			Description:      a.Description,
			Meal:             a.Meal,
			Transfer:         string(a.Transfer),
			VehicleBookingID: a.VehicleBookingID,
		}
		if b, ok := f.store.bookings[a.BookingID]; ok {
			in.HotelID = b.HotelBranchID
			in.LodgeID = b.LodgeBranchID
		}
		if a.TransferDetails != nil {
			in.TransferDetails, _ = json.Marshal(a.TransferDetails)
		}
		inputs = append(inputs, in)
	}
	return inputs
}
