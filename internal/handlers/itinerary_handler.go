package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tripdesk/pms-backend/internal/models"
	"github.com/tripdesk/pms-backend/internal/services"
)

// ItineraryCommands creates, updates and removes itineraries
type ItineraryCommands interface {
	Create(req *models.CreateItineraryRequest, actor services.AuditContext) (*models.Itinerary, error)
	Update(id uuid.UUID, req *models.UpdateItineraryRequest, actor services.AuditContext) (*models.Itinerary, error)
	Remove(id uuid.UUID, actor services.AuditContext) error
}

// ItineraryQueries reads hydrated itineraries, bookings and vehicle bookings
type ItineraryQueries interface {
	GetItinerary(id uuid.UUID) (*models.ItineraryView, error)
	ListItineraries(q models.PageQuery) (models.Page[models.ItineraryView], error)
	GetBooking(id uuid.UUID) (*models.BookingView, error)
	ListBookings(q models.PageQuery) (models.Page[models.BookingView], error)
	GetVehicleBooking(id uuid.UUID) (*models.VehicleBookingView, error)
	ListVehicleBookings(q models.PageQuery) (models.Page[models.VehicleBookingView], error)
}

// TripSheetRenderer renders the printable trip sheet of an itinerary
type TripSheetRenderer interface {
	Render(id uuid.UUID) ([]byte, string, error)
}

// ItineraryHandler handles itinerary-related HTTP requests
type ItineraryHandler struct {
	commands   ItineraryCommands
	queries    ItineraryQueries
	tripSheets TripSheetRenderer
	logger     *logrus.Logger
}

// NewItineraryHandler creates a new itinerary handler
func NewItineraryHandler(
	commands ItineraryCommands,
	queries ItineraryQueries,
	tripSheets TripSheetRenderer,
	logger *logrus.Logger,
) *ItineraryHandler {
	return &ItineraryHandler{
		commands:   commands,
		queries:    queries,
		tripSheets: tripSheets,
		logger:     logger,
	}
}

// CreateItinerary handles POST /api/v1/pms
func (h *ItineraryHandler) CreateItinerary(c *gin.Context) {
	var req models.CreateItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	it, err := h.commands.Create(&req, auditContext(c))
	if err != nil {
		respondError(c, h.logger, err, "create itinerary")
		return
	}

	h.respondHydrated(c, http.StatusCreated, it.ID)
}

// ListItineraries handles GET /api/v1/pms
func (h *ItineraryHandler) ListItineraries(c *gin.Context) {
	page, err := h.queries.ListItineraries(pageQuery(c))
	if err != nil {
		respondError(c, h.logger, err, "list itineraries")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetItinerary handles GET /api/v1/pms/:id
func (h *ItineraryHandler) GetItinerary(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "itinerary")
	if !ok {
		return
	}
	h.respondHydrated(c, http.StatusOK, id)
}

// UpdateItinerary handles PATCH /api/v1/pms/:id
func (h *ItineraryHandler) UpdateItinerary(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "itinerary")
	if !ok {
		return
	}

	var req models.UpdateItineraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	it, err := h.commands.Update(id, &req, auditContext(c))
	if err != nil {
		respondError(c, h.logger, err, "update itinerary")
		return
	}

	h.respondHydrated(c, http.StatusOK, it.ID)
}

// RemoveItinerary handles DELETE /api/v1/pms/:id
func (h *ItineraryHandler) RemoveItinerary(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "itinerary")
	if !ok {
		return
	}

	if err := h.commands.Remove(id, auditContext(c)); err != nil {
		respondError(c, h.logger, err, "remove itinerary")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Itinerary removed",
		"id":      id,
	})
}

// GetTripSheet handles GET /api/v1/pms/:id/trip-sheet
func (h *ItineraryHandler) GetTripSheet(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "itinerary")
	if !ok {
		return
	}

	pdf, filename, err := h.tripSheets.Render(id)
	if err != nil {
		respondError(c, h.logger, err, "render trip sheet")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *ItineraryHandler) respondHydrated(c *gin.Context, status int, id uuid.UUID) {
	view, err := h.queries.GetItinerary(id)
	if err != nil {
		respondError(c, h.logger, err, "load itinerary")
		return
	}
	c.JSON(status, view)
}
