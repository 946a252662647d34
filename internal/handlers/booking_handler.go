package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tripdesk/pms-backend/internal/models"
	"github.com/tripdesk/pms-backend/internal/services"
)

// BookingCommands changes bookings outside of an itinerary write
type BookingCommands interface {
	UpdateBooking(id uuid.UUID, req *models.UpdateBookingRequest, actor services.AuditContext) (*models.BookingView, error)
	CancelVehicleBooking(id uuid.UUID, actor services.AuditContext) (*models.VehicleBookingView, error)
}

// BookingHandler handles accommodation and vehicle booking HTTP requests
type BookingHandler struct {
	queries  ItineraryQueries
	commands BookingCommands
	logger   *logrus.Logger
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(queries ItineraryQueries, commands BookingCommands, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		queries:  queries,
		commands: commands,
		logger:   logger,
	}
}

// ListBookings handles GET /api/v1/pms/bookings
func (h *BookingHandler) ListBookings(c *gin.Context) {
	page, err := h.queries.ListBookings(pageQuery(c))
	if err != nil {
		respondError(c, h.logger, err, "list bookings")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetBooking handles GET /api/v1/pms/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "booking")
	if !ok {
		return
	}

	view, err := h.queries.GetBooking(id)
	if err != nil {
		respondError(c, h.logger, err, "get booking")
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateBooking handles PATCH /api/v1/pms/bookings/:id
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "booking")
	if !ok {
		return
	}

	var req models.UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindingError(c, err)
		return
	}

	view, err := h.commands.UpdateBooking(id, &req, auditContext(c))
	if err != nil {
		respondError(c, h.logger, err, "update booking")
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListVehicleBookings handles GET /api/v1/pms/vehicle-bookings
func (h *BookingHandler) ListVehicleBookings(c *gin.Context) {
	page, err := h.queries.ListVehicleBookings(pageQuery(c))
	if err != nil {
		respondError(c, h.logger, err, "list vehicle bookings")
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetVehicleBooking handles GET /api/v1/pms/vehicle-bookings/:id
func (h *BookingHandler) GetVehicleBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "vehicle booking")
	if !ok {
		return
	}

	view, err := h.queries.GetVehicleBooking(id)
	if err != nil {
		respondError(c, h.logger, err, "get vehicle booking")
		return
	}
	c.JSON(http.StatusOK, view)
}

// CancelVehicleBooking handles POST /api/v1/pms/vehicle-bookings/:id/cancel
func (h *BookingHandler) CancelVehicleBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "vehicle booking")
	if !ok {
		return
	}

	view, err := h.commands.CancelVehicleBooking(id, auditContext(c))
	if err != nil {
		respondError(c, h.logger, err, "cancel vehicle booking")
		return
	}
	c.JSON(http.StatusOK, view)
}
