package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tripdesk/pms-backend/internal/models"
)

const dateLayout = "2006-01-02"

// DashboardProvider summarizes operations over a date range
type DashboardProvider interface {
	GetDashboard(start, end time.Time) (*models.Dashboard, error)
}

// DashboardHandler handles the operations dashboard
type DashboardHandler struct {
	dashboard DashboardProvider
	logger    *logrus.Logger
	now       func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(dashboard DashboardProvider, logger *logrus.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		logger:    logger,
		now:       time.Now,
	}
}

// GetDashboard handles GET /api/v1/dashboard?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD.
// start_date defaults to today; a missing end_date uses the default window.
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	start, ok := h.dateQuery(c, "start_date", "startDate")
	if !ok {
		return
	}
	if start.IsZero() {
		start = h.now()
	}
	end, ok := h.dateQuery(c, "end_date", "endDate")
	if !ok {
		return
	}

	dashboard, err := h.dashboard.GetDashboard(start, end)
	if err != nil {
		respondError(c, h.logger, err, "load dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *DashboardHandler) dateQuery(c *gin.Context, keys ...string) (time.Time, bool) {
	for _, key := range keys {
		raw := c.Query(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "bad_request",
				Message: key + " must be a date in YYYY-MM-DD format",
				Code:    key,
			})
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, true
}
