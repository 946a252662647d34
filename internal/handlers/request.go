package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tripdesk/pms-backend/internal/middleware"
	"github.com/tripdesk/pms-backend/internal/models"
	"github.com/tripdesk/pms-backend/internal/services"
	"github.com/tripdesk/pms-backend/internal/utils"
)

// parseIDParam reads a UUID path parameter, writing a 400 when it is malformed
func parseIDParam(c *gin.Context, name, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid " + entity + " ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// pageQuery reads search, page and perPage (or per_page) query parameters
func pageQuery(c *gin.Context) models.PageQuery {
	page, _ := strconv.Atoi(c.Query("page"))
	perPageStr := c.Query("perPage")
	if perPageStr == "" {
		perPageStr = c.Query("per_page")
	}
	perPage, _ := strconv.Atoi(perPageStr)
	return models.NewPageQuery(c.Query("search"), page, perPage)
}

// auditContext identifies the caller for the audit trail
func auditContext(c *gin.Context) services.AuditContext {
	actor := services.AuditContext{
		IPAddress: utils.GetRealIP(c),
		UserAgent: utils.GetUserAgent(c),
	}
	if userCtx, ok := middleware.GetUserContext(c); ok {
		id := userCtx.UserID
		actor.UserID = &id
	}
	return actor
}

func bindingError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}
