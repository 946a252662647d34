package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tripdesk/pms-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// statusForKind maps service error kinds onto HTTP status codes. Every
// validation failure, NotFound included, is a client error.
func statusForKind(kind services.ErrorKind) int {
	switch kind {
	case services.KindConflict:
		return http.StatusConflict
	case services.KindNotFound,
		services.KindInvalidAssignment,
		services.KindInvalidReference,
		services.KindExclusivityViolation,
		services.KindBadRequest:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError writes err as an ErrorResponse. Unclassified errors are logged
// and hidden behind a generic message.
func respondError(c *gin.Context, logger *logrus.Logger, err error, action string) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		c.JSON(statusForKind(svcErr.Kind), ErrorResponse{
			Error:   strings.ToLower(string(svcErr.Kind)),
			Message: svcErr.Message,
			Code:    svcErr.Subject,
		})
		return
	}

	logger.WithFields(logrus.Fields{
		"action": action,
		"path":   c.Request.URL.Path,
	}).WithError(err).Error("Request failed")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "Failed to " + action,
	})
}
