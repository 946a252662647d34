package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tripdesk/pms-backend/internal/database"
	"github.com/tripdesk/pms-backend/internal/utils"
)

// Audit actions written by the itinerary and booking services
const (
	AuditItineraryCreated       = "itinerary_created"
	AuditItineraryUpdated       = "itinerary_updated"
	AuditItineraryRemoved       = "itinerary_removed"
	AuditBookingUpdated         = "booking_updated"
	AuditVehicleBookingCanceled = "vehicle_booking_cancelled"
)

// AuditContext identifies who triggered a change and from where
type AuditContext struct {
	UserID    *uuid.UUID
	IPAddress string
	UserAgent string
}

// AuditEvent represents a change to be recorded in the audit trail
type AuditEvent struct {
	Context    AuditContext
	Action     string                 // e.g. "itinerary_created", "booking_updated"
	EntityType string                 // "itinerary", "booking", "vehicle_booking"
	EntityID   *uuid.UUID             // ID of the affected entity
	Details    map[string]interface{} // Additional details stored as JSONB
}

// AuditRecorder persists audit events
type AuditRecorder interface {
	Record(event AuditEvent) error
}

// AuditService writes audit events to the audit_logs table
type AuditService struct {
	db     database.Querier
	logger *logrus.Logger
}

// NewAuditService creates a new audit service
func NewAuditService(db database.Querier, logger *logrus.Logger) *AuditService {
	return &AuditService{
		db:     db,
		logger: logger,
	}
}

// Record writes one audit event, enriching it with parsed device info
func (s *AuditService) Record(event AuditEvent) error {
	details := make(map[string]interface{}, len(event.Details)+1)
	for k, v := range event.Details {
		details[k] = v
	}
	if event.Context.UserAgent != "" {
		details["device_info"] = utils.ParseUserAgent(event.Context.UserAgent)
	}

	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`
	_, err = s.db.Exec(
		query,
		event.Context.UserID,
		event.Action,
		event.EntityType,
		event.EntityID,
		nullIfEmpty(event.Context.IPAddress),
		nullIfEmpty(event.Context.UserAgent),
		payload,
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}
	return nil
}

// recordAudit writes the event if a recorder is configured. The change it
// describes has already committed, so a failure is logged and not returned.
func recordAudit(recorder AuditRecorder, logger *logrus.Logger, event AuditEvent) {
	if recorder == nil {
		return
	}
	if err := recorder.Record(event); err != nil {
		logger.WithFields(logrus.Fields{
			"action":      event.Action,
			"entity_type": event.EntityType,
			"entity_id":   event.EntityID,
		}).WithError(err).Warn("Failed to write audit event")
	}
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
