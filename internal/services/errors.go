package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrorKind classifies service failures for the transport layer
type ErrorKind string

const (
	KindNotFound             ErrorKind = "NOT_FOUND"
	KindInvalidAssignment    ErrorKind = "INVALID_ASSIGNMENT"
	KindInvalidReference     ErrorKind = "INVALID_REFERENCE"
	KindExclusivityViolation ErrorKind = "EXCLUSIVITY_VIOLATION"
	KindBadRequest           ErrorKind = "BAD_REQUEST"
	KindConflict             ErrorKind = "CONFLICT"
)

// ServiceError is a domain failure naming the offending field, entity or id
type ServiceError struct {
	Kind    ErrorKind
	Subject string
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// NotFound reports a missing referenced entity
func NotFound(subject string, id interface{}) *ServiceError {
	return &ServiceError{
		Kind:    KindNotFound,
		Subject: subject,
		Message: fmt.Sprintf("%s not found: %v", subject, id),
	}
}

// InvalidAssignment reports a user assigned to a role they do not hold in the group
func InvalidAssignment(role string, userID uuid.UUID, groupCode string) *ServiceError {
	return &ServiceError{
		Kind:    KindInvalidAssignment,
		Subject: role,
		Message: fmt.Sprintf("%s %s is not a member of group %s with the %s role", role, userID, groupCode, roleCode(role)),
	}
}

// InvalidReference reports a reference to an entity that does not exist
func InvalidReference(subject string, id interface{}) *ServiceError {
	return &ServiceError{
		Kind:    KindInvalidReference,
		Subject: subject,
		Message: fmt.Sprintf("%s %v does not exist", subject, id),
	}
}

// ExclusivityViolation reports an activity or booking with both or neither of hotel and lodge
func ExclusivityViolation(subject string) *ServiceError {
	return &ServiceError{
		Kind:    KindExclusivityViolation,
		Subject: subject,
		Message: fmt.Sprintf("%s: exactly one of hotel_id or lodge_id must be set", subject),
	}
}

// BadRequest reports a missing or malformed input field
func BadRequest(field, message string) *ServiceError {
	return &ServiceError{
		Kind:    KindBadRequest,
		Subject: field,
		Message: fmt.Sprintf("%s %s", field, message),
	}
}

// Conflict reports a write rejected because the target changed underneath it
func Conflict(subject, message string) *ServiceError {
	return &ServiceError{
		Kind:    KindConflict,
		Subject: subject,
		Message: fmt.Sprintf("%s: %s", subject, message),
	}
}

// KindOf returns the kind of a service error anywhere in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries a service error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

func roleCode(role string) string {
	switch role {
	case "leader":
		return "LEADER"
	case "guide":
		return "GUIDE"
	}
	return role
}
