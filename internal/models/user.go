package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UserRole is an account-level role. Matches the values stored in users.roles.
type UserRole string

const (
	UserRoleAdmin UserRole = "ADMIN"
	UserRoleUser  UserRole = "USER"
)

// Designation is the job designation of a staff user
type Designation string

const (
	DesignationDriver Designation = "DRIVER"
	DesignationGuide  Designation = "GUIDE"
	DesignationPorter Designation = "PORTER"
	DesignationStaff  Designation = "STAFF"
)

// ParseUserRole converts a stored role code into a UserRole
func ParseUserRole(s string) (UserRole, bool) {
	switch UserRole(strings.ToUpper(strings.TrimSpace(s))) {
	case UserRoleAdmin:
		return UserRoleAdmin, true
	case UserRoleUser:
		return UserRoleUser, true
	}
	return "", false
}

// ParseDesignation converts a stored designation code into a Designation
func ParseDesignation(s string) (Designation, bool) {
	switch Designation(strings.ToUpper(strings.TrimSpace(s))) {
	case DesignationDriver:
		return DesignationDriver, true
	case DesignationGuide:
		return DesignationGuide, true
	case DesignationPorter:
		return DesignationPorter, true
	case DesignationStaff:
		return DesignationStaff, true
	}
	return "", false
}

// User represents a person known to the system (clients, guides, drivers, admins)
type User struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	Email        *string      `json:"email,omitempty" db:"email"`
	Phone        *string      `json:"phone,omitempty" db:"phone"`
	Roles        []UserRole   `json:"roles" db:"-"`
	Designation  *Designation `json:"designation,omitempty" db:"-"`
	ProfileImage *string      `json:"profile_image,omitempty" db:"profile_image"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at" db:"updated_at"`
}

// HasRole reports whether the user carries the given account role
func (u *User) HasRole(role UserRole) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsDriver reports whether the user may be assigned to a vehicle booking:
// an administrative account with the driver designation.
func (u *User) IsDriver() bool {
	return u.HasRole(UserRoleAdmin) && u.Designation != nil && *u.Designation == DesignationDriver
}

// UserSummary is the public projection of a user embedded in read models
type UserSummary struct {
	ID           uuid.UUID    `json:"id"`
	Name         string       `json:"name"`
	Phone        *string      `json:"phone,omitempty"`
	Designation  *Designation `json:"designation,omitempty"`
	ProfileImage *string      `json:"profile_image,omitempty"`
}

// Summary projects the user for embedding in read models
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:           u.ID,
		Name:         u.Name,
		Phone:        u.Phone,
		Designation:  u.Designation,
		ProfileImage: u.ProfileImage,
	}
}
