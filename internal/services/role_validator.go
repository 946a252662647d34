package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/tripdesk/pms-backend/internal/models"
)

// RoleValidator checks that assigned leaders and guides hold those roles in
// their group and that the referenced package exists. Read-only.
type RoleValidator struct {
	groups   GroupRepository
	packages PackageRepository
}

// NewRoleValidator creates a new role validator
func NewRoleValidator(groups GroupRepository, packages PackageRepository) *RoleValidator {
	return &RoleValidator{groups: groups, packages: packages}
}

// Validate resolves the group by code and checks each supplied assignment.
// Nil ids are not checked. Returns the resolved group.
func (v *RoleValidator) Validate(groupCode string, leaderID, guideID, packageID *uuid.UUID) (*models.Group, error) {
	code := strings.TrimSpace(groupCode)
	if code == "" {
		return nil, BadRequest("group_code", "is required")
	}

	group, err := v.groups.GetByCode(code)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, NotFound("group", code)
	}

	if leaderID != nil {
		if err := checkSingleHolder(group, *leaderID, models.MemberRoleLeader, "leader"); err != nil {
			return nil, err
		}
	}
	if guideID != nil {
		if err := checkSingleHolder(group, *guideID, models.MemberRoleGuide, "guide"); err != nil {
			return nil, err
		}
	}

	if packageID != nil {
		pkg, err := v.packages.GetByID(*packageID)
		if err != nil {
			return nil, err
		}
		if pkg == nil {
			return nil, InvalidReference("package", *packageID)
		}
	}

	return group, nil
}

// checkSingleHolder requires userID to be the one member of the group carrying role
func checkSingleHolder(group *models.Group, userID uuid.UUID, role models.MemberRole, name string) error {
	holders := group.HoldersOf(role)
	if len(holders) != 1 || holders[0].UserID != userID {
		return InvalidAssignment(name, userID, group.Code)
	}
	return nil
}
