package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/tripdesk/pms-backend/internal/models"
)

// GroupRepository handles group and membership reads
type GroupRepository struct {
	db Querier
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db Querier) *GroupRepository {
	return &GroupRepository{db: db}
}

type groupMemberRow struct {
	UserID     uuid.UUID          `db:"user_id"`
	Name       string             `db:"name"`
	Roles      models.StringArray `db:"roles"`
	RoomNumber *string            `db:"room_number"`
	Extension  *string            `db:"extension"`
}

// GetByCode retrieves a group by its code with members expanded (role tags included).
// Returns nil, nil when no group has the code.
func (r *GroupRepository) GetByCode(code string) (*models.Group, error) {
	var group models.Group
	err := r.db.Get(&group, `SELECT id, group_code FROM groups WHERE group_code = $1`, code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group by code: %w", err)
	}

	if err := r.loadMembers(&group); err != nil {
		return nil, err
	}
	return &group, nil
}

// GetByID retrieves a group by id with members expanded
func (r *GroupRepository) GetByID(id uuid.UUID) (*models.Group, error) {
	var group models.Group
	err := r.db.Get(&group, `SELECT id, group_code FROM groups WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	if err := r.loadMembers(&group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *GroupRepository) loadMembers(group *models.Group) error {
	query := `
		SELECT gm.user_id, u.name, gm.roles, gm.room_number, gm.extension
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.position ASC
	`
	var rows []groupMemberRow
	if err := r.db.Select(&rows, query, group.ID); err != nil {
		return fmt.Errorf("failed to get group members: %w", err)
	}

	group.Members = make([]models.GroupMember, 0, len(rows))
	for _, row := range rows {
		member := models.GroupMember{
			UserID:     row.UserID,
			Name:       row.Name,
			Roles:      make([]models.MemberRole, 0, len(row.Roles)),
			RoomNumber: row.RoomNumber,
			Extension:  row.Extension,
		}
		for _, code := range row.Roles {
			if role, ok := models.ParseMemberRole(code); ok {
				member.Roles = append(member.Roles, role)
			}
		}
		group.Members = append(group.Members, member)
	}
	return nil
}
