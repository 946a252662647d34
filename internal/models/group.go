package models

import (
	"strings"

	"github.com/google/uuid"
)

// MemberRole is a role a member holds inside one group.
// LEADER and GUIDE are single-holder roles.
type MemberRole string

const (
	MemberRoleLeader      MemberRole = "LEADER"
	MemberRoleGuide       MemberRole = "GUIDE"
	MemberRoleParticipant MemberRole = "PARTICIPANT"
)

// ParseMemberRole converts a stored role code into a MemberRole
func ParseMemberRole(s string) (MemberRole, bool) {
	switch MemberRole(strings.ToUpper(strings.TrimSpace(s))) {
	case MemberRoleLeader:
		return MemberRoleLeader, true
	case MemberRoleGuide:
		return MemberRoleGuide, true
	case MemberRoleParticipant:
		return MemberRoleParticipant, true
	}
	return "", false
}

// Group is a travelling party identified by a human-readable code
type Group struct {
	ID      uuid.UUID     `json:"id" db:"id"`
	Code    string        `json:"group_code" db:"group_code"`
	Members []GroupMember `json:"members" db:"-"`
}

// GroupMember is one user's membership in a group
type GroupMember struct {
	UserID     uuid.UUID    `json:"user_id"`
	Name       string       `json:"name"`
	Roles      []MemberRole `json:"roles"`
	RoomNumber *string      `json:"room_number,omitempty"`
	Extension  *string      `json:"extension,omitempty"`
}

// HasRole reports whether the member carries the given group role
func (m *GroupMember) HasRole(role MemberRole) bool {
	for _, r := range m.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Member returns the membership of the given user, or nil
func (g *Group) Member(userID uuid.UUID) *GroupMember {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// HoldersOf returns every member carrying the role
func (g *Group) HoldersOf(role MemberRole) []GroupMember {
	holders := make([]GroupMember, 0, 1)
	for _, m := range g.Members {
		if m.HasRole(role) {
			holders = append(holders, m)
		}
	}
	return holders
}

// GroupSummary is the group header embedded in read models
type GroupSummary struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"group_code"`
	MemberCount int       `json:"member_count"`
}

// Summary projects the group for embedding in read models
func (g *Group) Summary() *GroupSummary {
	return &GroupSummary{ID: g.ID, Code: g.Code, MemberCount: len(g.Members)}
}
