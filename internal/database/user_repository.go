package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tripdesk/pms-backend/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db Querier
}

// NewUserRepository creates a new user repository
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

type userRow struct {
	ID           uuid.UUID          `db:"id"`
	Name         string             `db:"name"`
	Email        *string            `db:"email"`
	Phone        *string            `db:"phone"`
	Roles        models.StringArray `db:"roles"`
	Designation  *string            `db:"designation"`
	ProfileImage *string            `db:"profile_image"`
	CreatedAt    time.Time          `db:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at"`
}

func (row *userRow) toModel() *models.User {
	user := &models.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Phone:        row.Phone,
		Roles:        make([]models.UserRole, 0, len(row.Roles)),
		ProfileImage: row.ProfileImage,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	for _, code := range row.Roles {
		if role, ok := models.ParseUserRole(code); ok {
			user.Roles = append(user.Roles, role)
		}
	}
	if row.Designation != nil {
		if d, ok := models.ParseDesignation(*row.Designation); ok {
			user.Designation = &d
		}
	}
	return user
}

// GetByID retrieves a user by ID. Returns nil, nil when the user does not exist.
func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	var row userRow
	query := `
		SELECT id, name, email, phone, roles, designation, profile_image, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	err := r.db.Get(&row, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return row.toModel(), nil
}
