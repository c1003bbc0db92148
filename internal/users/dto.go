package users

import (
	"strings"
	"time"

	"github.com/nsets/erp-backend/pkg/db/models"
	dbtypes "github.com/nsets/erp-backend/pkg/db/types"
	"github.com/nsets/erp-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID          int64               `json:"id"`
	Username    string              `json:"username"`
	Email       *string             `json:"email,omitempty"`
	FullName    string              `json:"full_name"`
	Role        enums.Role          `json:"role"`
	Permissions dbtypes.Permissions `json:"permissions"`
	IsActive    bool                `json:"is_active"`
	LastLoginAt *time.Time          `json:"last_login_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// CreateInput is what an admin submits to open an account.
type CreateInput struct {
	Username    string               `json:"username" validate:"required,min=3,max=64"`
	Password    string               `json:"password" validate:"required,min=8"`
	Email       *string              `json:"email" validate:"omitempty,email"`
	FullName    string               `json:"full_name" validate:"max=128"`
	Role        enums.Role           `json:"role"`
	Permissions *dbtypes.Permissions `json:"permissions"`
}

// UpdateInput changes profile and authorization fields. Nil fields are left alone.
type UpdateInput struct {
	Email       *string              `json:"email" validate:"omitempty,email"`
	FullName    *string              `json:"full_name" validate:"omitempty,max=128"`
	Role        *enums.Role          `json:"role"`
	Permissions *dbtypes.Permissions `json:"permissions"`
	IsActive    *bool                `json:"is_active"`
}

// PasswordInput carries an admin-initiated password change.
type PasswordInput struct {
	Password string `json:"password" validate:"required,min=8"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		Permissions: effectivePermissions(u.Role, u.Permissions),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// FromModels maps a slice, never returning nil.
func FromModels(rows []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out
}

func effectivePermissions(role enums.Role, perms dbtypes.Permissions) dbtypes.Permissions {
	if role == enums.RoleAdmin {
		return dbtypes.FullPermissions()
	}
	return perms
}

func normalizeUsername(v string) string {
	return strings.TrimSpace(v)
}

func normalizeEmail(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
