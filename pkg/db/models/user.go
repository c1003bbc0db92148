package models

import (
	"time"

	dbtypes "github.com/nsets/erp-backend/pkg/db/types"
	"github.com/nsets/erp-backend/pkg/enums"
)

// User is an operator account.
type User struct {
	ID           int64               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Username     string              `gorm:"column:username;not null;uniqueIndex" json:"username"`
	PasswordHash string              `gorm:"column:password_hash;not null" json:"-"`
	Email        *string             `gorm:"column:email" json:"email"`
	FullName     string              `gorm:"column:full_name;not null;default:''" json:"full_name"`
	Role         enums.Role          `gorm:"column:role;not null;default:'user'" json:"role"`
	Permissions  dbtypes.Permissions `gorm:"column:permissions;type:text;not null" json:"permissions"`
	IsActive     bool                `gorm:"column:is_active;not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time          `gorm:"column:last_login_at" json:"last_login_at"`
	CreatedAt    time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// IsAdmin reports whether the user bypasses permission checks.
func (u User) IsAdmin() bool {
	return u.Role == enums.RoleAdmin
}
