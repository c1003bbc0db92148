package models

import (
	"time"

	"github.com/nsets/erp-backend/pkg/enums"
)

// ActivityLog is an append-only audit entry.
type ActivityLog struct {
	ID         int64                `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	UserID     int64                `gorm:"column:user_id;not null;index" json:"user_id"`
	Username   string               `gorm:"column:username;not null" json:"username"`
	Action     enums.ActivityAction `gorm:"column:action;not null;index" json:"action"`
	EntityType enums.EntityType     `gorm:"column:entity_type;not null;index" json:"entity_type"`
	EntityID   *int64               `gorm:"column:entity_id" json:"entity_id"`
	EntityName *string              `gorm:"column:entity_name" json:"entity_name"`
	FilePath   *string              `gorm:"column:file_path" json:"file_path"`
	FileName   *string              `gorm:"column:file_name" json:"file_name"`
	Details    *string              `gorm:"column:details" json:"details"`
	IPAddress  *string              `gorm:"column:ip_address" json:"ip_address"`
	UserAgent  *string              `gorm:"column:user_agent" json:"user_agent"`
	CreatedAt  time.Time            `gorm:"column:created_at;autoCreateTime;index" json:"created_at"`
}
