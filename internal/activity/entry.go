package activity

import (
	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
)

// Entry describes one audited action before it is persisted.
type Entry struct {
	Actor      *access.Actor
	Action     enums.ActivityAction
	EntityType enums.EntityType
	EntityID   int64
	EntityName string
	FilePath   string
	FileName   string
	Details    string
}

// Recorder accepts audit entries. Implementations must not block the caller
// or surface storage failures.
type Recorder interface {
	Record(entry Entry)
}

func (e Entry) toModel() models.ActivityLog {
	row := models.ActivityLog{
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   optionalID(e.EntityID),
		EntityName: optionalString(e.EntityName),
		FilePath:   optionalString(e.FilePath),
		FileName:   optionalString(e.FileName),
		Details:    optionalString(e.Details),
	}
	if e.Actor != nil {
		row.UserID = e.Actor.UserID
		row.Username = e.Actor.Username
		row.IPAddress = optionalString(e.Actor.IPAddress)
		row.UserAgent = optionalString(e.Actor.UserAgent)
	}
	return row
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func optionalID(v int64) *int64 {
	if v == 0 {
		return nil
	}
	return &v
}
