package activity

import (
	"context"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/pagination"
)

// Service exposes the admin read side of the audit trail.
type Service interface {
	List(ctx context.Context, actor *access.Actor, filter ListFilter) (*ListResult, error)
}

type ListResult struct {
	Logs       []models.ActivityLog `json:"logs"`
	Pagination pagination.Meta      `json:"pagination"`
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, actor *access.Actor, filter ListFilter) (*ListResult, error) {
	if err := access.Authorize(actor, enums.PermissionAdmin); err != nil {
		return nil, err
	}
	if filter.Action != "" && !filter.Action.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown action %q", filter.Action)
	}
	if filter.EntityType != "" && !filter.EntityType.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown entity type %q", filter.EntityType)
	}
	filter.Page = filter.Page.Normalize()

	rows, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list activity logs")
	}
	if rows == nil {
		rows = []models.ActivityLog{}
	}
	return &ListResult{Logs: rows, Pagination: pagination.NewMeta(filter.Page, total)}, nil
}
