// Package system reports operational facts for the admin console.
package system

import (
	"context"
	"runtime"
	"time"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
)

type userCounter interface {
	Count(ctx context.Context) (int64, error)
}

type queryCounter interface {
	CountActive(ctx context.Context) (int64, error)
}

type Database struct {
	Type string `json:"type"`
}

type Server struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Uptime    string    `json:"uptime"`
	GoVersion string    `json:"go_version"`
}

type Statistics struct {
	TotalUsers   int64 `json:"totalUsers"`
	TotalQueries int64 `json:"totalQueries"`
}

type Info struct {
	Version    string     `json:"version"`
	Database   Database   `json:"database"`
	Server     Server     `json:"server"`
	Statistics Statistics `json:"statistics"`
}

type Service interface {
	Info(ctx context.Context, actor *access.Actor) (*Info, error)
}

type ServiceParams struct {
	Users     userCounter
	Queries   queryCounter
	Dialect   string
	Version   string
	StartedAt time.Time
}

type service struct {
	users     userCounter
	queries   queryCounter
	dialect   string
	version   string
	startedAt time.Time
	now       func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "user counter required")
	}
	if params.Queries == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "query counter required")
	}
	started := params.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	version := params.Version
	if version == "" {
		version = "dev"
	}
	return &service{
		users:     params.Users,
		queries:   params.Queries,
		dialect:   params.Dialect,
		version:   version,
		startedAt: started,
		now:       time.Now,
	}, nil
}

// Info counts users and non-deleted queries.
func (s *service) Info(ctx context.Context, actor *access.Actor) (*Info, error) {
	if err := access.Authorize(actor, enums.PermissionAdmin); err != nil {
		return nil, err
	}
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "count users")
	}
	active, err := s.queries.CountActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "count queries")
	}
	return &Info{
		Version:  s.version,
		Database: Database{Type: s.dialect},
		Server: Server{
			Status:    "running",
			StartedAt: s.startedAt.UTC(),
			Uptime:    s.now().Sub(s.startedAt).Truncate(time.Second).String(),
			GoVersion: runtime.Version(),
		},
		Statistics: Statistics{TotalUsers: users, TotalQueries: active},
	}, nil
}
