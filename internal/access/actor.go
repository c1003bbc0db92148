package access

import (
	"context"

	"github.com/nsets/erp-backend/pkg/db/models"
	dbtypes "github.com/nsets/erp-backend/pkg/db/types"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
)

// Actor identifies the caller of a lifecycle operation. It is resolved once
// per request and passed explicitly to every service call.
type Actor struct {
	UserID      int64
	Username    string
	Role        enums.Role
	Permissions dbtypes.Permissions
	IPAddress   string
	UserAgent   string
}

// FromUser builds an actor for the given account.
func FromUser(user *models.User) *Actor {
	if user == nil {
		return nil
	}
	return &Actor{
		UserID:      user.ID,
		Username:    user.Username,
		Role:        user.Role,
		Permissions: user.Permissions,
	}
}

// System is used by background jobs and operator tooling.
func System(name string) *Actor {
	return &Actor{Username: name, Role: enums.RoleAdmin, Permissions: dbtypes.FullPermissions()}
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == enums.RoleAdmin
}

// Can reports whether the actor holds perm. Admins hold everything.
func (a *Actor) Can(perm enums.Permission) bool {
	if a == nil {
		return false
	}
	if a.IsAdmin() {
		return true
	}
	return a.Permissions.Has(perm)
}

// Authorize gates an operation on perm.
func Authorize(actor *Actor, perm enums.Permission) error {
	if actor == nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	if !actor.Can(perm) {
		return pkgerrors.Newf(pkgerrors.CodeForbidden, "missing %s permission", perm)
	}
	return nil
}

type ctxKey struct{}

// WithActor stores the resolved actor on ctx for the HTTP layer.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, actor)
}

// FromContext returns the actor stored by WithActor, or nil.
func FromContext(ctx context.Context) *Actor {
	if ctx == nil {
		return nil
	}
	actor, _ := ctx.Value(ctxKey{}).(*Actor)
	return actor
}
