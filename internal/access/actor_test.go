package access

import (
	"context"
	"testing"

	"github.com/nsets/erp-backend/pkg/db/models"
	dbtypes "github.com/nsets/erp-backend/pkg/db/types"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorizeQueriesOnlyUser(t *testing.T) {
	actor := &Actor{UserID: 2, Role: enums.RoleUser, Permissions: dbtypes.Permissions{Queries: true}}

	require.NoError(t, Authorize(actor, enums.PermissionQueries))
	for _, perm := range []enums.Permission{enums.PermissionQuotations, enums.PermissionPurchaseOrders, enums.PermissionInvoices, enums.PermissionAdmin} {
		err := Authorize(actor, perm)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden), "perm %s", perm)
	}
}

func TestAuthorizeAdminWithEmptyPermissions(t *testing.T) {
	actor := &Actor{UserID: 1, Role: enums.RoleAdmin}
	for _, perm := range enums.AllPermissions() {
		assert.NoError(t, Authorize(actor, perm))
	}
}

func TestAuthorizeNilActor(t *testing.T) {
	err := Authorize(nil, enums.PermissionQueries)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestFromUserAndContext(t *testing.T) {
	user := &models.User{ID: 7, Username: "clerk", Role: enums.RoleUser, Permissions: dbtypes.DefaultPermissions()}
	actor := FromUser(user)
	require.NotNil(t, actor)
	assert.Equal(t, int64(7), actor.UserID)
	assert.Nil(t, FromUser(nil))

	ctx := WithActor(context.Background(), actor)
	assert.Same(t, actor, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}

func TestSystemActorIsAdmin(t *testing.T) {
	assert.True(t, System("cron").Can(enums.PermissionInvoices))
}
