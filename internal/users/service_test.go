package users

import (
	"context"
	"io"
	"testing"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/internal/activity"
	"github.com/nsets/erp-backend/pkg/config"
	"github.com/nsets/erp-backend/pkg/db/dbtest"
	"github.com/nsets/erp-backend/pkg/db/models"
	dbtypes "github.com/nsets/erp-backend/pkg/db/types"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/nsets/erp-backend/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
}

func newTestService(t *testing.T) (Service, *gorm.DB, *activity.Memory) {
	t.Helper()
	client, conn := dbtest.Client(t)
	audit := &activity.Memory{}
	svc, err := NewService(ServiceParams{
		Repository: NewRepository(conn),
		Tx:         client,
		Password:   testPasswordConfig(),
		Activity:   audit,
		Logger:     logger.New(logger.Options{Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc, conn, audit
}

func admin() *access.Actor {
	return &access.Actor{UserID: 1, Username: "admin", Role: enums.RoleAdmin}
}

func TestCreateUserDefaults(t *testing.T) {
	svc, conn, audit := newTestService(t)

	dto, err := svc.Create(context.Background(), admin(), CreateInput{
		Username: "  clerk ",
		Password: "clerk-password",
		FullName: "Desk Clerk",
	})
	require.NoError(t, err)
	assert.Equal(t, "clerk", dto.Username)
	assert.Equal(t, enums.RoleUser, dto.Role)
	assert.Equal(t, dbtypes.Permissions{Queries: true}, dto.Permissions)
	assert.True(t, dto.IsActive)

	var stored models.User
	require.NoError(t, conn.First(&stored, dto.ID).Error)
	ok, err := security.VerifyPassword("clerk-password", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	entries := audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, enums.EntityTypeUser, entries[0].EntityType)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin(), CreateInput{Username: "ops", Password: "ops-password"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin(), CreateInput{Username: "ops", Password: "another-password"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)
}

func TestCreateUserValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin(), CreateInput{Username: "x", Password: "short"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.Create(ctx, admin(), CreateInput{Username: "y", Password: "long-enough", Role: "superuser"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateUser(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, admin(), CreateInput{Username: "buyer", Password: "buyer-password"})
	require.NoError(t, err)

	name := "Head Buyer"
	perms := dbtypes.Permissions{Quotations: true, PurchaseOrders: true}
	inactive := false
	updated, err := svc.Update(ctx, admin(), created.ID, UpdateInput{FullName: &name, Permissions: &perms, IsActive: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "Head Buyer", updated.FullName)
	assert.Equal(t, perms, updated.Permissions)
	assert.False(t, updated.IsActive)

	role := enums.RoleAdmin
	updated, err = svc.Update(ctx, admin(), created.ID, UpdateInput{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, dbtypes.FullPermissions(), updated.Permissions)
}

func TestDeactivateSelfRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, admin(), CreateInput{Username: "boss", Password: "boss-password", Role: enums.RoleAdmin})
	require.NoError(t, err)
	self := &access.Actor{UserID: created.ID, Username: "boss", Role: enums.RoleAdmin}

	err = svc.Deactivate(ctx, self, created.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	inactive := false
	_, err = svc.Update(ctx, self, created.ID, UpdateInput{IsActive: &inactive})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, svc.Deactivate(ctx, admin(), created.ID))
	got, err := svc.Get(ctx, admin(), created.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestSetPassword(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, admin(), CreateInput{Username: "temp", Password: "first-password"})
	require.NoError(t, err)
	require.NoError(t, svc.SetPassword(ctx, admin(), created.ID, "second-password"))

	var stored models.User
	require.NoError(t, conn.First(&stored, created.ID).Error)
	ok, err := security.VerifyPassword("second-password", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	err = svc.SetPassword(ctx, admin(), 999, "third-password")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUserManagementRequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	clerk := &access.Actor{UserID: 5, Role: enums.RoleUser, Permissions: dbtypes.DefaultPermissions()}

	_, err := svc.List(context.Background(), clerk)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	_, err = svc.Create(context.Background(), clerk, CreateInput{Username: "x", Password: "whatever-pass"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestEnsureSeedAdminOnlyOnEmptyTable(t *testing.T) {
	svc, conn, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.EnsureSeedAdmin(ctx, config.SeedAdminConfig{Username: "root", FullName: "Root"})
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Len(t, res.GeneratedPassword, generatedSeedPasswordLength)

	var seeded models.User
	require.NoError(t, conn.Where("username = ?", "root").First(&seeded).Error)
	assert.Equal(t, enums.RoleAdmin, seeded.Role)
	assert.Equal(t, dbtypes.FullPermissions(), seeded.Permissions)
	ok, err := security.VerifyPassword(res.GeneratedPassword, seeded.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	res, err = svc.EnsureSeedAdmin(ctx, config.SeedAdminConfig{Username: "other", Password: "other-password"})
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.Empty(t, res.GeneratedPassword)

	var count int64
	require.NoError(t, conn.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
