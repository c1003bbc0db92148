package repo

import (
	"context"
	"testing"

	"github.com/nsets/erp-backend/pkg/db/dbtest"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseDB_BindsContext(t *testing.T) {
	db := dbtest.Open(t)
	base := NewBase(db)

	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")
	withCtx := base.DB(ctx)
	require.NotNil(t, withCtx.Statement)
	assert.Equal(t, ctx, withCtx.Statement.Context)

	assert.Same(t, db, base.DB(nil))
	assert.Equal(t, base, base.WithTx(nil))
}

func TestReplaceChildren(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()

	parent := models.Query{ClientName: "Acme"}
	other := models.Query{ClientName: "Other"}
	require.NoError(t, db.Create(&parent).Error)
	require.NoError(t, db.Create(&other).Error)
	require.NoError(t, db.Create(&models.QueryItem{QueryID: other.ID, SerialNumber: 1}).Error)

	first := []models.QueryItem{
		{QueryID: parent.ID, SerialNumber: 1, Description: "valve"},
		{QueryID: parent.ID, SerialNumber: 2, Description: "gasket"},
	}
	require.NoError(t, ReplaceChildren(ctx, db, "query_id", parent.ID, first))

	second := []models.QueryItem{{QueryID: parent.ID, SerialNumber: 1, Description: "pump"}}
	require.NoError(t, ReplaceChildren(ctx, db, "query_id", parent.ID, second))

	var items []models.QueryItem
	require.NoError(t, db.Where("query_id = ?", parent.ID).Find(&items).Error)
	require.Len(t, items, 1)
	assert.Equal(t, "pump", items[0].Description)

	var untouched int64
	require.NoError(t, db.Model(&models.QueryItem{}).Where("query_id = ?", other.ID).Count(&untouched).Error)
	assert.EqualValues(t, 1, untouched)

	require.NoError(t, ReplaceChildren[models.QueryItem](ctx, db, "query_id", parent.ID, nil))
	require.NoError(t, db.Where("query_id = ?", parent.ID).Find(&items).Error)
	assert.Empty(t, items)
}

func TestDeleteChildren(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	require.NoError(t, db.Create(&models.QueryItem{QueryID: 1, SerialNumber: 1}).Error)
	require.NoError(t, db.Create(&models.QueryItem{QueryID: 2, SerialNumber: 1}).Error)

	require.NoError(t, DeleteChildren[models.QueryItem](ctx, db, "query_id", []int64{1}))
	require.NoError(t, DeleteChildren[models.QueryItem](ctx, db, "query_id", nil))

	var count int64
	require.NoError(t, db.Model(&models.QueryItem{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
