package quotations

import (
	"context"
	"errors"
	"testing"

	"github.com/nsets/erp-backend/pkg/db/dbtest"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestLockByID(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	q := models.Quotation{QuotationNumber: "Q-LOCK", QuotationType: enums.QuotationTypeLocal}
	require.NoError(t, conn.Create(&q).Error)

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).LockByID(ctx, q.ID)
	}))

	err := repo.LockByID(ctx, q.ID+100)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestLockQuotationSelectsForUpdateOnPostgres(t *testing.T) {
	conn, err := gorm.Open(postgres.New(postgres.Config{DSN: "host=127.0.0.1 user=erp dbname=erp sslmode=disable"}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	sql := conn.ToSQL(func(tx *gorm.DB) *gorm.DB { return lockQuotation(tx, 7) })
	assert.Contains(t, sql, "FOR UPDATE")
	assert.Contains(t, sql, `"quotations"`)
}
