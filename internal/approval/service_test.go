package approval

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/internal/activity"
	"github.com/nsets/erp-backend/internal/invoices"
	"github.com/nsets/erp-backend/internal/quotations"
	"github.com/nsets/erp-backend/pkg/db/dbtest"
	"github.com/nsets/erp-backend/pkg/db/models"
	dbtypes "github.com/nsets/erp-backend/pkg/db/types"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

type fixture struct {
	conn     *gorm.DB
	invoices invoices.Repository
	audit    *activity.Memory
}

func newApproval(t *testing.T, allowDuplicates bool) (Service, *fixture) {
	t.Helper()
	client, conn := dbtest.Client(t)
	f := &fixture{conn: conn, invoices: invoices.NewRepository(conn), audit: &activity.Memory{}}
	svc, err := NewService(ServiceParams{
		Quotations:      quotations.NewRepository(conn),
		Invoices:        f.invoices,
		Tx:              client,
		Activity:        f.audit,
		Logger:          logger.New(logger.Options{Output: io.Discard}),
		AllowDuplicates: allowDuplicates,
	})
	require.NoError(t, err)
	svc.(*service).now = func() time.Time { return time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC) }
	return svc, f
}

func seedQuotation(t *testing.T, conn *gorm.DB) models.Quotation {
	t.Helper()
	queryID := int64(12)
	q := models.Quotation{
		QuotationNumber: "Q-2026-001",
		ToClient:        "Acme Marine\nDock 4",
		QueryID:         &queryID,
		QuotationType:   enums.QuotationTypeLocal,
		TotalWithoutGST: dec("300"),
		GSTAmount:       dec("54"),
		GrandTotal:      dec("354"),
	}
	require.NoError(t, conn.Create(&q).Error)
	item := models.QuotationItem{
		QuotationID:   q.ID,
		SerialNumber:  1,
		Description:   "ball valve",
		Quantity:      3,
		UnitPrice:     dec("100"),
		TotalPrice:    dec("300"),
		SupplierPrice: decimal.NewNullDecimal(dec("60")),
		ProfitFactor:  decimal.NewNullDecimal(dec("1.25")),
		ExchangeRate:  decimal.NewNullDecimal(dec("1.0")),
	}
	require.NoError(t, conn.Create(&item).Error)
	return q
}

func approver() *access.Actor {
	return &access.Actor{UserID: 8, Username: "manager", Role: enums.RoleUser, Permissions: dbtypes.Permissions{Quotations: true, Invoices: true}}
}

func TestApproveCopiesQuotationIntoInvoice(t *testing.T) {
	svc, f := newApproval(t, true)
	ctx := context.Background()
	q := seedQuotation(t, f.conn)

	result, err := svc.Approve(ctx, approver(), q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, result.QuotationID)
	assert.Equal(t, "Q-2026-001", result.RefNo)

	inv, err := f.invoices.FindByID(ctx, result.InvoiceID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Marine\nDock 4", inv.ToClient)
	assert.Equal(t, "2026-04-02", inv.Date)
	require.NotNil(t, inv.QuotationID)
	assert.Equal(t, q.ID, *inv.QuotationID)
	require.NotNil(t, inv.QueryID)
	assert.EqualValues(t, 12, *inv.QueryID)
	assert.True(t, dec("300").Equal(inv.TotalWithoutGST))
	assert.True(t, dec("54").Equal(inv.GSTAmount))
	assert.True(t, dec("354").Equal(inv.GrandTotal))

	require.Len(t, inv.Items, 1)
	item := inv.Items[0]
	assert.True(t, dec("100").Equal(item.UnitPrice))
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, dec("300").Equal(item.TotalPrice))
	require.True(t, item.CalculatedPrice.Valid)
	assert.True(t, dec("75.00").Equal(item.CalculatedPrice.Decimal))
	require.True(t, item.SupplierUP.Valid)
	assert.True(t, dec("60").Equal(item.SupplierUP.Decimal))
	assert.True(t, dec("1.25").Equal(item.ProfitFactor.Decimal))
	assert.True(t, dec("1").Equal(item.ExchangeRate.Decimal))

	entries := f.audit.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, enums.ActivityActionApprove, entries[0].Action)
	assert.Equal(t, result.InvoiceID, entries[0].EntityID)
}

func TestApproveTwiceCreatesTwoInvoicesByDefault(t *testing.T) {
	svc, f := newApproval(t, true)
	ctx := context.Background()
	q := seedQuotation(t, f.conn)

	first, err := svc.Approve(ctx, approver(), q.ID)
	require.NoError(t, err)
	second, err := svc.Approve(ctx, approver(), q.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.InvoiceID, second.InvoiceID)

	count, err := f.invoices.CountForQuotation(ctx, q.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestApproveRejectPolicyReturnsConflict(t *testing.T) {
	svc, f := newApproval(t, false)
	ctx := context.Background()
	q := seedQuotation(t, f.conn)

	_, err := svc.Approve(ctx, approver(), q.ID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, approver(), q.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestApproveMissingQuotationAndPermissions(t *testing.T) {
	svc, _ := newApproval(t, true)
	ctx := context.Background()

	_, err := svc.Approve(ctx, approver(), 404)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	quotesOnly := &access.Actor{UserID: 3, Role: enums.RoleUser, Permissions: dbtypes.Permissions{Quotations: true}}
	_, err = svc.Approve(ctx, quotesOnly, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.Approve(ctx, nil, 1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestApproveRejectPolicyLocksMissingQuotation(t *testing.T) {
	svc, f := newApproval(t, false)

	_, err := svc.Approve(context.Background(), approver(), 404)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	count, err := f.invoices.CountForQuotation(context.Background(), 404)
	require.NoError(t, err)
	assert.Zero(t, count)
}
