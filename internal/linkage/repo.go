package linkage

import (
	"context"

	"github.com/nsets/erp-backend/internal/repo"
	"github.com/nsets/erp-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository reads the foreign keys that connect documents. It never writes.
type Repository interface {
	Query(ctx context.Context, id int64) (*models.Query, error)
	Quotation(ctx context.Context, id int64) (*models.Quotation, error)
	PurchaseOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error)
	Invoice(ctx context.Context, id int64) (*models.Invoice, error)
	QuotationsForQuery(ctx context.Context, queryID int64) ([]models.Quotation, error)
	PurchaseOrdersFor(ctx context.Context, queryID *int64, quotationIDs []int64) ([]models.PurchaseOrder, error)
	InvoicesFor(ctx context.Context, queryID *int64, quotationIDs, purchaseOrderIDs []int64) ([]models.Invoice, error)
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Query(ctx context.Context, id int64) (*models.Query, error) {
	return first[models.Query](ctx, r.DB(ctx), id)
}

func (r *repository) Quotation(ctx context.Context, id int64) (*models.Quotation, error) {
	return first[models.Quotation](ctx, r.DB(ctx), id)
}

func (r *repository) PurchaseOrder(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	return first[models.PurchaseOrder](ctx, r.DB(ctx), id)
}

func (r *repository) Invoice(ctx context.Context, id int64) (*models.Invoice, error) {
	return first[models.Invoice](ctx, r.DB(ctx), id)
}

func (r *repository) QuotationsForQuery(ctx context.Context, queryID int64) ([]models.Quotation, error) {
	var rows []models.Quotation
	err := r.DB(ctx).Where("query_id = ?", queryID).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) PurchaseOrdersFor(ctx context.Context, queryID *int64, quotationIDs []int64) ([]models.PurchaseOrder, error) {
	cond, ok := anyOf(r.DB(ctx), map[string]any{"query_id": queryID, "quotation_id": quotationIDs})
	if !ok {
		return nil, nil
	}
	var rows []models.PurchaseOrder
	err := r.DB(ctx).Where(cond).Order("id ASC").Find(&rows).Error
	return rows, err
}

func (r *repository) InvoicesFor(ctx context.Context, queryID *int64, quotationIDs, purchaseOrderIDs []int64) ([]models.Invoice, error) {
	cond, ok := anyOf(r.DB(ctx), map[string]any{
		"query_id":          queryID,
		"quotation_id":      quotationIDs,
		"purchase_order_id": purchaseOrderIDs,
	})
	if !ok {
		return nil, nil
	}
	var rows []models.Invoice
	err := r.DB(ctx).Where(cond).Order("id ASC").Find(&rows).Error
	return rows, err
}

func first[T any](ctx context.Context, db *gorm.DB, id int64) (*T, error) {
	var row T
	if err := db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// anyOf ORs together "column = id" and "column IN ids" for every non-empty
// entry. ok is false when nothing is set.
func anyOf(db *gorm.DB, columns map[string]any) (*gorm.DB, bool) {
	cond := db.Session(&gorm.Session{NewDB: true})
	used := false
	for _, column := range []string{"query_id", "quotation_id", "purchase_order_id"} {
		var clause string
		var arg any
		switch v := columns[column].(type) {
		case *int64:
			if v == nil {
				continue
			}
			clause, arg = column+" = ?", *v
		case []int64:
			if len(v) == 0 {
				continue
			}
			clause, arg = column+" IN ?", v
		default:
			continue
		}
		if used {
			cond = cond.Or(clause, arg)
		} else {
			cond = cond.Where(clause, arg)
			used = true
		}
	}
	return cond, used
}
