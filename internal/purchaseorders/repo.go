package purchaseorders

import (
	"context"

	"github.com/nsets/erp-backend/internal/repo"
	"github.com/nsets/erp-backend/pkg/db/models"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, po *models.PurchaseOrder) error
	Update(ctx context.Context, po *models.PurchaseOrder) error
	ReplaceItems(ctx context.Context, purchaseOrderID int64, items []models.PurchaseOrderItem) error
	FindByID(ctx context.Context, id int64) (*models.PurchaseOrder, error)
	List(ctx context.Context) ([]models.PurchaseOrder, error)
	Delete(ctx context.Context, id int64) (int64, error)
	QuotationQueryID(ctx context.Context, quotationID int64) (*int64, bool, error)
}

var updatableColumns = []string{
	"po_number", "date", "supplier_name", "supplier_address", "po_currency",
	"query_id", "quotation_id", "total_price", "freight_charges", "grand_total", "updated_at",
}

type repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, po *models.PurchaseOrder) error {
	return r.DB(ctx).Omit("Items").Create(po).Error
}

func (r *repository) Update(ctx context.Context, po *models.PurchaseOrder) error {
	return r.DB(ctx).Model(po).Select(updatableColumns).Updates(po).Error
}

func (r *repository) ReplaceItems(ctx context.Context, purchaseOrderID int64, items []models.PurchaseOrderItem) error {
	return repo.ReplaceChildren(ctx, r.DB(ctx), "purchase_order_id", purchaseOrderID, items)
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("serial_number ASC").Order("id ASC") }).
		First(&po, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &po, nil
}

func (r *repository) List(ctx context.Context) ([]models.PurchaseOrder, error) {
	var rows []models.PurchaseOrder
	err := r.DB(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Delete(ctx context.Context, id int64) (int64, error) {
	db := r.DB(ctx)
	if err := repo.DeleteChildren[models.PurchaseOrderItem](ctx, db, "purchase_order_id", []int64{id}); err != nil {
		return 0, err
	}
	res := db.Delete(&models.PurchaseOrder{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

// QuotationQueryID reports whether the quotation exists and, if so, the
// query it was drafted from.
func (r *repository) QuotationQueryID(ctx context.Context, quotationID int64) (*int64, bool, error) {
	var rows []models.Quotation
	err := r.DB(ctx).Select("id", "query_id").Where("id = ?", quotationID).Limit(1).Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0].QueryID, true, nil
}
