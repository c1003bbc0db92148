package invoices

import (
	"context"

	"github.com/nsets/erp-backend/internal/repo"
	"github.com/nsets/erp-backend/pkg/db/models"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, inv *models.Invoice) error
	Update(ctx context.Context, inv *models.Invoice) error
	ReplaceItems(ctx context.Context, invoiceID int64, items []models.InvoiceItem) error
	FindByID(ctx context.Context, id int64) (*models.Invoice, error)
	List(ctx context.Context) ([]models.Invoice, error)
	Delete(ctx context.Context, id int64) (int64, error)
	CountForQuotation(ctx context.Context, quotationID int64) (int64, error)
	DocumentExists(ctx context.Context, model any, id int64) (bool, error)
}

var updatableColumns = []string{
	"ref_no", "ar_no", "date", "invoice_number", "to_client",
	"query_id", "quotation_id", "purchase_order_id",
	"total_without_gst", "gst_amount", "grand_total", "updated_at",
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

func (r *repository) Create(ctx context.Context, inv *models.Invoice) error {
	return r.DB(ctx).Omit("Items").Create(inv).Error
}

func (r *repository) Update(ctx context.Context, inv *models.Invoice) error {
	return r.DB(ctx).Model(inv).Select(updatableColumns).Updates(inv).Error
}

func (r *repository) ReplaceItems(ctx context.Context, invoiceID int64, items []models.InvoiceItem) error {
	return repo.ReplaceChildren(ctx, r.DB(ctx), "invoice_id", invoiceID, items)
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Invoice, error) {
	var inv models.Invoice
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("serial_number ASC") }).
		First(&inv, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) List(ctx context.Context) ([]models.Invoice, error) {
	var rows []models.Invoice
	if err := r.DB(ctx).Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Delete(ctx context.Context, id int64) (int64, error) {
	db := r.DB(ctx)
	if err := repo.DeleteChildren[models.InvoiceItem](ctx, db, "invoice_id", []int64{id}); err != nil {
		return 0, err
	}
	res := db.Delete(&models.Invoice{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *repository) CountForQuotation(ctx context.Context, quotationID int64) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Invoice{}).Where("quotation_id = ?", quotationID).Count(&count).Error
	return count, err
}

// DocumentExists checks a linked document by primary key; model is a pointer
// to the document's model type.
func (r *repository) DocumentExists(ctx context.Context, model any, id int64) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(model).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}
