package quotations

import (
	"context"

	"github.com/nsets/erp-backend/internal/repo"
	"github.com/nsets/erp-backend/pkg/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository defines persistence for quotations and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, q *models.Quotation) error
	Update(ctx context.Context, q *models.Quotation) error
	ReplaceItems(ctx context.Context, quotationID int64, items []models.QuotationItem) error
	FindByID(ctx context.Context, id int64) (*models.Quotation, error)
	LockByID(ctx context.Context, id int64) error
	List(ctx context.Context) ([]models.Quotation, error)
	Delete(ctx context.Context, id int64) (int64, error)
	ActiveQueryExists(ctx context.Context, queryID int64) (bool, error)
}

var updatableColumns = []string{
	"quotation_number", "date", "to_client", "query_id", "currency", "quotation_type",
	"attachment", "supplier_price", "profit_factor", "exchange_rate",
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

func (r *repository) Create(ctx context.Context, q *models.Quotation) error {
	return r.DB(ctx).Omit("Items").Create(q).Error
}

func (r *repository) Update(ctx context.Context, q *models.Quotation) error {
	return r.DB(ctx).Model(q).Select(updatableColumns).Updates(q).Error
}

func (r *repository) ReplaceItems(ctx context.Context, quotationID int64, items []models.QuotationItem) error {
	return repo.ReplaceChildren(ctx, r.DB(ctx), "quotation_id", quotationID, items)
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Quotation, error) {
	var q models.Quotation
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("serial_number ASC") }).
		First(&q, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// LockByID takes a row lock on the quotation until the surrounding
// transaction ends. SQLite has no row locks and serializes writers instead.
func (r *repository) LockByID(ctx context.Context, id int64) error {
	return lockQuotation(r.DB(ctx), id).Error
}

func lockQuotation(db *gorm.DB, id int64) *gorm.DB {
	var q models.Quotation
	return db.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").Take(&q, "id = ?", id)
}

// List returns every quotation newest first, decorated with the client name
// and case number of the linked query.
func (r *repository) List(ctx context.Context) ([]models.Quotation, error) {
	var rows []models.Quotation
	err := r.DB(ctx).
		Model(&models.Quotation{}).
		Select("quotations.*, COALESCE(queries.client_name, '') AS client_name, COALESCE(queries.nsets_case_number, '') AS nsets_case_number").
		Joins("LEFT JOIN queries ON queries.id = quotations.query_id").
		Order("quotations.created_at DESC").
		Order("quotations.id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes the quotation and its items. It returns the number of
// quotations removed so callers can report a missing id.
func (r *repository) Delete(ctx context.Context, id int64) (int64, error) {
	db := r.DB(ctx)
	if err := repo.DeleteChildren[models.QuotationItem](ctx, db, "quotation_id", []int64{id}); err != nil {
		return 0, err
	}
	res := db.Delete(&models.Quotation{}, "id = ?", id)
	return res.RowsAffected, res.Error
}

func (r *repository) ActiveQueryExists(ctx context.Context, queryID int64) (bool, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Query{}).Where("id = ? AND deleted_at IS NULL", queryID).Count(&count).Error
	return count > 0, err
}
