package queries

import (
	"context"
	"time"

	"github.com/nsets/erp-backend/internal/repo"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
	"gorm.io/gorm"
)

// Repository defines persistence for queries and their child rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, q *models.Query) error
	FindByID(ctx context.Context, id int64) (*models.Query, error)
	FindWithChildren(ctx context.Context, id int64) (*models.Query, error)
	UpdateFields(ctx context.Context, q *models.Query) error
	ReplaceItems(ctx context.Context, queryID int64, items []models.QueryItem) error
	ReplaceSupplierResponses(ctx context.Context, queryID int64, responses []models.SupplierResponse) error
	SupplierAttachmentRefs(ctx context.Context, queryID int64) ([]string, error)
	SetStatus(ctx context.Context, id int64, status enums.QueryStatus) error
	SoftDelete(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, filter listParams) ([]models.Query, error)
	ListForQuotation(ctx context.Context) ([]ForQuotationRow, error)
	ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]models.Query, error)
	Purge(ctx context.Context, ids []int64) (int64, error)
	CountActive(ctx context.Context) (int64, error)
}

type listParams struct {
	Status  enums.QueryStatus
	Deleted bool
}

type repository struct {
	repo.Base
}

// NewRepository builds a queries repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{Base: r.Base.WithTx(tx)}
}

func (r *repository) Create(ctx context.Context, q *models.Query) error {
	return r.DB(ctx).Omit("Items", "SupplierResponses").Create(q).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.Query, error) {
	var q models.Query
	if err := r.DB(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) FindWithChildren(ctx context.Context, id int64) (*models.Query, error) {
	var q models.Query
	err := r.DB(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("serial_number ASC") }).
		Preload("SupplierResponses", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC").Order("id ASC") }).
		First(&q, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// UpdateFields writes every scalar column except status and the soft-delete
// marker, which have their own transitions. A nil AttachmentPath clears it.
func (r *repository) UpdateFields(ctx context.Context, q *models.Query) error {
	return r.DB(ctx).
		Model(&models.Query{ID: q.ID}).
		Updates(map[string]any{
			"org_department":             q.OrgDepartment,
			"client_case_number":         q.ClientCaseNumber,
			"nsets_case_number":          q.NSETSCaseNumber,
			"date":                       q.Date,
			"last_submission_date":       q.LastSubmissionDate,
			"enquiry_date":               q.EnquiryDate,
			"last_submission_excel_date": q.LastSubmissionExcelDate,
			"client_name":                q.ClientName,
			"query_sent_to":              q.QuerySentTo,
			"attachment_path":            q.AttachmentPath,
			"updated_at":                 time.Now().UTC(),
		}).Error
}

func (r *repository) ReplaceItems(ctx context.Context, queryID int64, items []models.QueryItem) error {
	return repo.ReplaceChildren(ctx, r.DB(nil), "query_id", queryID, items)
}

func (r *repository) ReplaceSupplierResponses(ctx context.Context, queryID int64, responses []models.SupplierResponse) error {
	return repo.ReplaceChildren(ctx, r.DB(nil), "query_id", queryID, responses)
}

func (r *repository) SupplierAttachmentRefs(ctx context.Context, queryID int64) ([]string, error) {
	var refs []string
	err := r.DB(ctx).
		Model(&models.SupplierResponse{}).
		Where("query_id = ? AND attachment_path IS NOT NULL AND attachment_path <> ''", queryID).
		Pluck("attachment_path", &refs).Error
	return refs, err
}

func (r *repository) SetStatus(ctx context.Context, id int64, status enums.QueryStatus) error {
	return r.DB(ctx).
		Model(&models.Query{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": time.Now().UTC()}).Error
}

func (r *repository) SoftDelete(ctx context.Context, id int64, at time.Time) error {
	return r.DB(ctx).
		Model(&models.Query{}).
		Where("id = ? AND deleted_at IS NULL", id).
		UpdateColumn("deleted_at", at).Error
}

func (r *repository) List(ctx context.Context, filter listParams) ([]models.Query, error) {
	q := r.DB(ctx).Model(&models.Query{})
	if filter.Deleted {
		q = q.Where("deleted_at IS NOT NULL")
	} else {
		q = q.Where("deleted_at IS NULL")
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
	}

	var rows []models.Query
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListForQuotation(ctx context.Context) ([]ForQuotationRow, error) {
	var rows []ForQuotationRow
	err := r.DB(ctx).
		Model(&models.Query{}).
		Select("id", "client_case_number", "nsets_case_number", "client_name").
		Where("deleted_at IS NULL").
		Order("created_at DESC").
		Order("id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]models.Query, error) {
	var rows []models.Query
	err := r.DB(ctx).
		Preload("SupplierResponses").
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Purge hard-deletes the queries and their child rows.
func (r *repository) Purge(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db := r.DB(nil)
	if err := repo.DeleteChildren[models.QueryItem](ctx, db, "query_id", ids); err != nil {
		return 0, err
	}
	if err := repo.DeleteChildren[models.SupplierResponse](ctx, db, "query_id", ids); err != nil {
		return 0, err
	}
	res := db.WithContext(ctx).Where("id IN ? AND deleted_at IS NOT NULL", ids).Delete(&models.Query{})
	return res.RowsAffected, res.Error
}

func (r *repository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Query{}).Where("deleted_at IS NULL").Count(&count).Error
	return count, err
}
