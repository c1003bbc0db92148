package models

import (
	"time"

	"github.com/nsets/erp-backend/pkg/enums"
)

// Query is a sales enquiry. DeletedAt is managed explicitly by the lifecycle
// service (not gorm's soft-delete hook) so listings can ask for either set.
type Query struct {
	ID                      int64             `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OrgDepartment           string            `gorm:"column:org_department;not null;default:''" json:"org_department"`
	ClientCaseNumber        string            `gorm:"column:client_case_number;not null;default:''" json:"client_case_number"`
	NSETSCaseNumber         string            `gorm:"column:nsets_case_number;not null;default:''" json:"nsets_case_number"`
	Date                    string            `gorm:"column:date;not null;default:''" json:"date"`
	LastSubmissionDate      string            `gorm:"column:last_submission_date;not null;default:''" json:"last_submission_date"`
	EnquiryDate             string            `gorm:"column:enquiry_date;not null;default:''" json:"enquiry_date"`
	LastSubmissionExcelDate string            `gorm:"column:last_submission_excel_date;not null;default:''" json:"last_submission_excel_date"`
	ClientName              string            `gorm:"column:client_name;not null;default:''" json:"client_name"`
	QuerySentTo             string            `gorm:"column:query_sent_to;not null;default:''" json:"query_sent_to"`
	AttachmentPath          *string           `gorm:"column:attachment_path" json:"attachment_path"`
	Status                  enums.QueryStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	CreatedAt               time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt               time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt               *time.Time        `gorm:"column:deleted_at" json:"deleted_at"`

	Items             []QueryItem        `gorm:"foreignKey:QueryID" json:"items,omitempty"`
	SupplierResponses []SupplierResponse `gorm:"foreignKey:QueryID" json:"supplier_responses,omitempty"`
}

// IsDeleted reports whether the query has been soft-deleted.
func (q Query) IsDeleted() bool {
	return q.DeletedAt != nil
}

// QueryItem is one requested line on a query.
type QueryItem struct {
	ID                 int64  `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	QueryID            int64  `gorm:"column:query_id;not null;index" json:"query_id"`
	SerialNumber       int    `gorm:"column:serial_number;not null" json:"serial_number"`
	ManufacturerNumber string `gorm:"column:manufacturer_number;not null;default:''" json:"manufacturer_number"`
	StockistNumber     string `gorm:"column:stockist_number;not null;default:''" json:"stockist_number"`
	COO                string `gorm:"column:coo;not null;default:''" json:"coo"`
	Brand              string `gorm:"column:brand;not null;default:''" json:"brand"`
	Description        string `gorm:"column:description;not null;default:''" json:"description"`
	AU                 string `gorm:"column:au;not null;default:''" json:"au"`
	Quantity           int    `gorm:"column:quantity;not null;default:0" json:"quantity"`
	Remarks            string `gorm:"column:remarks;not null;default:''" json:"remarks"`
}

// SupplierResponse records one supplier's answer to a query. Rows are only
// written by a status transition and are replaced wholesale each time.
type SupplierResponse struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	QueryID        int64     `gorm:"column:query_id;not null;index" json:"query_id"`
	SupplierName   string    `gorm:"column:supplier_name;not null;default:''" json:"supplier_name"`
	Response       string    `gorm:"column:response_status;not null;default:''" json:"response"`
	AttachmentPath *string   `gorm:"column:attachment_path" json:"attachment_path"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}
