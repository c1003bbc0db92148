package queries

import (
	"io"
	"strings"

	"github.com/nsets/erp-backend/pkg/db/models"
)

// ItemInput is one requested line. Serial numbers are assigned from position.
type ItemInput struct {
	ManufacturerNumber string `json:"manufacturer_number" validate:"max=255"`
	StockistNumber     string `json:"stockist_number" validate:"max=255"`
	COO                string `json:"coo" validate:"max=255"`
	Brand              string `json:"brand" validate:"max=255"`
	Description        string `json:"description" validate:"max=4000"`
	AU                 string `json:"au" validate:"max=64"`
	Quantity           int    `json:"quantity" validate:"gte=0"`
	Remarks            string `json:"remarks" validate:"max=4000"`
}

// Fields are the scalar query attributes shared by create and update.
type Fields struct {
	OrgDepartment           string      `json:"org_department" validate:"max=255"`
	ClientCaseNumber        string      `json:"client_case_number" validate:"max=255"`
	NSETSCaseNumber         string      `json:"nsets_case_number" validate:"max=255"`
	Date                    string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
	LastSubmissionDate      string      `json:"last_submission_date" validate:"omitempty,datetime=2006-01-02"`
	EnquiryDate             string      `json:"enquiry_date" validate:"omitempty,datetime=2006-01-02"`
	LastSubmissionExcelDate string      `json:"last_submission_excel_date" validate:"omitempty,datetime=2006-01-02"`
	ClientName              string      `json:"client_name" validate:"max=255"`
	QuerySentTo             string      `json:"query_sent_to" validate:"max=4000"`
	Items                   []ItemInput `json:"items" validate:"dive"`
}

// Upload is a file received with a request.
type Upload struct {
	Filename string
	Content  io.Reader
}

type CreateInput struct {
	Fields
	Attachment *Upload
}

// UpdateInput replaces every scalar and the item list. The stored attachment
// is kept unless a new one is uploaded or RemoveAttachment is set; an upload
// wins over removal. Status is not part of an update.
type UpdateInput struct {
	Fields
	RemoveAttachment bool
	Attachment       *Upload
}

// SupplierResponseInput is one supplier's answer. AttachmentPath carries a
// reference returned by the standalone upload endpoint; Attachment, when
// present, takes precedence.
type SupplierResponseInput struct {
	Supplier       string  `json:"supplier" validate:"max=255"`
	Response       string  `json:"response" validate:"max=255"`
	AttachmentPath string  `json:"attachment_path,omitempty" validate:"max=512"`
	Attachment     *Upload `json:"-"`
}

// IsYes reports whether the response counts toward the submission gate.
func (r SupplierResponseInput) IsYes() bool {
	return strings.EqualFold(strings.TrimSpace(r.Response), "yes")
}

type StatusChangeInput struct {
	Status    string                  `json:"status" validate:"required"`
	Responses []SupplierResponseInput `json:"supplier_responses" validate:"dive"`
}

// ListFilter selects active queries (optionally by status) or, when Deleted
// is set, the soft-deleted ones regardless of status.
type ListFilter struct {
	Status  string
	Deleted bool
}

// ForQuotationRow is the picker row offered when drafting a quotation.
type ForQuotationRow struct {
	ID               int64  `json:"id"`
	ClientCaseNumber string `json:"client_case_number"`
	NSETSCaseNumber  string `json:"nsets_case_number"`
	ClientName       string `json:"client_name"`
}

// SupplierAttachment is returned by the standalone supplier upload.
type SupplierAttachment struct {
	AttachmentPath string `json:"attachment_path"`
	SupplierName   string `json:"supplier_name"`
}

func (f Fields) apply(q *models.Query) {
	q.OrgDepartment = strings.TrimSpace(f.OrgDepartment)
	q.ClientCaseNumber = strings.TrimSpace(f.ClientCaseNumber)
	q.NSETSCaseNumber = strings.TrimSpace(f.NSETSCaseNumber)
	q.Date = f.Date
	q.LastSubmissionDate = f.LastSubmissionDate
	q.EnquiryDate = f.EnquiryDate
	q.LastSubmissionExcelDate = f.LastSubmissionExcelDate
	q.ClientName = strings.TrimSpace(f.ClientName)
	q.QuerySentTo = strings.TrimSpace(f.QuerySentTo)
}

func (f Fields) itemModels(queryID int64) []models.QueryItem {
	items := make([]models.QueryItem, 0, len(f.Items))
	for i, in := range f.Items {
		items = append(items, models.QueryItem{
			QueryID:            queryID,
			SerialNumber:       i + 1,
			ManufacturerNumber: in.ManufacturerNumber,
			StockistNumber:     in.StockistNumber,
			COO:                in.COO,
			Brand:              in.Brand,
			Description:        in.Description,
			AU:                 in.AU,
			Quantity:           in.Quantity,
			Remarks:            in.Remarks,
		})
	}
	return items
}
