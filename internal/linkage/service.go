// Package linkage answers "what is related to this document" from the explicit
// query_id, quotation_id and purchase_order_id references.
package linkage

import (
	"context"
	"errors"
	"time"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type QueryRef struct {
	ID               int64             `json:"id"`
	ClientCaseNumber string            `json:"client_case_number"`
	NSETSCaseNumber  string            `json:"nsets_case_number"`
	ClientName       string            `json:"client_name"`
	Status           enums.QueryStatus `json:"status"`
	DeletedAt        *time.Time        `json:"deleted_at,omitempty"`
}

type QuotationRef struct {
	ID              int64           `json:"id"`
	QuotationNumber string          `json:"quotation_number"`
	Date            string          `json:"date"`
	GrandTotal      decimal.Decimal `json:"grand_total"`
}

type PurchaseOrderRef struct {
	ID           int64           `json:"id"`
	PONumber     string          `json:"po_number"`
	Date         string          `json:"date"`
	SupplierName string          `json:"supplier_name"`
	GrandTotal   decimal.Decimal `json:"grand_total"`
}

type InvoiceRef struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	RefNo         string          `json:"ref_no"`
	Date          string          `json:"date"`
	GrandTotal    decimal.Decimal `json:"grand_total"`
}

// Related lists the documents linked to the requested one. Collections are
// never nil. Categories the caller may not read are left empty.
type Related struct {
	Query          *QueryRef          `json:"query"`
	Quotations     []QuotationRef     `json:"quotations"`
	PurchaseOrders []PurchaseOrderRef `json:"purchase_orders"`
	Invoices       []InvoiceRef       `json:"invoices"`
}

type Service interface {
	Resolve(ctx context.Context, actor *access.Actor, kind enums.EntityType, id int64) (*Related, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "linkage repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Resolve(ctx context.Context, actor *access.Actor, kind enums.EntityType, id int64) (*Related, error) {
	perm, ok := permissionFor(kind)
	if !ok {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported document type %q", kind)
	}
	if err := access.Authorize(actor, perm); err != nil {
		return nil, err
	}

	var (
		out *Related
		err error
	)
	switch kind {
	case enums.EntityTypeQuery:
		out, err = s.forQuery(ctx, id)
	case enums.EntityTypeQuotation:
		out, err = s.forQuotation(ctx, id)
	case enums.EntityTypePurchaseOrder:
		out, err = s.forPurchaseOrder(ctx, id)
	default:
		out, err = s.forInvoice(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return redact(out, actor), nil
}

func (s *service) forQuery(ctx context.Context, id int64) (*Related, error) {
	if _, err := lookup(ctx, s.repo.Query, id, "query"); err != nil {
		return nil, err
	}
	quotations, err := s.repo.QuotationsForQuery(ctx, id)
	if err != nil {
		return nil, persistence(err)
	}
	quotationIDs := quotationIDs(quotations)
	pos, err := s.repo.PurchaseOrdersFor(ctx, &id, quotationIDs)
	if err != nil {
		return nil, persistence(err)
	}
	invoices, err := s.repo.InvoicesFor(ctx, &id, quotationIDs, purchaseOrderIDs(pos))
	if err != nil {
		return nil, persistence(err)
	}
	return build(nil, quotations, pos, invoices), nil
}

func (s *service) forQuotation(ctx context.Context, id int64) (*Related, error) {
	quotation, err := lookup(ctx, s.repo.Quotation, id, "quotation")
	if err != nil {
		return nil, err
	}
	query, err := s.optionalQuery(ctx, quotation.QueryID)
	if err != nil {
		return nil, err
	}
	pos, err := s.repo.PurchaseOrdersFor(ctx, nil, []int64{id})
	if err != nil {
		return nil, persistence(err)
	}
	invoices, err := s.repo.InvoicesFor(ctx, nil, []int64{id}, purchaseOrderIDs(pos))
	if err != nil {
		return nil, persistence(err)
	}
	return build(query, nil, pos, invoices), nil
}

func (s *service) forPurchaseOrder(ctx context.Context, id int64) (*Related, error) {
	po, err := lookup(ctx, s.repo.PurchaseOrder, id, "purchase order")
	if err != nil {
		return nil, err
	}
	var quotations []models.Quotation
	queryID := po.QueryID
	if po.QuotationID != nil {
		quotation, err := s.optionalQuotation(ctx, *po.QuotationID)
		if err != nil {
			return nil, err
		}
		if quotation != nil {
			quotations = append(quotations, *quotation)
			if queryID == nil {
				queryID = quotation.QueryID
			}
		}
	}
	query, err := s.optionalQuery(ctx, queryID)
	if err != nil {
		return nil, err
	}
	invoices, err := s.repo.InvoicesFor(ctx, nil, nil, []int64{id})
	if err != nil {
		return nil, persistence(err)
	}
	return build(query, quotations, nil, invoices), nil
}

func (s *service) forInvoice(ctx context.Context, id int64) (*Related, error) {
	invoice, err := lookup(ctx, s.repo.Invoice, id, "invoice")
	if err != nil {
		return nil, err
	}
	var (
		quotations []models.Quotation
		pos        []models.PurchaseOrder
	)
	queryID := invoice.QueryID
	quotationID := invoice.QuotationID

	if invoice.PurchaseOrderID != nil {
		po, err := s.repo.PurchaseOrder(ctx, *invoice.PurchaseOrderID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, persistence(err)
		}
		if po != nil {
			pos = append(pos, *po)
			if quotationID == nil {
				quotationID = po.QuotationID
			}
			if queryID == nil {
				queryID = po.QueryID
			}
		}
	}
	if quotationID != nil {
		quotation, err := s.optionalQuotation(ctx, *quotationID)
		if err != nil {
			return nil, err
		}
		if quotation != nil {
			quotations = append(quotations, *quotation)
			if queryID == nil {
				queryID = quotation.QueryID
			}
		}
	}
	query, err := s.optionalQuery(ctx, queryID)
	if err != nil {
		return nil, err
	}
	return build(query, quotations, pos, nil), nil
}

func (s *service) optionalQuery(ctx context.Context, id *int64) (*models.Query, error) {
	if id == nil {
		return nil, nil
	}
	query, err := s.repo.Query(ctx, *id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, persistence(err)
	}
	return query, nil
}

func (s *service) optionalQuotation(ctx context.Context, id int64) (*models.Quotation, error) {
	quotation, err := s.repo.Quotation(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, persistence(err)
	}
	return quotation, nil
}

func lookup[T any](ctx context.Context, find func(context.Context, int64) (*T, error), id int64, name string) (*T, error) {
	row, err := find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "%s not found", name)
		}
		return nil, persistence(err)
	}
	return row, nil
}

func persistence(err error) error {
	return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "resolve related documents")
}

func permissionFor(kind enums.EntityType) (enums.Permission, bool) {
	switch kind {
	case enums.EntityTypeQuery:
		return enums.PermissionQueries, true
	case enums.EntityTypeQuotation:
		return enums.PermissionQuotations, true
	case enums.EntityTypePurchaseOrder:
		return enums.PermissionPurchaseOrders, true
	case enums.EntityTypeInvoice:
		return enums.PermissionInvoices, true
	}
	return "", false
}

func redact(r *Related, actor *access.Actor) *Related {
	if !actor.Can(enums.PermissionQueries) {
		r.Query = nil
	}
	if !actor.Can(enums.PermissionQuotations) {
		r.Quotations = []QuotationRef{}
	}
	if !actor.Can(enums.PermissionPurchaseOrders) {
		r.PurchaseOrders = []PurchaseOrderRef{}
	}
	if !actor.Can(enums.PermissionInvoices) {
		r.Invoices = []InvoiceRef{}
	}
	return r
}

func build(query *models.Query, quotations []models.Quotation, pos []models.PurchaseOrder, invoices []models.Invoice) *Related {
	out := &Related{
		Quotations:     make([]QuotationRef, 0, len(quotations)),
		PurchaseOrders: make([]PurchaseOrderRef, 0, len(pos)),
		Invoices:       make([]InvoiceRef, 0, len(invoices)),
	}
	if query != nil {
		out.Query = &QueryRef{
			ID:               query.ID,
			ClientCaseNumber: query.ClientCaseNumber,
			NSETSCaseNumber:  query.NSETSCaseNumber,
			ClientName:       query.ClientName,
			Status:           query.Status,
			DeletedAt:        query.DeletedAt,
		}
	}
	for _, q := range quotations {
		out.Quotations = append(out.Quotations, QuotationRef{ID: q.ID, QuotationNumber: q.QuotationNumber, Date: q.Date, GrandTotal: q.GrandTotal})
	}
	for _, po := range pos {
		out.PurchaseOrders = append(out.PurchaseOrders, PurchaseOrderRef{ID: po.ID, PONumber: po.PONumber, Date: po.Date, SupplierName: po.SupplierName, GrandTotal: po.GrandTotal})
	}
	for _, inv := range invoices {
		out.Invoices = append(out.Invoices, InvoiceRef{ID: inv.ID, InvoiceNumber: inv.InvoiceNumber, RefNo: inv.RefNo, Date: inv.Date, GrandTotal: inv.GrandTotal})
	}
	return out
}

func quotationIDs(rows []models.Quotation) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}

func purchaseOrderIDs(rows []models.PurchaseOrder) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids
}
