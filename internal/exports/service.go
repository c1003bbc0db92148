// Package exports builds the typed document snapshots spreadsheet renderers
// consume.
package exports

import (
	"context"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/internal/activity"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
)

// Field is one labelled header line above the item table.
type Field struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Snapshot is a complete, render-ready document. Columns lists only the
// populated item columns, and every row in Rows lines up with it.
type Snapshot struct {
	Kind     enums.EntityType `json:"kind"`
	ID       int64            `json:"id"`
	Title    string           `json:"title"`
	Header   []Field          `json:"header"`
	Columns  []Column         `json:"columns"`
	Rows     [][]string       `json:"rows"`
	Totals   []Field          `json:"totals"`
	Document any              `json:"document"`
}

type queryReader interface {
	Get(ctx context.Context, actor *access.Actor, id int64) (*models.Query, error)
}

type quotationReader interface {
	Get(ctx context.Context, actor *access.Actor, id int64) (*models.Quotation, error)
}

type purchaseOrderReader interface {
	Get(ctx context.Context, actor *access.Actor, id int64) (*models.PurchaseOrder, error)
}

type invoiceReader interface {
	Get(ctx context.Context, actor *access.Actor, id int64) (*models.Invoice, error)
}

type Service interface {
	Snapshot(ctx context.Context, actor *access.Actor, kind enums.EntityType, id int64) (*Snapshot, error)
}

type ServiceParams struct {
	Queries        queryReader
	Quotations     quotationReader
	PurchaseOrders purchaseOrderReader
	Invoices       invoiceReader
	Activity       activity.Recorder
}

type service struct {
	queries        queryReader
	quotations     quotationReader
	purchaseOrders purchaseOrderReader
	invoices       invoiceReader
	activity       activity.Recorder
}

func NewService(params ServiceParams) (Service, error) {
	if params.Queries == nil || params.Quotations == nil || params.PurchaseOrders == nil || params.Invoices == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "document services required")
	}
	if params.Activity == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity recorder required")
	}
	return &service{
		queries:        params.Queries,
		quotations:     params.Quotations,
		purchaseOrders: params.PurchaseOrders,
		invoices:       params.Invoices,
		activity:       params.Activity,
	}, nil
}

// Snapshot loads the document through its own service, so the caller's
// permissions apply, and records an export entry.
func (s *service) Snapshot(ctx context.Context, actor *access.Actor, kind enums.EntityType, id int64) (*Snapshot, error) {
	var (
		snap *Snapshot
		err  error
	)
	switch kind {
	case enums.EntityTypeQuery:
		var q *models.Query
		if q, err = s.queries.Get(ctx, actor, id); err == nil {
			snap = querySnapshot(q)
		}
	case enums.EntityTypeQuotation:
		var q *models.Quotation
		if q, err = s.quotations.Get(ctx, actor, id); err == nil {
			snap = quotationSnapshot(q)
		}
	case enums.EntityTypePurchaseOrder:
		var po *models.PurchaseOrder
		if po, err = s.purchaseOrders.Get(ctx, actor, id); err == nil {
			snap = purchaseOrderSnapshot(po)
		}
	case enums.EntityTypeInvoice:
		var inv *models.Invoice
		if inv, err = s.invoices.Get(ctx, actor, id); err == nil {
			snap = invoiceSnapshot(inv)
		}
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unsupported document type %q", kind)
	}
	if err != nil {
		return nil, err
	}

	s.activity.Record(activity.Entry{
		Actor:      actor,
		Action:     enums.ActivityActionExport,
		EntityType: kind,
		EntityID:   id,
		EntityName: snap.Title,
	})
	return snap, nil
}

func querySnapshot(q *models.Query) *Snapshot {
	columns, rows := ActiveColumns(queryColumns, q.Items)
	return &Snapshot{
		Kind:  enums.EntityTypeQuery,
		ID:    q.ID,
		Title: q.NSETSCaseNumber,
		Header: []Field{
			{"NSETS Case Number", q.NSETSCaseNumber},
			{"Enquiry Date", q.EnquiryDate},
			{"Last Date of Submission", q.LastSubmissionExcelDate},
		},
		Columns:  columns,
		Rows:     rows,
		Totals:   []Field{},
		Document: q,
	}
}

func quotationSnapshot(q *models.Quotation) *Snapshot {
	columns, rows := ActiveColumns(quotationColumns, q.Items)
	surchargeLabel := "GST (18%)"
	if !q.QuotationType.IsLocal() {
		surchargeLabel = "Freight"
	}
	return &Snapshot{
		Kind:  enums.EntityTypeQuotation,
		ID:    q.ID,
		Title: q.QuotationNumber,
		Header: []Field{
			{"Quotation Number", q.QuotationNumber},
			{"Date", q.Date},
			{"To", q.ToClient},
			{"Currency", q.Currency},
		},
		Columns: columns,
		Rows:    rows,
		Totals: []Field{
			{"Total Without GST", money(q.TotalWithoutGST)},
			{surchargeLabel, money(q.GSTAmount)},
			{"Grand Total", money(q.GrandTotal)},
		},
		Document: q,
	}
}

func purchaseOrderSnapshot(po *models.PurchaseOrder) *Snapshot {
	columns, rows := ActiveColumns(purchaseOrderColumns, po.Items)
	currency := po.POCurrency
	if currency == "" {
		currency = enums.DefaultPurchaseOrderCurrency
	}
	return &Snapshot{
		Kind:  enums.EntityTypePurchaseOrder,
		ID:    po.ID,
		Title: po.PONumber,
		Header: []Field{
			{"PO Number", po.PONumber},
			{"Date", po.Date},
			{"Currency", currency},
			{"Supplier Name", po.SupplierName},
			{"Supplier Address", po.SupplierAddress},
		},
		Columns: columns,
		Rows:    rows,
		Totals: []Field{
			{"Total Price", money(po.TotalPrice)},
			{"Freight Charges", money(po.FreightCharges)},
			{"Grand Total", money(po.GrandTotal)},
		},
		Document: po,
	}
}

func invoiceSnapshot(inv *models.Invoice) *Snapshot {
	columns, rows := ActiveColumns(invoiceColumns, inv.Items)
	arNo := ""
	if inv.ARNo != nil {
		arNo = *inv.ARNo
	}
	return &Snapshot{
		Kind:  enums.EntityTypeInvoice,
		ID:    inv.ID,
		Title: firstNonEmpty(inv.InvoiceNumber, inv.RefNo),
		Header: []Field{
			{"Ref No", inv.RefNo},
			{"AR No", arNo},
			{"Date", inv.Date},
			{"Invoice Number", inv.InvoiceNumber},
			{"To", inv.ToClient},
		},
		Columns: columns,
		Rows:    rows,
		Totals: []Field{
			{"Total Without GST", money(inv.TotalWithoutGST)},
			{"GST (18%)", money(inv.GSTAmount)},
			{"Grand Total", money(inv.GrandTotal)},
		},
		Document: inv,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
