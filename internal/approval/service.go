// Package approval turns an accepted quotation into an invoice.
package approval

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/internal/activity"
	"github.com/nsets/erp-backend/internal/finance"
	"github.com/nsets/erp-backend/internal/invoices"
	"github.com/nsets/erp-backend/internal/quotations"
	"github.com/nsets/erp-backend/pkg/db"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/logger"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Service interface {
	Approve(ctx context.Context, actor *access.Actor, quotationID int64) (*Result, error)
}

// Result identifies the invoice produced by an approval.
type Result struct {
	InvoiceID   int64  `json:"invoice_id"`
	QuotationID int64  `json:"quotation_id"`
	RefNo       string `json:"ref_no"`
}

type ServiceParams struct {
	Quotations quotations.Repository
	Invoices   invoices.Repository
	Tx         db.TxRunner
	Activity   activity.Recorder
	Logger     *logger.Logger
	// AllowDuplicates permits more than one invoice per quotation.
	AllowDuplicates bool
}

type service struct {
	quotations      quotations.Repository
	invoices        invoices.Repository
	tx              db.TxRunner
	activity        activity.Recorder
	logg            *logger.Logger
	allowDuplicates bool
	now             func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Quotations == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quotations repository required")
	case params.Invoices == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "invoices repository required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	case params.Activity == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity recorder required")
	case params.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		quotations:      params.Quotations,
		invoices:        params.Invoices,
		tx:              params.Tx,
		activity:        params.Activity,
		logg:            params.Logger,
		allowDuplicates: params.AllowDuplicates,
		now:             time.Now,
	}, nil
}

// Approve copies the quotation and its items into a new invoice. Totals are
// carried over as stored; item supplier pricing is renamed onto the invoice
// columns.
func (s *service) Approve(ctx context.Context, actor *access.Actor, quotationID int64) (*Result, error) {
	if err := access.Authorize(actor, enums.PermissionQuotations); err != nil {
		return nil, err
	}
	if err := access.Authorize(actor, enums.PermissionInvoices); err != nil {
		return nil, err
	}

	var invoice models.Invoice
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		quotationRepo := s.quotations.WithTx(tx)
		if !s.allowDuplicates {
			// Concurrent approvals of one quotation queue here, so the count
			// below sees any invoice committed by the first.
			if err := quotationRepo.LockByID(ctx, quotationID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "lock quotation")
			}
		}
		quotation, err := quotationRepo.FindByID(ctx, quotationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "quotation not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load quotation")
		}

		invoiceRepo := s.invoices.WithTx(tx)
		if !s.allowDuplicates {
			existing, err := invoiceRepo.CountForQuotation(ctx, quotationID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "check existing invoices")
			}
			if existing > 0 {
				return pkgerrors.New(pkgerrors.CodeConflict, "quotation already approved").
					WithDetails(map[string]any{"quotation_id": quotationID, "invoices": existing})
			}
		}

		invoice = invoiceFrom(quotation, s.now())
		if err := invoiceRepo.Create(ctx, &invoice); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create invoice")
		}
		if err := invoiceRepo.ReplaceItems(ctx, invoice.ID, invoiceItemsFrom(quotation.Items, invoice.ID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "copy invoice items")
		}
		return nil
	})
	if err != nil {
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "approve quotation")
	}

	s.activity.Record(activity.Entry{
		Actor:      actor,
		Action:     enums.ActivityActionApprove,
		EntityType: enums.EntityTypeInvoice,
		EntityID:   invoice.ID,
		EntityName: invoice.RefNo,
		Details:    fmt.Sprintf("created from quotation %d", quotationID),
	})
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"quotation_id": quotationID,
		"invoice_id":   invoice.ID,
	}), "approval.invoice_created")

	return &Result{InvoiceID: invoice.ID, QuotationID: quotationID, RefNo: invoice.RefNo}, nil
}

func invoiceFrom(q *models.Quotation, now time.Time) models.Invoice {
	quotationID := q.ID
	return models.Invoice{
		RefNo:           q.QuotationNumber,
		Date:            now.Format(dateLayout),
		ToClient:        q.ToClient,
		QueryID:         q.QueryID,
		QuotationID:     &quotationID,
		TotalWithoutGST: q.TotalWithoutGST,
		GSTAmount:       q.GSTAmount,
		GrandTotal:      q.GrandTotal,
	}
}

func invoiceItemsFrom(items []models.QuotationItem, invoiceID int64) []models.InvoiceItem {
	out := make([]models.InvoiceItem, 0, len(items))
	for _, item := range items {
		calculated := item.SupplierUP
		if !calculated.Valid {
			calculated = finance.SupplierUnitPriceFrom(item.SupplierPrice, item.ProfitFactor, item.ExchangeRate)
		}
		out = append(out, models.InvoiceItem{
			InvoiceID:          invoiceID,
			SerialNumber:       item.SerialNumber,
			ManufacturerNumber: item.ManufacturerNumber,
			StockistNumber:     item.StockistNumber,
			COO:                item.COO,
			Brand:              item.Brand,
			Description:        item.Description,
			AU:                 item.AU,
			Quantity:           item.Quantity,
			UnitPrice:          item.UnitPrice,
			TotalPrice:         item.TotalPrice,
			SupplierUP:         item.SupplierPrice,
			ProfitFactor:       item.ProfitFactor,
			ExchangeRate:       item.ExchangeRate,
			CalculatedPrice:    calculated,
		})
	}
	return out
}
