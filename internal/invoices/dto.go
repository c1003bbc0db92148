package invoices

import (
	"strings"

	"github.com/nsets/erp-backend/internal/finance"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// ItemInput is one invoice line. CalculatedPrice is derived whenever
// SupplierUP, ProfitFactor and ExchangeRate are all present.
type ItemInput struct {
	ManufacturerNumber string              `json:"manufacturer_number" validate:"max=255"`
	StockistNumber     string              `json:"stockist_number" validate:"max=255"`
	COO                string              `json:"coo" validate:"max=255"`
	Brand              string              `json:"brand" validate:"max=255"`
	Description        string              `json:"description" validate:"max=4000"`
	AU                 string              `json:"au" validate:"max=64"`
	Quantity           int                 `json:"quantity" validate:"gte=0"`
	UnitPrice          decimal.Decimal     `json:"unit_price"`
	SupplierUP         decimal.NullDecimal `json:"supplier_up"`
	ProfitFactor       decimal.NullDecimal `json:"profit_factor"`
	ExchangeRate       decimal.NullDecimal `json:"exchange_rate"`
	CalculatedPrice    decimal.NullDecimal `json:"calculated_price"`
}

type Input struct {
	RefNo           string      `json:"ref_no" validate:"max=255"`
	ARNo            *string     `json:"ar_no" validate:"omitempty,max=255"`
	Date            string      `json:"date" validate:"omitempty,datetime=2006-01-02"`
	InvoiceNumber   string      `json:"invoice_number" validate:"max=255"`
	ToClient        string      `json:"to_client" validate:"max=4000"`
	QueryID         *int64      `json:"query_id"`
	QuotationID     *int64      `json:"quotation_id"`
	PurchaseOrderID *int64      `json:"purchase_order_id"`
	Items           []ItemInput `json:"items" validate:"dive"`
}

func (in Input) lines() []finance.Line {
	lines := make([]finance.Line, 0, len(in.Items))
	for _, item := range in.Items {
		lines = append(lines, finance.Line{Quantity: item.Quantity, UnitPrice: finance.Round(item.UnitPrice)})
	}
	return lines
}

func (in Input) model() models.Invoice {
	totals := finance.ComputeInvoiceTotals(in.lines())
	var arNo *string
	if in.ARNo != nil && strings.TrimSpace(*in.ARNo) != "" {
		v := strings.TrimSpace(*in.ARNo)
		arNo = &v
	}
	return models.Invoice{
		RefNo:           strings.TrimSpace(in.RefNo),
		ARNo:            arNo,
		Date:            in.Date,
		InvoiceNumber:   strings.TrimSpace(in.InvoiceNumber),
		ToClient:        strings.TrimSpace(in.ToClient),
		QueryID:         in.QueryID,
		QuotationID:     in.QuotationID,
		PurchaseOrderID: in.PurchaseOrderID,
		TotalWithoutGST: totals.TotalWithoutGST,
		GSTAmount:       totals.GSTAmount,
		GrandTotal:      totals.GrandTotal,
	}
}

func (in Input) itemModels(invoiceID int64) []models.InvoiceItem {
	items := make([]models.InvoiceItem, 0, len(in.Items))
	for i, item := range in.Items {
		calculated := item.CalculatedPrice
		if derived := finance.SupplierUnitPriceFrom(item.SupplierUP, item.ProfitFactor, item.ExchangeRate); derived.Valid {
			calculated = derived
		}
		unitPrice := finance.Round(item.UnitPrice)
		items = append(items, models.InvoiceItem{
			InvoiceID:          invoiceID,
			SerialNumber:       i + 1,
			ManufacturerNumber: item.ManufacturerNumber,
			StockistNumber:     item.StockistNumber,
			COO:                item.COO,
			Brand:              item.Brand,
			Description:        item.Description,
			AU:                 item.AU,
			Quantity:           item.Quantity,
			UnitPrice:          unitPrice,
			TotalPrice:         finance.LineTotal(item.Quantity, unitPrice),
			SupplierUP:         item.SupplierUP,
			ProfitFactor:       item.ProfitFactor,
			ExchangeRate:       item.ExchangeRate,
			CalculatedPrice:    calculated,
		})
	}
	return items
}
