package quotations

import (
	"strings"

	"github.com/nsets/erp-backend/internal/finance"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

type ItemInput struct {
	ManufacturerNumber string              `json:"manufacturer_number" validate:"max=255"`
	StockistNumber     string              `json:"stockist_number" validate:"max=255"`
	COO                string              `json:"coo" validate:"max=255"`
	Brand              string              `json:"brand" validate:"max=255"`
	Description        string              `json:"description" validate:"max=4000"`
	AU                 string              `json:"au" validate:"max=64"`
	Quantity           int                 `json:"quantity" validate:"gte=0"`
	UnitPrice          decimal.Decimal     `json:"unit_price"`
	SupplierPrice      decimal.NullDecimal `json:"supplier_price"`
	ProfitFactor       decimal.NullDecimal `json:"profit_factor"`
	ExchangeRate       decimal.NullDecimal `json:"exchange_rate"`
	SupplierUP         decimal.NullDecimal `json:"supplier_up"`
}

// Input carries a full quotation. Freight is only read for non-local
// quotations; local ones always derive GST from the subtotal.
type Input struct {
	QuotationNumber string              `json:"quotation_number" validate:"max=255"`
	Date            string              `json:"date" validate:"omitempty,datetime=2006-01-02"`
	ToClient        string              `json:"to_client" validate:"max=4000"`
	QueryID         *int64              `json:"query_id"`
	Currency        string              `json:"currency" validate:"max=8"`
	QuotationType   string              `json:"quotation_type"`
	Attachment      *string             `json:"attachment"`
	SupplierPrice   decimal.NullDecimal `json:"supplier_price"`
	ProfitFactor    decimal.NullDecimal `json:"profit_factor"`
	ExchangeRate    decimal.NullDecimal `json:"exchange_rate"`
	Freight         decimal.Decimal     `json:"freight"`
	Items           []ItemInput         `json:"items" validate:"dive"`
}

func (in Input) lines() []finance.Line {
	lines := make([]finance.Line, 0, len(in.Items))
	for _, item := range in.Items {
		lines = append(lines, finance.Line{Quantity: item.Quantity, UnitPrice: finance.Round(item.UnitPrice)})
	}
	return lines
}

func (in Input) model(quotationType enums.QuotationType) models.Quotation {
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = enums.DefaultQuotationCurrency
	}
	totals := finance.ComputeQuotationTotals(in.lines(), quotationType, in.Freight)
	return models.Quotation{
		QuotationNumber: strings.TrimSpace(in.QuotationNumber),
		Date:            in.Date,
		ToClient:        strings.TrimSpace(in.ToClient),
		QueryID:         in.QueryID,
		Currency:        currency,
		QuotationType:   quotationType,
		Attachment:      in.Attachment,
		SupplierPrice:   in.SupplierPrice,
		ProfitFactor:    in.ProfitFactor,
		ExchangeRate:    in.ExchangeRate,
		TotalWithoutGST: totals.TotalWithoutGST,
		GSTAmount:       totals.Surcharge,
		GrandTotal:      totals.GrandTotal,
	}
}

func (in Input) itemModels(quotationID int64) []models.QuotationItem {
	items := make([]models.QuotationItem, 0, len(in.Items))
	for i, item := range in.Items {
		supplierUP := item.SupplierUP
		if derived := finance.SupplierUnitPriceFrom(item.SupplierPrice, item.ProfitFactor, item.ExchangeRate); derived.Valid {
			supplierUP = derived
		}
		unitPrice := finance.Round(item.UnitPrice)
		items = append(items, models.QuotationItem{
			QuotationID:        quotationID,
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
			SupplierPrice:      item.SupplierPrice,
			ProfitFactor:       item.ProfitFactor,
			ExchangeRate:       item.ExchangeRate,
			SupplierUP:         supplierUP,
		})
	}
	return items
}
