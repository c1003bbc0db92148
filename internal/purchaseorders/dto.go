package purchaseorders

import (
	"strings"

	"github.com/nsets/erp-backend/internal/finance"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// ItemInput keeps the caller's serial number; purchase order lines are often
// numbered to match the supplier's quote.
type ItemInput struct {
	SerialNumber       int             `json:"serial_number" validate:"gte=0"`
	ManufacturerNumber string          `json:"manufacturer_number" validate:"max=255"`
	StockistNumber     string          `json:"stockist_number" validate:"max=255"`
	COO                string          `json:"coo" validate:"max=255"`
	Brand              string          `json:"brand" validate:"max=255"`
	Description        string          `json:"description" validate:"max=4000"`
	AU                 string          `json:"au" validate:"max=64"`
	Quantity           int             `json:"quantity" validate:"gte=0"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	DeliveryTime       string          `json:"delivery_time" validate:"max=255"`
	Remarks            string          `json:"remarks" validate:"max=4000"`
}

type Input struct {
	PONumber        string          `json:"po_number" validate:"max=255"`
	Date            string          `json:"date" validate:"omitempty,datetime=2006-01-02"`
	SupplierName    string          `json:"supplier_name" validate:"max=255"`
	SupplierAddress string          `json:"supplier_address" validate:"max=4000"`
	POCurrency      string          `json:"po_currency" validate:"max=8"`
	QueryID         *int64          `json:"query_id"`
	QuotationID     *int64          `json:"quotation_id"`
	FreightCharges  decimal.Decimal `json:"freight_charges"`
	Items           []ItemInput     `json:"items" validate:"dive"`
}

func (in Input) lines() []finance.Line {
	lines := make([]finance.Line, 0, len(in.Items))
	for _, item := range in.Items {
		lines = append(lines, finance.Line{Quantity: item.Quantity, UnitPrice: finance.Round(item.UnitPrice)})
	}
	return lines
}

func (in Input) model() models.PurchaseOrder {
	currency := strings.ToUpper(strings.TrimSpace(in.POCurrency))
	if currency == "" {
		currency = enums.DefaultPurchaseOrderCurrency
	}
	totals := finance.ComputePurchaseOrderTotals(in.lines(), in.FreightCharges)
	return models.PurchaseOrder{
		PONumber:        strings.TrimSpace(in.PONumber),
		Date:            in.Date,
		SupplierName:    strings.TrimSpace(in.SupplierName),
		SupplierAddress: strings.TrimSpace(in.SupplierAddress),
		POCurrency:      currency,
		QueryID:         in.QueryID,
		QuotationID:     in.QuotationID,
		TotalPrice:      totals.TotalPrice,
		FreightCharges:  totals.FreightCharges,
		GrandTotal:      totals.GrandTotal,
	}
}

func (in Input) itemModels(purchaseOrderID int64) []models.PurchaseOrderItem {
	items := make([]models.PurchaseOrderItem, 0, len(in.Items))
	for i, item := range in.Items {
		serial := item.SerialNumber
		if serial <= 0 {
			serial = i + 1
		}
		unitPrice := finance.Round(item.UnitPrice)
		items = append(items, models.PurchaseOrderItem{
			PurchaseOrderID:    purchaseOrderID,
			SerialNumber:       serial,
			ManufacturerNumber: item.ManufacturerNumber,
			StockistNumber:     item.StockistNumber,
			COO:                item.COO,
			Brand:              item.Brand,
			Description:        item.Description,
			AU:                 item.AU,
			Quantity:           item.Quantity,
			UnitPrice:          unitPrice,
			TotalPrice:         finance.LineTotal(item.Quantity, unitPrice),
			DeliveryTime:       item.DeliveryTime,
			Remarks:            item.Remarks,
		})
	}
	return items
}
