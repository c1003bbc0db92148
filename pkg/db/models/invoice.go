package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice bills a client. It is either entered directly or produced by
// approving a quotation, in which case QuotationID (and QueryID when the
// quotation had one) record the provenance.
type Invoice struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	RefNo           string          `gorm:"column:ref_no;not null;default:''" json:"ref_no"`
	ARNo            *string         `gorm:"column:ar_no" json:"ar_no"`
	Date            string          `gorm:"column:date;not null;default:''" json:"date"`
	InvoiceNumber   string          `gorm:"column:invoice_number;not null;default:''" json:"invoice_number"`
	ToClient        string          `gorm:"column:to_client;not null;default:''" json:"to_client"`
	QueryID         *int64          `gorm:"column:query_id;index" json:"query_id"`
	QuotationID     *int64          `gorm:"column:quotation_id;index" json:"quotation_id"`
	PurchaseOrderID *int64          `gorm:"column:purchase_order_id;index" json:"purchase_order_id"`
	TotalWithoutGST decimal.Decimal `gorm:"column:total_without_gst;type:numeric(14,2);not null;default:0" json:"total_without_gst"`
	GSTAmount       decimal.Decimal `gorm:"column:gst_amount;type:numeric(14,2);not null;default:0" json:"gst_amount"`
	GrandTotal      decimal.Decimal `gorm:"column:grand_total;type:numeric(14,2);not null;default:0" json:"grand_total"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Items []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
}

type InvoiceItem struct {
	ID                 int64               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	InvoiceID          int64               `gorm:"column:invoice_id;not null;index" json:"invoice_id"`
	SerialNumber       int                 `gorm:"column:serial_number;not null" json:"serial_number"`
	ManufacturerNumber string              `gorm:"column:manufacturer_number;not null;default:''" json:"manufacturer_number"`
	StockistNumber     string              `gorm:"column:stockist_number;not null;default:''" json:"stockist_number"`
	COO                string              `gorm:"column:coo;not null;default:''" json:"coo"`
	Brand              string              `gorm:"column:brand;not null;default:''" json:"brand"`
	Description        string              `gorm:"column:description;not null;default:''" json:"description"`
	AU                 string              `gorm:"column:au;not null;default:''" json:"au"`
	Quantity           int                 `gorm:"column:quantity;not null;default:0" json:"quantity"`
	UnitPrice          decimal.Decimal     `gorm:"column:unit_price;type:numeric(14,2);not null;default:0" json:"unit_price"`
	TotalPrice         decimal.Decimal     `gorm:"column:total_price;type:numeric(14,2);not null;default:0" json:"total_price"`
	SupplierUP         decimal.NullDecimal `gorm:"column:supplier_up;type:numeric(14,2)" json:"supplier_up"`
	ProfitFactor       decimal.NullDecimal `gorm:"column:profit_factor;type:numeric(14,4)" json:"profit_factor"`
	ExchangeRate       decimal.NullDecimal `gorm:"column:exchange_rate;type:numeric(14,4)" json:"exchange_rate"`
	CalculatedPrice    decimal.NullDecimal `gorm:"column:calculated_price;type:numeric(14,2)" json:"calculated_price"`
}
