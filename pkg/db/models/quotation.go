package models

import (
	"time"

	"github.com/nsets/erp-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Quotation is a priced offer to a client, optionally derived from a query.
// GSTAmount holds the surcharge: GST for local quotations, freight otherwise.
type Quotation struct {
	ID              int64               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	QuotationNumber string              `gorm:"column:quotation_number;not null;default:''" json:"quotation_number"`
	Date            string              `gorm:"column:date;not null;default:''" json:"date"`
	ToClient        string              `gorm:"column:to_client;not null;default:''" json:"to_client"`
	QueryID         *int64              `gorm:"column:query_id;index" json:"query_id"`
	Currency        string              `gorm:"column:currency;not null;default:'USD'" json:"currency"`
	QuotationType   enums.QuotationType `gorm:"column:quotation_type;not null;default:'local'" json:"quotation_type"`
	Attachment      *string             `gorm:"column:attachment" json:"attachment"`
	SupplierPrice   decimal.NullDecimal `gorm:"column:supplier_price;type:numeric(14,2)" json:"supplier_price"`
	ProfitFactor    decimal.NullDecimal `gorm:"column:profit_factor;type:numeric(14,4)" json:"profit_factor"`
	ExchangeRate    decimal.NullDecimal `gorm:"column:exchange_rate;type:numeric(14,4)" json:"exchange_rate"`
	TotalWithoutGST decimal.Decimal     `gorm:"column:total_without_gst;type:numeric(14,2);not null;default:0" json:"total_without_gst"`
	GSTAmount       decimal.Decimal     `gorm:"column:gst_amount;type:numeric(14,2);not null;default:0" json:"gst_amount"`
	GrandTotal      decimal.Decimal     `gorm:"column:grand_total;type:numeric(14,2);not null;default:0" json:"grand_total"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Items []QuotationItem `gorm:"foreignKey:QuotationID" json:"items,omitempty"`

	// Populated by the list query from the linked query, not persisted.
	ClientName      string `gorm:"->;column:client_name;-:migration" json:"client_name,omitempty"`
	NSETSCaseNumber string `gorm:"->;column:nsets_case_number;-:migration" json:"nsets_case_number,omitempty"`
}

type QuotationItem struct {
	ID                 int64               `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	QuotationID        int64               `gorm:"column:quotation_id;not null;index" json:"quotation_id"`
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
	SupplierPrice      decimal.NullDecimal `gorm:"column:supplier_price;type:numeric(14,2)" json:"supplier_price"`
	ProfitFactor       decimal.NullDecimal `gorm:"column:profit_factor;type:numeric(14,4)" json:"profit_factor"`
	ExchangeRate       decimal.NullDecimal `gorm:"column:exchange_rate;type:numeric(14,4)" json:"exchange_rate"`
	SupplierUP         decimal.NullDecimal `gorm:"column:supplier_up;type:numeric(14,2)" json:"supplier_up"`
}
