package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder is an order placed with a supplier. QueryID and QuotationID
// are optional provenance links.
type PurchaseOrder struct {
	ID              int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PONumber        string          `gorm:"column:po_number;not null;default:''" json:"po_number"`
	Date            string          `gorm:"column:date;not null;default:''" json:"date"`
	SupplierName    string          `gorm:"column:supplier_name;not null;default:''" json:"supplier_name"`
	SupplierAddress string          `gorm:"column:supplier_address;not null;default:''" json:"supplier_address"`
	POCurrency      string          `gorm:"column:po_currency;not null;default:'INR'" json:"po_currency"`
	QueryID         *int64          `gorm:"column:query_id;index" json:"query_id"`
	QuotationID     *int64          `gorm:"column:quotation_id;index" json:"quotation_id"`
	TotalPrice      decimal.Decimal `gorm:"column:total_price;type:numeric(14,2);not null;default:0" json:"total_price"`
	FreightCharges  decimal.Decimal `gorm:"column:freight_charges;type:numeric(14,2);not null;default:0" json:"freight_charges"`
	GrandTotal      decimal.Decimal `gorm:"column:grand_total;type:numeric(14,2);not null;default:0" json:"grand_total"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID" json:"items,omitempty"`
}

// PurchaseOrderItem keeps the serial number the client sent; unlike query and
// quotation items it is not renumbered by position.
type PurchaseOrderItem struct {
	ID                 int64           `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PurchaseOrderID    int64           `gorm:"column:purchase_order_id;not null;index" json:"purchase_order_id"`
	SerialNumber       int             `gorm:"column:serial_number;not null" json:"serial_number"`
	ManufacturerNumber string          `gorm:"column:manufacturer_number;not null;default:''" json:"manufacturer_number"`
	StockistNumber     string          `gorm:"column:stockist_number;not null;default:''" json:"stockist_number"`
	COO                string          `gorm:"column:coo;not null;default:''" json:"coo"`
	Brand              string          `gorm:"column:brand;not null;default:''" json:"brand"`
	Description        string          `gorm:"column:description;not null;default:''" json:"description"`
	AU                 string          `gorm:"column:au;not null;default:''" json:"au"`
	Quantity           int             `gorm:"column:quantity;not null;default:0" json:"quantity"`
	UnitPrice          decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2);not null;default:0" json:"unit_price"`
	TotalPrice         decimal.Decimal `gorm:"column:total_price;type:numeric(14,2);not null;default:0" json:"total_price"`
	DeliveryTime       string          `gorm:"column:delivery_time;not null;default:''" json:"delivery_time"`
	Remarks            string          `gorm:"column:remarks;not null;default:''" json:"remarks"`
}
