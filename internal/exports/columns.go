package exports

import (
	"strconv"

	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

// Column describes one spreadsheet column. Width is in character units.
type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
	Width  int    `json:"width"`
}

type columnDef[T any] struct {
	Column
	value func(T) string
}

// ActiveColumns keeps the columns for which at least one item has a value and
// renders the rows for them.
func ActiveColumns[T any](defs []columnDef[T], items []T) ([]Column, [][]string) {
	active := make([]columnDef[T], 0, len(defs))
	for _, def := range defs {
		for _, item := range items {
			if def.value(item) != "" {
				active = append(active, def)
				break
			}
		}
	}

	columns := make([]Column, 0, len(active))
	for _, def := range active {
		columns = append(columns, def.Column)
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		row := make([]string, 0, len(active))
		for _, def := range active {
			row = append(row, def.value(item))
		}
		rows = append(rows, row)
	}
	return columns, rows
}

func col[T any](key, header string, width int, value func(T) string) columnDef[T] {
	return columnDef[T]{Column: Column{Key: key, Header: header, Width: width}, value: value}
}

func itoa(v int) string { return strconv.Itoa(v) }

func money(v decimal.Decimal) string { return v.StringFixed(2) }

// nonZeroMoney treats 0.00 as blank, matching purchase order sheets.
func nonZeroMoney(v decimal.Decimal) string {
	if v.IsZero() {
		return ""
	}
	return v.StringFixed(2)
}

func optional(v decimal.NullDecimal) string {
	if !v.Valid {
		return ""
	}
	return v.Decimal.String()
}

var queryColumns = []columnDef[models.QueryItem]{
	col("serial_number", "Serial#", 10, func(i models.QueryItem) string { return itoa(i.SerialNumber) }),
	col("manufacturer_number", "Manufacturer#", 15, func(i models.QueryItem) string { return i.ManufacturerNumber }),
	col("stockist_number", "Stockist#", 15, func(i models.QueryItem) string { return i.StockistNumber }),
	col("coo", "COO", 12, func(i models.QueryItem) string { return i.COO }),
	col("brand", "Brand", 12, func(i models.QueryItem) string { return i.Brand }),
	col("description", "Description", 30, func(i models.QueryItem) string { return i.Description }),
	col("au", "A/U", 10, func(i models.QueryItem) string { return i.AU }),
	col("quantity", "Quantity", 10, func(i models.QueryItem) string { return itoa(i.Quantity) }),
	col("remarks", "Remarks", 20, func(i models.QueryItem) string { return i.Remarks }),
}

var quotationColumns = []columnDef[models.QuotationItem]{
	col("serial_number", "Serial#", 10, func(i models.QuotationItem) string { return itoa(i.SerialNumber) }),
	col("manufacturer_number", "Manufacturer#", 15, func(i models.QuotationItem) string { return i.ManufacturerNumber }),
	col("stockist_number", "Stockist#", 15, func(i models.QuotationItem) string { return i.StockistNumber }),
	col("coo", "COO", 12, func(i models.QuotationItem) string { return i.COO }),
	col("brand", "Brand", 12, func(i models.QuotationItem) string { return i.Brand }),
	col("description", "Description", 30, func(i models.QuotationItem) string { return i.Description }),
	col("au", "A/U", 10, func(i models.QuotationItem) string { return i.AU }),
	col("quantity", "Quantity", 10, func(i models.QuotationItem) string { return itoa(i.Quantity) }),
	col("unit_price", "U/P", 12, func(i models.QuotationItem) string { return money(i.UnitPrice) }),
	col("total_price", "T/P", 12, func(i models.QuotationItem) string { return money(i.TotalPrice) }),
	col("supplier_price", "Supplier Price", 15, func(i models.QuotationItem) string { return optional(i.SupplierPrice) }),
	col("profit_factor", "Profit Factor", 15, func(i models.QuotationItem) string { return optional(i.ProfitFactor) }),
	col("exchange_rate", "Exchange Rate", 15, func(i models.QuotationItem) string { return optional(i.ExchangeRate) }),
	col("supplier_up", "Supplier U/P", 15, func(i models.QuotationItem) string { return optional(i.SupplierUP) }),
}

var purchaseOrderColumns = []columnDef[models.PurchaseOrderItem]{
	col("serial_number", "Sr No.", 10, func(i models.PurchaseOrderItem) string { return itoa(i.SerialNumber) }),
	col("manufacturer_number", "Manufacturer#", 15, func(i models.PurchaseOrderItem) string { return i.ManufacturerNumber }),
	col("stockist_number", "Stockist#", 15, func(i models.PurchaseOrderItem) string { return i.StockistNumber }),
	col("coo", "COO", 12, func(i models.PurchaseOrderItem) string { return i.COO }),
	col("brand", "Brand", 12, func(i models.PurchaseOrderItem) string { return i.Brand }),
	col("description", "Description", 30, func(i models.PurchaseOrderItem) string { return i.Description }),
	col("au", "A/U", 10, func(i models.PurchaseOrderItem) string { return i.AU }),
	col("quantity", "Quantity", 10, func(i models.PurchaseOrderItem) string { return itoa(i.Quantity) }),
	col("unit_price", "U/P", 12, func(i models.PurchaseOrderItem) string { return nonZeroMoney(i.UnitPrice) }),
	col("total_price", "T/P", 12, func(i models.PurchaseOrderItem) string { return nonZeroMoney(i.TotalPrice) }),
	col("delivery_time", "Delivery Time", 15, func(i models.PurchaseOrderItem) string { return i.DeliveryTime }),
	col("remarks", "Remarks", 20, func(i models.PurchaseOrderItem) string { return i.Remarks }),
}

var invoiceColumns = []columnDef[models.InvoiceItem]{
	col("serial_number", "Serial#", 10, func(i models.InvoiceItem) string { return itoa(i.SerialNumber) }),
	col("manufacturer_number", "Manufacturer#", 15, func(i models.InvoiceItem) string { return i.ManufacturerNumber }),
	col("stockist_number", "Stockist#", 15, func(i models.InvoiceItem) string { return i.StockistNumber }),
	col("coo", "COO", 12, func(i models.InvoiceItem) string { return i.COO }),
	col("brand", "Brand", 12, func(i models.InvoiceItem) string { return i.Brand }),
	col("description", "Description", 30, func(i models.InvoiceItem) string { return i.Description }),
	col("au", "A/U", 10, func(i models.InvoiceItem) string { return i.AU }),
	col("quantity", "Quantity", 10, func(i models.InvoiceItem) string { return itoa(i.Quantity) }),
	col("unit_price", "U/P", 12, func(i models.InvoiceItem) string { return money(i.UnitPrice) }),
	col("total_price", "T/P", 12, func(i models.InvoiceItem) string { return money(i.TotalPrice) }),
	col("supplier_up", "Supplier U/P", 15, func(i models.InvoiceItem) string { return optional(i.SupplierUP) }),
	col("profit_factor", "Profit Factor", 15, func(i models.InvoiceItem) string { return optional(i.ProfitFactor) }),
	col("exchange_rate", "Exchange Rate", 15, func(i models.InvoiceItem) string { return optional(i.ExchangeRate) }),
	col("calculated_price", "Calculated Price", 15, func(i models.InvoiceItem) string { return optional(i.CalculatedPrice) }),
}
