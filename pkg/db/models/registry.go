package models

// All lists every persisted model. SQLite development databases and tests
// build their schema from it; Postgres uses the goose migrations.
func All() []any {
	return []any{
		&User{},
		&Query{},
		&QueryItem{},
		&SupplierResponse{},
		&Quotation{},
		&QuotationItem{},
		&PurchaseOrder{},
		&PurchaseOrderItem{},
		&Invoice{},
		&InvoiceItem{},
		&ActivityLog{},
		&Suggestion{},
	}
}
