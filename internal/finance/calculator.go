// Package finance derives line and document totals. All results are rounded
// to two decimal places, half away from zero.
package finance

import (
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/shopspring/decimal"
)

const moneyPlaces = 2

// GSTRate is applied to local quotations and to invoices.
var GSTRate = decimal.RequireFromString("0.18")

// Line is the priced portion of any document item.
type Line struct {
	Quantity  int
	UnitPrice decimal.Decimal
}

// Round rounds a monetary amount to cents.
func Round(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(moneyPlaces)
}

// LineTotal prices a line from the unit price rounded to cents, the value
// items store, so recomputing from a stored row gives the stored total.
func LineTotal(quantity int, unitPrice decimal.Decimal) decimal.Decimal {
	return Round(decimal.NewFromInt(int64(quantity)).Mul(Round(unitPrice)))
}

// Subtotal sums the rounded line totals.
func Subtotal(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(LineTotal(line.Quantity, line.UnitPrice))
	}
	return Round(total)
}

// QuotationSurcharge is GST for local quotations and the manually entered
// freight for every other type.
func QuotationSurcharge(subtotal decimal.Decimal, quotationType enums.QuotationType, manualFreight decimal.Decimal) decimal.Decimal {
	if quotationType.IsLocal() {
		return Round(subtotal.Mul(GSTRate))
	}
	return Round(manualFreight)
}

func GrandTotal(subtotal, surcharge decimal.Decimal) decimal.Decimal {
	return Round(subtotal.Add(surcharge))
}

// SupplierUnitPrice converts a supplier's price into the selling unit price.
func SupplierUnitPrice(supplierPrice, profitFactor, exchangeRate decimal.Decimal) decimal.Decimal {
	return Round(supplierPrice.Mul(profitFactor).Mul(exchangeRate))
}

// SupplierUnitPriceFrom returns the derived price when all three inputs are
// present.
func SupplierUnitPriceFrom(supplierPrice, profitFactor, exchangeRate decimal.NullDecimal) decimal.NullDecimal {
	if !supplierPrice.Valid || !profitFactor.Valid || !exchangeRate.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(SupplierUnitPrice(supplierPrice.Decimal, profitFactor.Decimal, exchangeRate.Decimal))
}

type QuotationTotals struct {
	TotalWithoutGST decimal.Decimal
	Surcharge       decimal.Decimal
	GrandTotal      decimal.Decimal
}

func ComputeQuotationTotals(lines []Line, quotationType enums.QuotationType, manualFreight decimal.Decimal) QuotationTotals {
	subtotal := Subtotal(lines)
	surcharge := QuotationSurcharge(subtotal, quotationType, manualFreight)
	return QuotationTotals{
		TotalWithoutGST: subtotal,
		Surcharge:       surcharge,
		GrandTotal:      GrandTotal(subtotal, surcharge),
	}
}

type PurchaseOrderTotals struct {
	TotalPrice     decimal.Decimal
	FreightCharges decimal.Decimal
	GrandTotal     decimal.Decimal
}

func ComputePurchaseOrderTotals(lines []Line, freight decimal.Decimal) PurchaseOrderTotals {
	total := Subtotal(lines)
	freight = Round(freight)
	return PurchaseOrderTotals{
		TotalPrice:     total,
		FreightCharges: freight,
		GrandTotal:     GrandTotal(total, freight),
	}
}

type InvoiceTotals struct {
	TotalWithoutGST decimal.Decimal
	GSTAmount       decimal.Decimal
	GrandTotal      decimal.Decimal
}

// ComputeInvoiceTotals always applies GST.
func ComputeInvoiceTotals(lines []Line) InvoiceTotals {
	subtotal := Subtotal(lines)
	gst := Round(subtotal.Mul(GSTRate))
	return InvoiceTotals{
		TotalWithoutGST: subtotal,
		GSTAmount:       gst,
		GrandTotal:      GrandTotal(subtotal, gst),
	}
}

// ValidateLine reports the first problem with a line, or "" when it is usable.
func ValidateLine(line Line) string {
	if line.Quantity < 0 {
		return "quantity must not be negative"
	}
	if line.UnitPrice.IsNegative() {
		return "unit_price must not be negative"
	}
	return ""
}

// ValidateLines wraps the first failing line as a validation error.
func ValidateLines(lines []Line) error {
	for i, line := range lines {
		if problem := ValidateLine(line); problem != "" {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: %s", i+1, problem)
		}
	}
	return nil
}
