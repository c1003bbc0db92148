package enums

import (
	"fmt"
	"strings"
)

// QuotationType decides how the surcharge on a quotation is derived:
// local quotations carry GST, the others carry manually entered freight.
type QuotationType string

const (
	QuotationTypeLocal   QuotationType = "local"
	QuotationTypeForeign QuotationType = "foreign"
	QuotationTypeImport  QuotationType = "import"
)

var validQuotationTypes = []QuotationType{
	QuotationTypeLocal,
	QuotationTypeForeign,
	QuotationTypeImport,
}

func (t QuotationType) String() string {
	return string(t)
}

func (t QuotationType) IsValid() bool {
	for _, candidate := range validQuotationTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsLocal reports whether GST applies.
func (t QuotationType) IsLocal() bool {
	return t == QuotationTypeLocal
}

// ParseQuotationType converts raw input into a QuotationType. Empty input
// yields the local default.
func ParseQuotationType(value string) (QuotationType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return QuotationTypeLocal, nil
	}
	for _, candidate := range validQuotationTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quotation type %q", value)
}

// Document currencies default per document kind.
const (
	DefaultQuotationCurrency     = "USD"
	DefaultPurchaseOrderCurrency = "INR"
)
