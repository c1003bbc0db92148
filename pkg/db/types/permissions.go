package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nsets/erp-backend/pkg/enums"
)

// Permissions is the fixed per-user capability set, persisted as a JSON
// object ({"queries":true,...}).
type Permissions struct {
	Queries        bool `json:"queries"`
	Quotations     bool `json:"quotations"`
	PurchaseOrders bool `json:"purchase_orders"`
	Invoices       bool `json:"invoices"`
	Admin          bool `json:"admin"`
}

// DefaultPermissions is granted to newly created non-admin users.
func DefaultPermissions() Permissions {
	return Permissions{Queries: true}
}

// FullPermissions grants every capability.
func FullPermissions() Permissions {
	return Permissions{
		Queries:        true,
		Quotations:     true,
		PurchaseOrders: true,
		Invoices:       true,
		Admin:          true,
	}
}

// Has reports whether the flag for perm is set.
func (p Permissions) Has(perm enums.Permission) bool {
	switch perm {
	case enums.PermissionQueries:
		return p.Queries
	case enums.PermissionQuotations:
		return p.Quotations
	case enums.PermissionPurchaseOrders:
		return p.PurchaseOrders
	case enums.PermissionInvoices:
		return p.Invoices
	case enums.PermissionAdmin:
		return p.Admin
	default:
		return false
	}
}

func (p *Permissions) Scan(src any) error {
	if src == nil {
		*p = Permissions{}
		return nil
	}

	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("Permissions: unsupported Scan type %T", src)
	}

	if strings.TrimSpace(string(raw)) == "" {
		*p = Permissions{}
		return nil
	}

	var decoded Permissions
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("Permissions: decode: %w", err)
	}
	*p = decoded
	return nil
}

func (p Permissions) Value() (driver.Value, error) {
	encoded, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(encoded), nil
}
