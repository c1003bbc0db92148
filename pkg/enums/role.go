package enums

import (
	"fmt"
	"strings"
)

// Role is the coarse account type. Admins bypass permission checks.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

var validRoles = []Role{RoleAdmin, RoleUser}

func (r Role) String() string {
	return string(r)
}

func (r Role) IsValid() bool {
	for _, candidate := range validRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRole converts raw input into a Role; empty input yields RoleUser.
func ParseRole(value string) (Role, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return RoleUser, nil
	}
	for _, candidate := range validRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid role %q", value)
}

// Permission names one area of the workflow a user may operate on.
type Permission string

const (
	PermissionQueries        Permission = "queries"
	PermissionQuotations     Permission = "quotations"
	PermissionPurchaseOrders Permission = "purchase_orders"
	PermissionInvoices       Permission = "invoices"
	PermissionAdmin          Permission = "admin"
)

var validPermissions = []Permission{
	PermissionQueries,
	PermissionQuotations,
	PermissionPurchaseOrders,
	PermissionInvoices,
	PermissionAdmin,
}

// AllPermissions returns every known permission in declaration order.
func AllPermissions() []Permission {
	out := make([]Permission, len(validPermissions))
	copy(out, validPermissions)
	return out
}

func (p Permission) String() string {
	return string(p)
}

func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}
