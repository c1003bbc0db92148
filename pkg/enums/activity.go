package enums

import "fmt"

// ActivityAction is the verb recorded in the audit trail.
type ActivityAction string

const (
	ActivityActionCreate       ActivityAction = "create"
	ActivityActionUpdate       ActivityAction = "update"
	ActivityActionDelete       ActivityAction = "delete"
	ActivityActionExport       ActivityAction = "export"
	ActivityActionBackup       ActivityAction = "backup"
	ActivityActionAutoBackup   ActivityAction = "auto_backup"
	ActivityActionApprove      ActivityAction = "approve"
	ActivityActionStatusChange ActivityAction = "status_change"
	ActivityActionLogin        ActivityAction = "login"
	ActivityActionLogout       ActivityAction = "logout"
)

var validActivityActions = []ActivityAction{
	ActivityActionCreate,
	ActivityActionUpdate,
	ActivityActionDelete,
	ActivityActionExport,
	ActivityActionBackup,
	ActivityActionAutoBackup,
	ActivityActionApprove,
	ActivityActionStatusChange,
	ActivityActionLogin,
	ActivityActionLogout,
}

func (a ActivityAction) String() string {
	return string(a)
}

func (a ActivityAction) IsValid() bool {
	for _, candidate := range validActivityActions {
		if candidate == a {
			return true
		}
	}
	return false
}

func ParseActivityAction(value string) (ActivityAction, error) {
	for _, candidate := range validActivityActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid activity action %q", value)
}

// EntityType identifies which kind of record an activity entry refers to.
type EntityType string

const (
	EntityTypeQuery         EntityType = "query"
	EntityTypeQuotation     EntityType = "quotation"
	EntityTypePurchaseOrder EntityType = "purchase_order"
	EntityTypeInvoice       EntityType = "invoice"
	EntityTypeUser          EntityType = "user"
	EntityTypeSystem        EntityType = "system"
)

var validEntityTypes = []EntityType{
	EntityTypeQuery,
	EntityTypeQuotation,
	EntityTypePurchaseOrder,
	EntityTypeInvoice,
	EntityTypeUser,
	EntityTypeSystem,
}

func (e EntityType) String() string {
	return string(e)
}

func (e EntityType) IsValid() bool {
	for _, candidate := range validEntityTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntityType accepts the canonical names plus the plural route
// segments used by the HTTP API ("queries", "purchase-orders", ...).
func ParseEntityType(value string) (EntityType, error) {
	switch value {
	case "queries":
		return EntityTypeQuery, nil
	case "quotations":
		return EntityTypeQuotation, nil
	case "purchase-orders", "purchase_orders":
		return EntityTypePurchaseOrder, nil
	case "invoices":
		return EntityTypeInvoice, nil
	case "users":
		return EntityTypeUser, nil
	}
	for _, candidate := range validEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity type %q", value)
}
