package enums

import (
	"fmt"
	"strings"
)

// QueryStatus is the workflow state of a sales enquiry. Soft deletion is
// tracked separately on the row and is not a status.
type QueryStatus string

const (
	QueryStatusPending   QueryStatus = "pending"
	QueryStatusSubmitted QueryStatus = "submitted"
)

var validQueryStatuses = []QueryStatus{
	QueryStatusPending,
	QueryStatusSubmitted,
}

// String implements fmt.Stringer.
func (s QueryStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known QueryStatus.
func (s QueryStatus) IsValid() bool {
	for _, candidate := range validQueryStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseQueryStatus converts raw input into a QueryStatus.
func ParseQueryStatus(value string) (QueryStatus, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validQueryStatuses {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid query status %q", value)
}
