package enums

import "fmt"

// SuggestionKind names one autocomplete pool learned from query input.
type SuggestionKind string

const (
	SuggestionKindOrg      SuggestionKind = "org"
	SuggestionKindClient   SuggestionKind = "client"
	SuggestionKindSupplier SuggestionKind = "supplier"
)

var validSuggestionKinds = []SuggestionKind{
	SuggestionKindOrg,
	SuggestionKindClient,
	SuggestionKindSupplier,
}

func (k SuggestionKind) String() string {
	return string(k)
}

func (k SuggestionKind) IsValid() bool {
	for _, candidate := range validSuggestionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func ParseSuggestionKind(value string) (SuggestionKind, error) {
	for _, candidate := range validSuggestionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid suggestion type %q", value)
}
