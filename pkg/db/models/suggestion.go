package models

import "github.com/nsets/erp-backend/pkg/enums"

// Suggestion is one distinct autocomplete value in a pool.
type Suggestion struct {
	ID    int64                `gorm:"column:id;primaryKey;autoIncrement"`
	Kind  enums.SuggestionKind `gorm:"column:kind;not null;uniqueIndex:ux_suggestions_kind_value"`
	Value string               `gorm:"column:value;not null;uniqueIndex:ux_suggestions_kind_value"`
}
