package suggestions

import (
	"context"

	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Merge(ctx context.Context, kind enums.SuggestionKind, values []string) error
	List(ctx context.Context, kind enums.SuggestionKind) ([]string, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Merge inserts values that are not yet in the pool and ignores the rest.
func (r *repository) Merge(ctx context.Context, kind enums.SuggestionKind, values []string) error {
	if len(values) == 0 {
		return nil
	}
	rows := make([]models.Suggestion, 0, len(values))
	for _, v := range values {
		rows = append(rows, models.Suggestion{Kind: kind, Value: v})
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error
}

func (r *repository) List(ctx context.Context, kind enums.SuggestionKind) ([]string, error) {
	var values []string
	err := r.db.WithContext(ctx).
		Model(&models.Suggestion{}).
		Where("kind = ?", kind).
		Order("value ASC").
		Pluck("value", &values).Error
	if err != nil {
		return nil, err
	}
	return values, nil
}
