package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx returns a Base bound to tx, or b itself when tx is nil.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// ReplaceChildren deletes every T whose parentColumn equals parentID and
// inserts rows in their place. Callers run it inside a transaction so the
// document never exposes a partial item list.
func ReplaceChildren[T any](ctx context.Context, db *gorm.DB, parentColumn string, parentID int64, rows []T) error {
	var zero T
	if err := db.WithContext(ctx).Where(parentColumn+" = ?", parentID).Delete(&zero).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&rows).Error
}

// DeleteChildren removes every T whose parentColumn is one of parentIDs.
func DeleteChildren[T any](ctx context.Context, db *gorm.DB, parentColumn string, parentIDs []int64) error {
	if len(parentIDs) == 0 {
		return nil
	}
	var zero T
	return db.WithContext(ctx).Where(parentColumn+" IN ?", parentIDs).Delete(&zero).Error
}
