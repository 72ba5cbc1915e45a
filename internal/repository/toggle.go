package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Toggle flips the existence of the relationship row identified by key and
// reports whether it is present afterwards. The row is deleted if it exists;
// otherwise row is inserted. Uniqueness of key must be enforced by the store:
// an insert that loses a race to a concurrent insert is a no-op and still
// reports present, so the pair never gains a second row.
func Toggle[T any](ctx context.Context, db *gorm.DB, row *T, key map[string]interface{}) (bool, error) {
	var present bool
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where(key).Delete(new(T))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			present = false
			return nil
		}

		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
			return err
		}
		present = true
		return nil
	})
	return present, err
}
