// Package ordering maintains the manual sort order of listed rows (banners, cards, foundations, members).
// Every ordered model keeps its position in the sort_order column.
package ordering

import (
	"errors"

	"gorm.io/gorm"
)

const column = "sort_order"

var (
	// ErrEmptyList is returned when a reorder request carries no items.
	ErrEmptyList = errors.New("order list is empty")
	// ErrInvalidItem is returned when a reorder item has no id or a negative order.
	ErrInvalidItem = errors.New("order list item is invalid")
)

// Item is the new position of one row.
type Item struct {
	ID    uint64 `json:"id"    validate:"required"`
	Order int    `json:"order" validate:"gte=0"`
}

// Next returns the position after the last row of model.
func Next(db *gorm.DB, model interface{}) (int, error) {
	var last int
	if err := db.Model(model).Select("COALESCE(MAX(" + column + "), 0)").Scan(&last).Error; err != nil {
		return 0, err
	}

	return last + 1, nil
}

// Apply writes every item position in one transaction.
func Apply(db *gorm.DB, model interface{}, items []Item) error {
	if len(items) == 0 {
		return ErrEmptyList
	}

	for _, it := range items {
		if it.ID == 0 || it.Order < 0 {
			return ErrInvalidItem
		}
	}

	return db.Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			if err := tx.Model(model).Where("id = ?", it.ID).Update(column, it.Order).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Shift moves the siblings of a row that goes from position from to position to.
// Moving up pushes the rows in [to, from) one down, moving down pulls the rows in (from, to] one up.
// The moved row itself must be updated by the caller within the same transaction.
func Shift(tx *gorm.DB, model interface{}, id uint64, from, to int) error {
	switch {
	case to < from:
		return tx.Model(model).
			Where("id <> ? AND "+column+" >= ? AND "+column+" < ?", id, to, from).
			Update(column, gorm.Expr(column+" + 1")).Error
	case to > from:
		return tx.Model(model).
			Where("id <> ? AND "+column+" > ? AND "+column+" <= ?", id, from, to).
			Update(column, gorm.Expr(column+" - 1")).Error
	default:
		return nil
	}
}

// Close pulls every row after the removed position one up.
func Close(tx *gorm.DB, model interface{}, removed int) error {
	return tx.Model(model).
		Where(column+" > ?", removed).
		Update(column, gorm.Expr(column+" - 1")).Error
}
