// Package event removes events whose end date has passed.
package event

import (
	"time"

	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
)

// Midnight returns the start of the local day of t.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Expired reports whether e ended before the day of now.
func Expired(e *models.Event, now time.Time) bool {
	return e.EndDate.Before(Midnight(now))
}

// DeleteExpired removes every event that ended before the day of now and returns how many were removed.
func DeleteExpired(db *gorm.DB, now time.Time) (int64, error) {
	result := db.Where("end_date < ?", Midnight(now)).Delete(&models.Event{})
	return result.RowsAffected, result.Error
}
