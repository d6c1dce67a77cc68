package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopalparivar/dhenu-mahima/internal/db/dbtest"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
)

func TestExpired(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want bool
	}{
		{name: "yesterday", end: now.AddDate(0, 0, -1), want: true},
		{name: "earlier today", end: time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC), want: false},
		{name: "tomorrow", end: now.AddDate(0, 0, 1), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expired(&models.Event{EndDate: tt.end}, now))
		})
	}
}

func TestDeleteExpired(t *testing.T) {
	db := dbtest.Open(t)
	now := time.Now()

	past := models.Event{Title: "past", StartDate: now.AddDate(0, 0, -5), EndDate: now.AddDate(0, 0, -3),
		Location: "Jaipur", Duration: "1 day", Color: models.DefaultEventColor}
	future := models.Event{Title: "future", StartDate: now, EndDate: now.AddDate(0, 0, 2),
		Location: "Jaipur", Duration: "2 days", Color: models.DefaultEventColor}
	require.NoError(t, db.Create(&past).Error)
	require.NoError(t, db.Create(&future).Error)

	n, err := DeleteExpired(db, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var left []models.Event
	require.NoError(t, db.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "future", left[0].Title)
}
