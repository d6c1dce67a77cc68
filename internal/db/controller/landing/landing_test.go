package landing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/dbtest"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t)
}

func TestOrdering(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.Create(&models.Banner{Title: "b", ImageURL: "u2", SortOrder: 2}).Error)
	require.NoError(t, db.Create(&models.Banner{Title: "a", ImageURL: "u1", SortOrder: 1}).Error)
	require.NoError(t, db.Create(&models.Card{Title: "y", Link: "/y", SortOrder: 5}).Error)
	require.NoError(t, db.Create(&models.Card{Title: "x", Link: "/x", SortOrder: 0}).Error)
	require.NoError(t, db.Create(&models.Foundation{Name: "Second", LogoURL: "l2", SortOrder: 2}).Error)
	require.NoError(t, db.Create(&models.Foundation{Name: "First", LogoURL: "l1", SortOrder: 1}).Error)

	banners, err := Banners(db)
	require.NoError(t, err)
	require.Len(t, banners, 2)
	assert.Equal(t, "a", banners[0].Title)

	cards, err := Cards(db)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, "x", cards[0].Title)

	f, err := FoundationList(db)
	require.NoError(t, err)
	require.Len(t, f.Foundations, 2)
	assert.Equal(t, FoundationSummary{ID: f.Foundations[0].ID, Name: "First", LogoURL: "l1"}, f.Foundations[0])
}

func TestLatestMessage(t *testing.T) {
	db := setupTestDB(t)

	_, err := LatestMessage(db)
	require.ErrorIs(t, err, ErrNoMessage)

	now := time.Now()
	require.NoError(t, db.Create(&models.DirectorMessage{Info: "old", CreatedAt: now.Add(-time.Hour)}).Error)
	require.NoError(t, db.Create(&models.DirectorMessage{Info: "new", CreatedAt: now}).Error)

	m, err := LatestMessage(db)
	require.NoError(t, err)
	assert.Equal(t, "new", m.Info)
}

func TestEmptyListsAreNotNil(t *testing.T) {
	db := setupTestDB(t)

	members, err := GopalPariwar(db)
	require.NoError(t, err)
	assert.NotNil(t, members)
	assert.Empty(t, members)
}
