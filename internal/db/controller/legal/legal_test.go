package legal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/dbtest"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t)
}

func TestLoadMissing(t *testing.T) {
	db := setupTestDB(t)

	doc, err := Load(db, SettingKeyPrivacyPolicy)
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestSaveReplacesAndSorts(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, Save(db, SettingKeyTermsConditions, &Document{
		Title:    "Old",
		Sections: []Section{{Title: "a", Content: "a", Order: 1}},
	}))

	require.NoError(t, Save(db, SettingKeyTermsConditions, &Document{
		Title:   "Terms",
		Contact: Contact{Email: "info@example.org"},
		Sections: []Section{
			{Title: "second", Content: "2", Order: 2},
			{Title: "first", Content: "1", Order: 1},
		},
	}))

	doc, err := Load(db, SettingKeyTermsConditions)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "Terms", doc.Title)
	assert.Equal(t, "info@example.org", doc.Contact.Email)
	assert.False(t, doc.LastUpdated.IsZero())
	require.Len(t, doc.Sections, 2)
	assert.Equal(t, "first", doc.Sections[0].Title)

	other, err := Load(db, SettingKeyPrivacyPolicy)
	require.NoError(t, err)
	assert.Nil(t, other)
}
