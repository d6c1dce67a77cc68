package news

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopalparivar/dhenu-mahima/internal/db/dbtest"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Gau Seva Camp 2025", want: "gau-seva-camp-2025"},
		{in: "  Hello,   World!  ", want: "hello-world"},
		{in: "a -- b", want: "a-b"},
		{in: "गौ सेवा", want: ""},
		{in: "--edge--", want: "edge"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestUniqueSlug(t *testing.T) {
	db := dbtest.Open(t)

	first := models.News{Title: "t", TitleEn: "Gau Katha", Slug: "gau-katha", Excerpt: "e", Category: "c", Date: "d", ReadTime: "1"}
	require.NoError(t, db.Create(&first).Error)

	slug, err := UniqueSlug(db, "Gau Katha", 0)
	require.NoError(t, err)
	assert.Equal(t, "gau-katha-1", slug)

	second := models.News{Title: "t", TitleEn: "Gau Katha", Slug: slug, Excerpt: "e", Category: "c", Date: "d", ReadTime: "1"}
	require.NoError(t, db.Create(&second).Error)

	slug, err = UniqueSlug(db, "Gau Katha", 0)
	require.NoError(t, err)
	assert.Equal(t, "gau-katha-2", slug)

	slug, err = UniqueSlug(db, "Gau Katha", first.ID)
	require.NoError(t, err)
	assert.Equal(t, "gau-katha", slug)

	slug, err = UniqueSlug(db, "गौ कथा", 0)
	require.NoError(t, err)
	assert.Equal(t, "news", slug)
}
