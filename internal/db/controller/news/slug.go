// Package news holds the query helpers of news articles.
package news

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
)

// fallbackSlug is used when a title has no latin letters or digits.
const fallbackSlug = "news"

//nolint:gochecknoglobals
var (
	spaces     = regexp.MustCompile(`\s+`)
	nonWord    = regexp.MustCompile(`[^a-z0-9_\-]+`)
	dashes     = regexp.MustCompile(`-{2,}`)
	edgeDashes = regexp.MustCompile(`^-+|-+$`)
)

// Slugify lower-cases text, joins words with dashes and drops everything but [a-z0-9_-].
func Slugify(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = spaces.ReplaceAllString(s, "-")
	s = nonWord.ReplaceAllString(s, "")
	s = dashes.ReplaceAllString(s, "-")

	return edgeDashes.ReplaceAllString(s, "")
}

// UniqueSlug returns the slug of title, suffixed with -1, -2 ... until no other article uses it.
// The article with id exceptID may keep its own slug, pass 0 for new articles.
func UniqueSlug(db *gorm.DB, title string, exceptID uint64) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = fallbackSlug
	}

	candidate := base
	for n := 1; ; n++ {
		var existing models.News
		err := db.Select("id").Where("slug = ?", candidate).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		if exceptID != 0 && existing.ID == exceptID {
			return candidate, nil
		}

		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
