// Package legal stores the privacy policy and the terms and conditions pages.
package legal

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/controller/setting"
)

const (
	// SettingKeyPrivacyPolicy is the setting holding the privacy policy.
	SettingKeyPrivacyPolicy = "privacy_policy"
	// SettingKeyTermsConditions is the setting holding the terms and conditions.
	SettingKeyTermsConditions = "terms_conditions"
)

type (
	// Contact is the contact block printed below a legal page.
	Contact struct {
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		PhoneHours string `json:"phoneHours"`
		Address    string `json:"address"`
	}

	// Section is a titled paragraph of a legal page.
	Section struct {
		Title   string `json:"title"   validate:"required"`
		Content string `json:"content" validate:"required"`
		Order   int    `json:"order"`
	}

	// Document is a complete legal page.
	Document struct {
		Title       string    `json:"title"`
		Subtitle    string    `json:"subtitle"`
		LastUpdated time.Time `json:"lastUpdated"`
		Contact     Contact   `json:"contact"`
		Sections    []Section `json:"sections" validate:"dive"`
	}
)

// Load returns the document stored under key, nil when it was never saved.
func Load(db *gorm.DB, key string) (*Document, error) {
	var doc Document
	if err := setting.Load(db, key, &doc); err != nil {
		if errors.Is(err, setting.ErrSettingNotFound) {
			return nil, nil //nolint:nilnil
		}
		return nil, err
	}

	doc.sortSections()

	return &doc, nil
}

// Save replaces the document stored under key.
// A zero LastUpdated is set to now.
func Save(db *gorm.DB, key string, doc *Document) error {
	if doc.LastUpdated.IsZero() {
		doc.LastUpdated = time.Now()
	}
	if doc.Sections == nil {
		doc.Sections = []Section{}
	}

	doc.sortSections()

	return setting.Save(db, key, doc)
}

func (d *Document) sortSections() {
	sort.SliceStable(d.Sections, func(i, j int) bool {
		return d.Sections[i].Order < d.Sections[j].Order
	})
}
