// Package landing loads the documents of the public landing page.
package landing

import (
	"errors"

	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
)

// ErrNoMessage is returned when no director message exists.
var ErrNoMessage = errors.New("message not found")

// FoundationSummary is the short form of a foundation shown on the landing page.
type FoundationSummary struct {
	ID      uint64 `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logoUrl"`
}

// Foundations wraps the summaries the way the landing page reads them.
type Foundations struct {
	Foundations []FoundationSummary `json:"foundations"`
}

// Banners returns every banner by position.
func Banners(db *gorm.DB) ([]models.Banner, error) {
	out := []models.Banner{}
	err := db.Order("sort_order ASC, id ASC").Find(&out).Error

	return out, err
}

// LatestMessage returns the newest director message.
func LatestMessage(db *gorm.DB) (*models.DirectorMessage, error) {
	var m models.DirectorMessage

	err := db.Order("created_at DESC, id DESC").First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoMessage
	}

	if err != nil {
		return nil, err
	}

	return &m, nil
}

// Cards returns every card by position.
func Cards(db *gorm.DB) ([]models.Card, error) {
	out := []models.Card{}
	err := db.Order("sort_order ASC, id ASC").Find(&out).Error

	return out, err
}

// FoundationList returns the summaries of every foundation by position.
func FoundationList(db *gorm.DB) (Foundations, error) {
	out := Foundations{Foundations: []FoundationSummary{}}
	err := db.Model(&models.Foundation{}).
		Select("id", "name", "logo_url").
		Order("sort_order ASC, id ASC").
		Scan(&out.Foundations).Error

	return out, err
}

// GopalPariwar returns every member profile by position.
func GopalPariwar(db *gorm.DB) ([]models.GopalPariwarMember, error) {
	out := []models.GopalPariwarMember{}
	err := db.Order("sort_order ASC, id ASC").Find(&out).Error

	return out, err
}
