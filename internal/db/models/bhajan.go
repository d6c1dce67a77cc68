package models

import "time"

// Bhajan collections.
const (
	CollectionGaumata    = "gaumata"
	CollectionJevansutra = "jevansutra"
)

// Category groups gaumata bhajans.
type Category struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Bhajan is a devotional audio track of one of the collections.
type Bhajan struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	Collection string    `gorm:"size:20;not null;index" json:"collection"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Artist     string    `gorm:"size:255;not null" json:"artist"`
	Album      string    `gorm:"size:255" json:"album"`
	Duration   string    `gorm:"size:20" json:"duration"`
	AudioURL   string    `gorm:"size:500;not null" json:"audioUrl"`
	AudioPath  string    `gorm:"size:500;not null" json:"-"`
	ImageURL   string    `gorm:"size:500" json:"imageUrl"`
	ImagePath  string    `gorm:"size:500" json:"-"`
	CategoryID *uint64   `gorm:"index" json:"categoryId"`
	Category   *Category `gorm:"constraint:OnDelete:RESTRICT" json:"category,omitempty"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
