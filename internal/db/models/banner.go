package models

import "time"

// Banner is a slide of the landing page carousel.
type Banner struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255" json:"title"`
	ImageURL  string    `gorm:"size:500;not null" json:"imageUrl"`
	ImagePath string    `gorm:"size:500" json:"-"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0;index" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DirectorMessage is the quote shown on the landing page, the latest one wins.
type DirectorMessage struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Info      string    `gorm:"type:text;not null" json:"info"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Card is a link tile of the landing page.
type Card struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	TitleEn   string    `gorm:"size:255" json:"titleEn"`
	Link      string    `gorm:"size:500;not null" json:"link"`
	Image     string    `gorm:"size:500" json:"image"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0;index" json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
