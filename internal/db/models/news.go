package models

import "time"

// News is an article of the news section.
type News struct {
	// ID is the unique identifier.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Title is the headline in Hindi.
	Title string `gorm:"size:500;not null" json:"title"`
	// TitleEn is the english headline, the slug is derived from it.
	TitleEn string `gorm:"size:500;not null" json:"titleEn"`
	// Slug is the unique url fragment.
	Slug string `gorm:"uniqueIndex;size:255;not null" json:"slug"`
	// Excerpt is the teaser text.
	Excerpt string `gorm:"type:text;not null" json:"excerpt"`
	// Content is the structured article body as produced by the editor.
	Content JSON `json:"content"`
	// Category groups related articles.
	Category string `gorm:"size:100;not null;index" json:"category"`
	// Date is the publication date as shown to readers.
	Date string `gorm:"size:50;not null" json:"date"`
	// ReadTime is the estimated reading time, e.g. "5 min".
	ReadTime string `gorm:"size:50;not null" json:"readTime"`
	// Featured marks articles for the front page.
	Featured bool `gorm:"not null;default:false;index" json:"featured"`
	// Tags are free keywords.
	Tags StringList `json:"tags"`
	// Author is the byline.
	Author string `gorm:"size:100" json:"author"`
	// Image is the public url of the cover image.
	Image string `gorm:"size:500" json:"image"`
	// Views counts detail page reads.
	Views int64 `gorm:"not null;default:0" json:"views"`
	// CreatedAt is the timestamp when the article was created (managed by GORM).
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	// UpdatedAt is the timestamp when the article was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}
