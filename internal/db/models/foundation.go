package models

import "time"

// Foundation is an institution run by the organisation, shown with its numbers and goals.
type Foundation struct {
	ID              uint64                `gorm:"primaryKey" json:"id"`
	Name            string                `gorm:"size:255;not null;index" json:"name"`
	Tagline         string                `gorm:"size:500" json:"tagline"`
	Description     string                `gorm:"type:text" json:"description"`
	LogoURL         string                `gorm:"size:500" json:"logoUrl"`
	EstablishedYear int                   `json:"establishedYear"`
	IsActive        bool                  `gorm:"not null;index" json:"isActive"`
	SortOrder       int                   `gorm:"column:sort_order;not null;default:0;index" json:"order"`
	Stats           []FoundationStat      `json:"stats"`
	Activities      []FoundationActivity  `json:"activities"`
	Objectives      []FoundationObjective `json:"objectives"`
	Contact         *FoundationContact    `json:"contact"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// FoundationStat is a labelled figure, e.g. "Cows sheltered: 1200".
type FoundationStat struct {
	ID           uint64 `gorm:"primaryKey" json:"id"`
	FoundationID uint64 `gorm:"not null;index" json:"foundationId"`
	Label        string `gorm:"size:255;not null" json:"label"`
	Value        string `gorm:"size:255;not null" json:"value"`
	DisplayOrder int    `gorm:"not null;default:0" json:"displayOrder"`
}

// FoundationActivity is one line of the activity list.
type FoundationActivity struct {
	ID           uint64 `gorm:"primaryKey" json:"id"`
	FoundationID uint64 `gorm:"not null;index" json:"foundationId"`
	ActivityText string `gorm:"type:text;not null" json:"activityText"`
	DisplayOrder int    `gorm:"not null;default:0" json:"displayOrder"`
}

// DefaultObjectiveType is used when an objective has no type.
const DefaultObjectiveType = "main"

// FoundationObjective is a goal of the foundation.
type FoundationObjective struct {
	ID            uint64 `gorm:"primaryKey" json:"id"`
	FoundationID  uint64 `gorm:"not null;index" json:"foundationId"`
	Title         string `gorm:"size:255;not null" json:"title"`
	Description   string `gorm:"type:text" json:"description"`
	ObjectiveType string `gorm:"size:50;not null" json:"objectiveType"`
	DisplayOrder  int    `gorm:"not null;default:0" json:"displayOrder"`
}

// FoundationContact holds the public contact details.
type FoundationContact struct {
	ID               uint64 `gorm:"primaryKey" json:"id"`
	FoundationID     uint64 `gorm:"uniqueIndex;not null" json:"foundationId"`
	Email            string `gorm:"size:255" json:"email"`
	Phone            string `gorm:"size:50" json:"phone"`
	Address          string `gorm:"size:500" json:"address"`
	Website          string `gorm:"size:500" json:"website"`
	SocialMediaLinks JSON   `json:"socialMediaLinks"`
}
