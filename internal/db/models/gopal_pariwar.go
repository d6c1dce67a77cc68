package models

import "time"

// GopalPariwarMember is a profile page of the gopal pariwar section.
// The free form sections are stored as json documents as entered by the editors.
type GopalPariwarMember struct {
	ID                 uint64    `gorm:"primaryKey" json:"id"`
	HeroImage          string    `gorm:"size:500;not null" json:"heroImage"`
	HeroTitle          string    `gorm:"size:255;not null" json:"heroTitle"`
	HeroSubtitle       string    `gorm:"size:500" json:"heroSubtitle"`
	PersonalInfo       JSON      `json:"personalInfo"`
	SpiritualEducation JSON      `json:"spiritualEducation"`
	LifeJourney        JSON      `json:"lifeJourney"`
	Responsibilities   JSON      `json:"responsibilities"`
	Pledges            JSON      `json:"pledges"`
	SocialLinks        JSON      `json:"socialLinks"`
	SortOrder          int       `gorm:"column:sort_order;not null;default:0;index" json:"order"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}
