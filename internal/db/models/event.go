package models

import "time"

// DefaultEventColor is the tailwind gradient used when none is given.
const DefaultEventColor = "from-orange-500 to-red-500"

// Event is an upcoming gathering. Events are removed once their end date has passed.
type Event struct {
	ID          uint64     `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	StartDate   time.Time  `gorm:"not null;index" json:"startDate"`
	EndDate     time.Time  `gorm:"not null;index" json:"endDate"`
	Time        string     `gorm:"size:100" json:"time"`
	Location    string     `gorm:"size:255;not null" json:"location"`
	Duration    string     `gorm:"size:100;not null" json:"duration"`
	Color       string     `gorm:"size:100;not null" json:"color"`
	LiveLinks   StringList `json:"liveLinks"`
	Description string     `gorm:"type:text" json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
