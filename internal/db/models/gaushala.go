package models

import "time"

// Gaushala is a cow shelter listed in the directory.
type Gaushala struct {
	ID                uint64     `gorm:"primaryKey" json:"id"`
	Name              string     `gorm:"size:255;not null;index" json:"name"`
	Address           string     `gorm:"size:500;not null" json:"address"`
	City              string     `gorm:"size:100;not null;index" json:"city"`
	State             string     `gorm:"size:100;not null;index" json:"state"`
	Pincode           string     `gorm:"size:20;not null" json:"pincode"`
	EstablishmentDate *time.Time `json:"establishmentDate"`
	TotalCows         int        `gorm:"not null;default:0" json:"totalCows"`
	Capacity          int        `gorm:"not null;default:0" json:"capacity"`
	ContactPerson     string     `gorm:"size:100" json:"contactPerson"`
	Phone             string     `gorm:"size:20" json:"phone"`
	Email             string     `gorm:"size:255" json:"email"`
	Description       string     `gorm:"type:text" json:"description"`
	Photo             string     `gorm:"size:500" json:"photo"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Sansthan is a partner organisation listed in the directory.
type Sansthan struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Person      string    `gorm:"size:100" json:"person"`
	Description string    `gorm:"type:text" json:"description"`
	Email       string    `gorm:"size:255;not null" json:"email"`
	Phone       string    `gorm:"size:20;not null" json:"phone"`
	AltPhone    string    `gorm:"size:20" json:"altPhone"`
	Website     string    `gorm:"size:500" json:"website"`
	Timing      string    `gorm:"size:255" json:"timing"`
	Address     string    `gorm:"size:500" json:"address"`
	City        string    `gorm:"size:100" json:"city"`
	State       string    `gorm:"size:100" json:"state"`
	Pincode     string    `gorm:"size:20" json:"pincode"`
	FullAddress string    `gorm:"size:800" json:"fullAddress"`
	Image       string    `gorm:"size:500" json:"image"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
