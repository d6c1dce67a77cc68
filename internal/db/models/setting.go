// Package models contains database model definitions.
package models

// Setting is a named json document, used for singleton pages like the privacy policy.
type Setting struct {
	ID    uint64 `gorm:"primaryKey"`
	Name  string `gorm:"unique;size:100"`
	Value []byte
}
