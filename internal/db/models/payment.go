package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment providers.
const (
	ProviderPhonePe = "PHONEPE"
)

// Payment log states.
const (
	PaymentPending = "pending"
	PaymentSuccess = "success"
	PaymentFailed  = "failed"
)

// Payment log types.
const (
	PaymentTypeOneTime           = "one_time"
	PaymentTypeBook              = "book_purchase"
	PaymentTypeSubscriptionSetup = "subscription_setup"
	PaymentTypeRecurring         = "recurring_payment"
)

// Payment is the audit trail of every gateway interaction, keyed by merchant reference.
type Payment struct {
	ID          uint64          `gorm:"primaryKey" json:"id"`
	UserID      *uint64         `gorm:"index" json:"userId"`
	ReferenceID string          `gorm:"size:100;not null;index" json:"referenceId"`
	Provider    string          `gorm:"size:20;not null" json:"provider"`
	Amount      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status      string          `gorm:"size:20;not null" json:"status"`
	Type        string          `gorm:"size:30;not null" json:"type"`
	Metadata    JSON            `json:"metadata"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Donation states.
const (
	DonationPending = "pending"
	DonationSuccess = "success"
	DonationFailed  = "failed"
)

// Donation is a one time gift through the payment gateway.
type Donation struct {
	ID              uint64          `gorm:"primaryKey" json:"id"`
	UserID          *uint64         `gorm:"index" json:"userId"`
	User            *User           `gorm:"constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	MerchantOrderID string          `gorm:"uniqueIndex;size:100;not null" json:"merchantOrderId"`
	ProviderOrderID string          `gorm:"size:100" json:"providerOrderId"`
	Status          string          `gorm:"size:20;not null;index" json:"status"`
	CreatedAt       time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}
