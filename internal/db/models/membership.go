package models

import "time"

// Membership states as stored in MembershipPayment.Status.
const (
	MembershipPending   = "pending"
	MembershipSuccess   = "success"
	MembershipFailed    = "failed"
	MembershipActive    = "active"
	MembershipCancelled = "cancelled"
	MembershipRevoked   = "revoked"
	MembershipExpired   = "expired"
	MembershipPaused    = "paused"
)

// Payment methods of a membership.
const (
	MethodPhonePe    = "Phone Pe"
	MethodUPIAutoPay = "UPI_AUTOPAY"
)

// MembershipPayment is either a one time life time membership or an UPI AutoPay subscription.
// Amounts are stored in paise.
type MembershipPayment struct {
	// ID is the unique identifier.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// UserID links the logged in buyer, nil for guest records.
	UserID *uint64 `gorm:"index" json:"userId"`
	User   *User   `gorm:"constraint:OnDelete:SET NULL" json:"-"`

	Name    string `gorm:"size:100;not null" json:"name"`
	Email   string `gorm:"size:255;not null;index" json:"email"`
	Phone   string `gorm:"size:20;not null;index" json:"phone"`
	Address string `gorm:"size:500" json:"address"`
	City    string `gorm:"size:100" json:"city"`
	State   string `gorm:"size:100" json:"state"`
	Pincode string `gorm:"size:20" json:"pincode"`

	// MembershipType is e.g. "Life Time" or "Annual".
	MembershipType string `gorm:"size:50;not null" json:"membershipType"`
	// Amount in paise.
	Amount int64 `gorm:"not null" json:"amount"`
	// Status is one of the Membership* constants.
	Status        string `gorm:"size:20;not null;index" json:"status"`
	TransactionID string `gorm:"size:100;index" json:"transactionId"`
	// OrderID is the gateway order id.
	OrderID         string `gorm:"size:100" json:"orderId"`
	MerchantOrderID string `gorm:"uniqueIndex;size:100;not null" json:"merchantOrderId"`
	PaymentMethod   string `gorm:"size:30" json:"paymentMethod"`

	// Subscription fields, empty for one time memberships.
	MerchantSubscriptionID string     `gorm:"size:100;index" json:"merchantSubscriptionId"`
	PhonePeSubscriptionID  string     `gorm:"size:100" json:"phonePeSubscriptionId"`
	SubscriptionFrequency  string     `gorm:"size:20" json:"subscriptionFrequency"`
	RecurringCount         int        `json:"recurringCount"`
	AmountType             string     `gorm:"size:20" json:"amountType"`
	AuthWorkflowType       string     `gorm:"size:20" json:"authWorkflowType"`
	SubscriptionState      string     `gorm:"size:30" json:"subscriptionState"`
	StartDate              *time.Time `json:"startDate"`
	NextBillingDate        *time.Time `gorm:"index" json:"nextBillingDate"`
	Metadata               JSON       `json:"metadata"`

	RecurringPayments []RecurringPayment `gorm:"foreignKey:MembershipPaymentID" json:"recurringPayments,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsSubscription reports whether the membership is an AutoPay mandate.
func (m *MembershipPayment) IsSubscription() bool {
	return m.MerchantSubscriptionID != ""
}

// RecurringPayment is one debit of an AutoPay subscription: notified first, redeemed 24 hours later.
type RecurringPayment struct {
	ID                      uint64     `gorm:"primaryKey" json:"id"`
	MembershipPaymentID     uint64     `gorm:"not null;index" json:"membershipPaymentId"`
	MerchantOrderID         string     `gorm:"uniqueIndex;size:100;not null" json:"merchantOrderId"`
	OrderID                 string     `gorm:"size:100" json:"orderId"`
	Amount                  int64      `gorm:"not null" json:"amount"`
	Status                  string     `gorm:"size:20;not null;index" json:"status"`
	State                   string     `gorm:"size:40" json:"state"`
	DueDate                 time.Time  `json:"dueDate"`
	NotifiedAt              *time.Time `gorm:"index" json:"notifiedAt"`
	ExecutedAt              *time.Time `json:"executedAt"`
	CompletedAt             *time.Time `json:"completedAt"`
	TransactionID           string     `gorm:"size:100" json:"transactionId"`
	RedemptionRetryStrategy string     `gorm:"size:20" json:"redemptionRetryStrategy"`
	AutoDebit               bool       `json:"autoDebit"`
	ErrorCode               string     `gorm:"size:100" json:"errorCode"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}
