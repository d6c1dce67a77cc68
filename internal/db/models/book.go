package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book is a pdf publication sold through the store.
type Book struct {
	// ID is the unique identifier.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Name is the title of the book.
	Name string `gorm:"size:255;not null;index" json:"name"`
	// Author is the writer.
	Author string `gorm:"size:255;not null" json:"author"`
	// Description is an optional blurb.
	Description string `gorm:"type:text" json:"description"`
	// Price is the sales price in rupees.
	Price decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	// CoverImage is the public url of the cover.
	CoverImage string `gorm:"size:500" json:"coverImage"`
	// FileName is the stored pdf file name.
	FileName string `gorm:"size:255;not null" json:"fileName"`
	// FilePath is the local path of the pdf, never sent to clients.
	FilePath string `gorm:"size:500;not null" json:"-"`
	// FileSize is the human readable size, e.g. "2.31 MB".
	FileSize string `gorm:"size:50" json:"fileSize"`
	// CreatedAt is the timestamp when the book was created (managed by GORM).
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	// UpdatedAt is the timestamp when the book was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookPurchase grants a user access to a book.
type BookPurchase struct {
	ID            uint64          `gorm:"primaryKey" json:"id"`
	UserID        uint64          `gorm:"not null;uniqueIndex:idx_purchase_user_book" json:"userId"`
	User          User            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	BookID        uint64          `gorm:"not null;uniqueIndex:idx_purchase_user_book" json:"bookId"`
	Book          Book            `gorm:"constraint:OnDelete:RESTRICT" json:"book"`
	OrderID       *uint64         `json:"orderId"`
	Amount        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	AccessGranted bool            `gorm:"not null" json:"accessGranted"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// Coupon types.
const (
	CouponPercentage = "PERCENTAGE"
	CouponFixed      = "FIXED"
)

// BookCoupon is a discount code for book orders.
type BookCoupon struct {
	ID          uint64          `gorm:"primaryKey" json:"id"`
	Code        string          `gorm:"uniqueIndex;size:50;not null" json:"code"`
	Discount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discount"`
	Type        string          `gorm:"size:20;not null" json:"type"`
	Description string          `gorm:"size:500" json:"description"`
	Active      bool            `gorm:"not null" json:"active"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// DiscountFor returns the discount granted on price, never more than price.
func (c *BookCoupon) DiscountFor(price decimal.Decimal) decimal.Decimal {
	var discount decimal.Decimal

	switch c.Type {
	case CouponPercentage:
		discount = price.Mul(c.Discount).Div(decimal.NewFromInt(100)) //nolint:mnd
	case CouponFixed:
		discount = c.Discount
	}

	if discount.GreaterThan(price) {
		discount = price
	}

	return discount.Round(2) //nolint:mnd
}

// Order states shared by book orders and recurring payments.
const (
	OrderPending = "PENDING"
	OrderSuccess = "SUCCESS"
	OrderFailed  = "FAILED"
)

// BookOrder is a checkout of one or more books.
type BookOrder struct {
	ID             uint64          `gorm:"primaryKey" json:"id"`
	UserID         uint64          `gorm:"not null;index" json:"userId"`
	User           User            `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	OrderID        string          `gorm:"uniqueIndex;size:100;not null" json:"orderId"`
	PaymentID      string          `gorm:"size:100" json:"paymentId"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalAmount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"discountAmount"`
	FinalAmount    decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"finalAmount"`
	CouponID       *uint64         `gorm:"index" json:"couponId"`
	Coupon         *BookCoupon     `gorm:"constraint:OnDelete:SET NULL" json:"coupon,omitempty"`
	Status         string          `gorm:"size:20;not null;index" json:"status"`
	Items          []BookOrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// BookOrderItem is one book of an order.
type BookOrderItem struct {
	ID        uint64          `gorm:"primaryKey" json:"id"`
	OrderID   uint64          `gorm:"not null;index" json:"orderId"`
	BookID    uint64          `gorm:"not null;index" json:"bookId"`
	Book      Book            `gorm:"constraint:OnDelete:RESTRICT" json:"book"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt time.Time       `json:"createdAt"`
}
