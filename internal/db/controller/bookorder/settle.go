// Package bookorder settles book orders once the gateway reports their outcome.
package bookorder

import (
	"errors"

	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
)

// ErrOrderNotFound is returned when no order carries the merchant order id.
var ErrOrderNotFound = errors.New("book order not found")

// OrderStatus maps a gateway state onto the stored order status.
func OrderStatus(state string) string {
	switch state {
	case payment.StateCompleted:
		return models.OrderSuccess
	case payment.StateFailed:
		return models.OrderFailed
	default:
		return models.OrderPending
	}
}

// Find loads an order with its items and books.
func Find(db *gorm.DB, merchantOrderID string) (*models.BookOrder, error) {
	var order models.BookOrder

	err := db.Preload("Items.Book").Where("order_id = ?", merchantOrderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	return &order, nil
}

// Settle stores the gateway state of an order in one transaction.
// A completed order grants access to each of its books, purchases that already exist are kept.
// A pending state leaves the order untouched, so does any state after a success.
func Settle(db *gorm.DB, merchantOrderID, state, paymentID string) (*models.BookOrder, error) {
	order, err := Find(db, merchantOrderID)
	if err != nil {
		return nil, err
	}

	status := OrderStatus(state)
	if status == models.OrderPending || order.Status == models.OrderSuccess {
		return order, nil
	}

	if paymentID == "" {
		paymentID = merchantOrderID
	}

	logStatus := models.PaymentFailed
	if status == models.OrderSuccess {
		logStatus = models.PaymentSuccess
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.BookOrder{}).Where("id = ?", order.ID).Updates(map[string]interface{}{
			"status":     status,
			"payment_id": paymentID,
		}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Payment{}).
			Where("reference_id = ? AND user_id = ?", merchantOrderID, order.UserID).
			Update("status", logStatus).Error; err != nil {
			return err
		}

		if status != models.OrderSuccess {
			return nil
		}

		for _, item := range order.Items {
			var count int64
			if err := tx.Model(&models.BookPurchase{}).
				Where("user_id = ? AND book_id = ?", order.UserID, item.BookID).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}

			orderID := order.ID
			if err := tx.Create(&models.BookPurchase{
				UserID:        order.UserID,
				BookID:        item.BookID,
				OrderID:       &orderID,
				Amount:        item.Price,
				AccessGranted: true,
			}).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	order.Status = status
	order.PaymentID = paymentID

	return order, nil
}
