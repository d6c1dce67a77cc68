package bookorder

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/dbtest"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t)
}

func seedOrder(t *testing.T, db *gorm.DB) (*models.User, *models.Book) {
	t.Helper()

	role := models.Role{Name: models.RoleUser}
	require.NoError(t, db.Create(&role).Error)

	user := models.User{Name: "Reader", Email: "reader@example.org", RoleID: role.ID, IsVerified: true}
	require.NoError(t, db.Create(&user).Error)

	book := models.Book{Name: "Gau Mahima", Author: "A", Price: decimal.NewFromInt(100), FileName: "b.pdf", FilePath: "/tmp/b.pdf"}
	require.NoError(t, db.Create(&book).Error)

	order := models.BookOrder{
		UserID:         user.ID,
		OrderID:        "order-1",
		TotalAmount:    decimal.NewFromInt(100),
		DiscountAmount: decimal.Zero,
		FinalAmount:    decimal.NewFromInt(100),
		Status:         models.OrderPending,
	}
	require.NoError(t, db.Create(&order).Error)
	require.NoError(t, db.Create(&models.BookOrderItem{OrderID: order.ID, BookID: book.ID, Price: decimal.NewFromInt(100)}).Error)

	uid := user.ID
	require.NoError(t, db.Create(&models.Payment{
		UserID: &uid, ReferenceID: "order-1", Provider: models.ProviderPhonePe,
		Amount: decimal.NewFromInt(100), Status: models.PaymentPending, Type: models.PaymentTypeBook,
	}).Error)

	return &user, &book
}

func TestOrderStatus(t *testing.T) {
	assert.Equal(t, models.OrderSuccess, OrderStatus(payment.StateCompleted))
	assert.Equal(t, models.OrderFailed, OrderStatus(payment.StateFailed))
	assert.Equal(t, models.OrderPending, OrderStatus(payment.StatePending))
	assert.Equal(t, models.OrderPending, OrderStatus(""))
}

func TestSettleCompletedIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	user, book := seedOrder(t, db)

	for i := 0; i < 2; i++ {
		order, err := Settle(db, "order-1", payment.StateCompleted, "T1")
		require.NoError(t, err)
		assert.Equal(t, models.OrderSuccess, order.Status)
	}

	var purchases []models.BookPurchase
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&purchases).Error)
	require.Len(t, purchases, 1)
	assert.Equal(t, book.ID, purchases[0].BookID)
	assert.True(t, purchases[0].AccessGranted)

	var log models.Payment
	require.NoError(t, db.Where("reference_id = ?", "order-1").First(&log).Error)
	assert.Equal(t, models.PaymentSuccess, log.Status)

	var stored models.BookOrder
	require.NoError(t, db.Where("order_id = ?", "order-1").First(&stored).Error)
	assert.Equal(t, "T1", stored.PaymentID)
}

func TestSettleFailedAndPending(t *testing.T) {
	db := setupTestDB(t)
	seedOrder(t, db)

	order, err := Settle(db, "order-1", payment.StatePending, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderPending, order.Status)

	order, err = Settle(db, "order-1", payment.StateFailed, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderFailed, order.Status)
	assert.Equal(t, "order-1", order.PaymentID)

	var count int64
	require.NoError(t, db.Model(&models.BookPurchase{}).Count(&count).Error)
	assert.Zero(t, count)

	_, err = Settle(db, "missing", payment.StateCompleted, "")
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSettleSequences(t *testing.T) {
	tests := []struct {
		name          string
		states        []string
		wantStatus    string
		wantPaymentID string
		wantLog       string
		wantPurchases int64
	}{
		{
			name:          "completed twice",
			states:        []string{payment.StateCompleted, payment.StateCompleted},
			wantStatus:    models.OrderSuccess,
			wantPaymentID: "T1",
			wantLog:       models.PaymentSuccess,
			wantPurchases: 1,
		},
		{
			name:          "failed after completed",
			states:        []string{payment.StateCompleted, payment.StateFailed},
			wantStatus:    models.OrderSuccess,
			wantPaymentID: "T1",
			wantLog:       models.PaymentSuccess,
			wantPurchases: 1,
		},
		{
			name:          "pending after completed",
			states:        []string{payment.StateCompleted, payment.StatePending},
			wantStatus:    models.OrderSuccess,
			wantPaymentID: "T1",
			wantLog:       models.PaymentSuccess,
			wantPurchases: 1,
		},
		{
			name:          "completed after failed",
			states:        []string{payment.StateFailed, payment.StateCompleted},
			wantStatus:    models.OrderSuccess,
			wantPaymentID: "T2",
			wantLog:       models.PaymentSuccess,
			wantPurchases: 1,
		},
		{
			name:          "failed twice",
			states:        []string{payment.StateFailed, payment.StateFailed},
			wantStatus:    models.OrderFailed,
			wantPaymentID: "T2",
			wantLog:       models.PaymentFailed,
			wantPurchases: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupTestDB(t)
			seedOrder(t, db)

			for i, state := range tt.states {
				_, err := Settle(db, "order-1", state, fmt.Sprintf("T%d", i+1))
				require.NoError(t, err)
			}

			var stored models.BookOrder
			require.NoError(t, db.Where("order_id = ?", "order-1").First(&stored).Error)
			assert.Equal(t, tt.wantStatus, stored.Status)
			assert.Equal(t, tt.wantPaymentID, stored.PaymentID)

			var log models.Payment
			require.NoError(t, db.Where("reference_id = ?", "order-1").First(&log).Error)
			assert.Equal(t, tt.wantLog, log.Status)

			var purchases int64
			require.NoError(t, db.Model(&models.BookPurchase{}).Count(&purchases).Error)
			assert.Equal(t, tt.wantPurchases, purchases)
		})
	}
}
