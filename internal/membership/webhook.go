package membership

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/logger"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
)

// Subscription webhook event fragments.
const (
	eventSetup        = "subscription.setup"
	eventNotification = "subscription.notification"
	eventRedemption   = "subscription.redemption"
	eventCheckout     = "checkout.order"
)

//nolint:gochecknoglobals
var stateChangeEvents = []string{
	"subscription.cancelled",
	"subscription.revoked",
	"subscription.paused",
	"subscription.unpaused",
}

// HandleWebhook applies a gateway notification. Unknown events and unknown orders are ignored.
func (s *Service) HandleWebhook(ctx context.Context, cb *payment.Callback) error {
	event := cb.Name()
	logger.For(logger.ComponentPayment).Info().Str("event", event).Str("merchant_order_id", cb.MerchantOrderID()).Msg("membership webhook received")

	switch {
	case strings.Contains(event, eventSetup):
		return s.webhookSetup(ctx, cb)
	case strings.Contains(event, eventNotification):
		return s.webhookNotification(cb)
	case strings.Contains(event, eventRedemption):
		return s.webhookRedemption(cb)
	case isStateChange(event):
		ref := cb.MerchantSubscriptionID()
		if ref == "" {
			return nil
		}
		return s.setSubscriptionState(ref, cb.Payload.State)
	case strings.Contains(event, eventCheckout) || strings.HasPrefix(event, "CHECKOUT_ORDER"):
		return s.webhookCheckout(ctx, cb)
	default:
		logger.For(logger.ComponentPayment).Debug().Str("event", event).Msg("ignoring membership webhook event")
		return nil
	}
}

func isStateChange(event string) bool {
	for _, e := range stateChangeEvents {
		if strings.Contains(event, e) {
			return true
		}
	}

	return false
}

func (s *Service) webhookSetup(ctx context.Context, cb *payment.Callback) error {
	m, err := s.findBy("merchant_order_id", cb.MerchantOrderID())
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.applySetup(ctx, m, setupUpdate{
		State:          cb.Payload.State,
		OrderID:        cb.Payload.OrderID,
		SubscriptionID: cb.Payload.PaymentFlow.SubscriptionID,
	})
}

func (s *Service) findRecurringByOrder(merchantOrderID string) (*models.RecurringPayment, error) {
	var rp models.RecurringPayment
	err := s.db.Where("merchant_order_id = ?", merchantOrderID).First(&rp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	return &rp, err
}

func (s *Service) webhookNotification(cb *payment.Callback) error {
	rp, err := s.findRecurringByOrder(cb.MerchantOrderID())
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.db.Model(rp).Update("state", cb.Payload.State).Error
}

func (s *Service) webhookRedemption(cb *payment.Callback) error {
	rp, err := s.findRecurringByOrder(cb.MerchantOrderID())
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.applyRedemption(rp, redemptionUpdate{
		State:         cb.Payload.State,
		OrderID:       cb.Payload.OrderID,
		TransactionID: cb.TransactionID(),
		ErrorCode:     cb.ErrorCode(),
	})
}

func (s *Service) webhookCheckout(ctx context.Context, cb *payment.Callback) error {
	m, err := s.findBy("merchant_order_id", cb.MerchantOrderID())
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	return s.applyCheckout(ctx, m, cb.CheckoutState())
}
