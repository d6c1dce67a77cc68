package membership

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
)

const (
	// notifyWindow is how far ahead upcoming debits are announced.
	notifyWindow = 72 * time.Hour
	// redeemDelay is how long the payer has between notification and debit.
	redeemDelay = 24 * time.Hour
)

// RefreshAll refreshes the mandate state of every active or pending subscription.
// It returns how many subscriptions were refreshed.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	var subs []models.MembershipPayment

	err := s.db.Select("id", "merchant_subscription_id").
		Where("merchant_subscription_id <> '' AND status IN ?",
			[]string{models.MembershipActive, models.MembershipPending}).
		Find(&subs).Error
	if err != nil {
		return 0, err
	}

	refreshed := 0
	for _, m := range subs {
		if ctx.Err() != nil {
			return refreshed, ctx.Err()
		}

		if _, err := s.RefreshSubscription(ctx, m.MerchantSubscriptionID); err != nil {
			log.Error().Err(err).Str("merchant_subscription_id", m.MerchantSubscriptionID).
				Msg("failed to refresh subscription")
			continue
		}
		refreshed++
	}

	return refreshed, nil
}

// NotifyDue announces the debit of every active subscription billing within the next 72 hours.
// A subscription with a pending debit for the same due date is skipped.
func (s *Service) NotifyDue(ctx context.Context) (int, error) {
	var subs []models.MembershipPayment

	err := s.db.Where("subscription_state = ? AND next_billing_date IS NOT NULL AND next_billing_date <= ?",
		payment.StateActive, s.now().Add(notifyWindow)).
		Preload("RecurringPayments", "status = ?", models.OrderPending).
		Find(&subs).Error
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, m := range subs {
		if ctx.Err() != nil {
			return notified, ctx.Err()
		}
		if hasPendingDebit(&m) {
			continue
		}

		if _, _, err := s.Notify(ctx, NotifyInput{MembershipPaymentID: m.ID}); err != nil {
			log.Error().Err(err).Uint64("membership_id", m.ID).Msg("failed to notify recurring payment")
			continue
		}
		notified++
	}

	return notified, nil
}

func hasPendingDebit(m *models.MembershipPayment) bool {
	for _, rp := range m.RecurringPayments {
		if rp.DueDate.Equal(*m.NextBillingDate) {
			return true
		}
	}

	return false
}

func (s *Service) readyQuery() (string, []interface{}) {
	return "status = ? AND executed_at IS NULL AND notified_at IS NOT NULL AND notified_at <= ?",
		[]interface{}{models.OrderPending, s.now().Add(-redeemDelay)}
}

// ReadyCount returns how many notified debits can be executed now.
func (s *Service) ReadyCount() (int64, error) {
	query, args := s.readyQuery()

	var count int64
	err := s.db.Model(&models.RecurringPayment{}).Where(query, args...).Count(&count).Error

	return count, err
}

// RedeemReady executes every pending debit notified at least 24 hours ago.
func (s *Service) RedeemReady(ctx context.Context) (int, error) {
	query, args := s.readyQuery()

	var ready []models.RecurringPayment
	if err := s.db.Select("id").Where(query, args...).Find(&ready).Error; err != nil {
		return 0, err
	}

	redeemed := 0
	for _, rp := range ready {
		if ctx.Err() != nil {
			return redeemed, ctx.Err()
		}

		if _, err := s.Redeem(ctx, rp.ID); err != nil {
			log.Error().Err(err).Uint64("recurring_payment_id", rp.ID).Msg("failed to execute recurring payment")
			continue
		}
		redeemed++
	}

	return redeemed, nil
}
