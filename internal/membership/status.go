package membership

import (
	"time"

	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
)

// Billing frequencies of an AutoPay mandate.
const (
	FrequencyDaily       = "DAILY"
	FrequencyWeekly      = "WEEKLY"
	FrequencyFortnightly = "FORTNIGHTLY"
	FrequencyMonthly     = "MONTHLY"
	FrequencyBimonthly   = "BIMONTHLY"
	FrequencyQuarterly   = "QUARTERLY"
	FrequencyHalfYearly  = "HALFYEARLY"
	FrequencyYearly      = payment.FrequencyYearly
)

// NextBilling returns t advanced by one period of frequency, unknown frequencies leave t unchanged.
func NextBilling(t time.Time, frequency string) time.Time {
	switch frequency {
	case FrequencyDaily:
		return t.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7) //nolint:mnd
	case FrequencyFortnightly:
		return t.AddDate(0, 0, 14) //nolint:mnd
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0)
	case FrequencyBimonthly:
		return t.AddDate(0, 2, 0) //nolint:mnd
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0) //nolint:mnd
	case FrequencyHalfYearly:
		return t.AddDate(0, 6, 0) //nolint:mnd
	case FrequencyYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t
	}
}

// PaymentStatus maps a checkout state onto a one time membership status.
func PaymentStatus(state string) string {
	switch state {
	case payment.StateCompleted:
		return models.MembershipSuccess
	case payment.StateFailed:
		return models.MembershipFailed
	default:
		return models.MembershipPending
	}
}

// SetupStatus maps a setup order state onto a subscription membership status.
func SetupStatus(state string) string {
	switch state {
	case payment.StateCompleted:
		return models.MembershipActive
	case payment.StateFailed:
		return models.MembershipFailed
	default:
		return models.MembershipPending
	}
}

// SubscriptionStatus maps a mandate state onto a membership status.
func SubscriptionStatus(state string) string {
	switch state {
	case payment.StateActive:
		return models.MembershipActive
	case payment.StateCancelled:
		return models.MembershipCancelled
	case payment.StateRevoked:
		return models.MembershipRevoked
	case payment.StateExpired:
		return models.MembershipExpired
	case payment.StatePaused:
		return models.MembershipPaused
	default:
		return models.MembershipPending
	}
}

// RecurringStatus maps a redemption order state onto a recurring payment status.
func RecurringStatus(state string) string {
	switch state {
	case payment.StateCompleted:
		return models.OrderSuccess
	case payment.StateFailed:
		return models.OrderFailed
	default:
		return models.OrderPending
	}
}

// logStatus maps a membership or recurring status onto the payment log status.
func logStatus(status string) string {
	switch status {
	case models.MembershipSuccess, models.MembershipActive, models.OrderSuccess:
		return models.PaymentSuccess
	case models.MembershipFailed, models.OrderFailed:
		return models.PaymentFailed
	default:
		return models.PaymentPending
	}
}
