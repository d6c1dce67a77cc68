package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
)

// SetupInput starts an AutoPay membership.
type SetupInput struct {
	Applicant
	VPA            string `json:"vpa"            validate:"required"`
	MembershipType string `json:"membershipType"`
	Frequency      string `json:"frequency"`
	RecurringCount int    `json:"recurringCount" validate:"gte=0"`
}

// SetupResult is the created mandate request.
type SetupResult struct {
	MembershipPaymentID    uint64 `json:"membershipPaymentId"`
	MerchantSubscriptionID string `json:"merchantSubscriptionId"`
	MerchantOrderID        string `json:"merchantOrderId"`
	OrderID                string `json:"orderId"`
	State                  string `json:"state"`
	IntentURL              string `json:"intentUrl,omitempty"`
}

// ValidateVPA checks a UPI address before a mandate is requested.
func (s *Service) ValidateVPA(ctx context.Context, vpa string) (*payment.VPAResult, error) {
	return s.gateway.ValidateVPA(ctx, vpa)
}

// Setup requests an AutoPay mandate from the payer's UPI address.
func (s *Service) Setup(ctx context.Context, userID *uint64, in SetupInput) (*SetupResult, error) {
	if in.Frequency == "" {
		in.Frequency = FrequencyYearly
	}
	if in.RecurringCount == 0 {
		in.RecurringCount = DefaultRecurringCount
	}

	merchantSubscriptionID, err := payment.NewMerchantID(payment.PrefixSubscription)
	if err != nil {
		return nil, err
	}
	merchantOrderID, err := payment.NewMerchantID(payment.PrefixOrder)
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.SetupSubscription(ctx, payment.SetupRequest{
		MerchantOrderID:        merchantOrderID,
		MerchantSubscriptionID: merchantSubscriptionID,
		AmountPaise:            SubscriptionAmountPaise,
		VPA:                    in.VPA,
		Frequency:              in.Frequency,
		AmountType:             payment.AmountTypeFixed,
		AuthWorkflowType:       payment.AuthWorkflowTransact,
	})
	if err != nil {
		return nil, err
	}

	state := resp.State
	if state == "" {
		state = payment.StatePending
	}

	m := &models.MembershipPayment{
		UserID:                 userID,
		MembershipType:         in.MembershipType,
		Amount:                 SubscriptionAmountPaise,
		Status:                 models.MembershipPending,
		TransactionID:          merchantOrderID,
		OrderID:                orderIDOr(resp.OrderID, merchantOrderID),
		MerchantOrderID:        merchantOrderID,
		PaymentMethod:          models.MethodUPIAutoPay,
		MerchantSubscriptionID: merchantSubscriptionID,
		SubscriptionFrequency:  in.Frequency,
		RecurringCount:         in.RecurringCount,
		AmountType:             payment.AmountTypeFixed,
		AuthWorkflowType:       payment.AuthWorkflowTransact,
		SubscriptionState:      state,
		Metadata: metadata(map[string]interface{}{
			"vpa":       in.VPA,
			"maxAmount": SubscriptionAmountPaise,
		}),
	}
	in.apply(m)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}

		return tx.Create(&models.Payment{
			UserID:      userID,
			ReferenceID: merchantSubscriptionID,
			Provider:    models.ProviderPhonePe,
			Amount:      paiseToRupees(SubscriptionAmountPaise),
			Status:      models.PaymentPending,
			Type:        models.PaymentTypeSubscriptionSetup,
			Metadata:    metadata(map[string]interface{}{"membershipPaymentId": m.ID}),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("merchant_subscription_id", merchantSubscriptionID).Uint64("membership_id", m.ID).
		Msg("subscription setup requested")

	return &SetupResult{
		MembershipPaymentID:    m.ID,
		MerchantSubscriptionID: merchantSubscriptionID,
		MerchantOrderID:        merchantOrderID,
		OrderID:                resp.OrderID,
		State:                  resp.State,
		IntentURL:              resp.IntentURL,
	}, nil
}

// RefreshSetup asks the gateway for the state of a setup order and stores it.
func (s *Service) RefreshSetup(ctx context.Context, merchantOrderID string) (*payment.OrderStatus, error) {
	status, err := s.gateway.SubscriptionOrderStatus(ctx, merchantOrderID)
	if err != nil {
		return nil, err
	}

	m, err := s.findBy("merchant_order_id", merchantOrderID)
	if errors.Is(err, ErrNotFound) {
		return status, nil
	}
	if err != nil {
		return nil, err
	}

	update := setupUpdate{
		State:          status.State,
		OrderID:        status.OrderID,
		SubscriptionID: status.PaymentFlow.SubscriptionID,
	}
	if err := s.applySetup(ctx, m, update); err != nil {
		return nil, err
	}

	return status, nil
}

type setupUpdate struct {
	State          string
	OrderID        string
	SubscriptionID string
}

// applySetup stores the outcome of a mandate request.
// The first completion starts the billing cycle and thanks the member, later setup states are ignored.
func (s *Service) applySetup(ctx context.Context, m *models.MembershipPayment, u setupUpdate) error {
	status := SetupStatus(u.State)
	if m.StartDate != nil || m.Status == models.MembershipActive {
		return nil
	}
	if status == models.MembershipPending && m.Status != models.MembershipPending {
		return nil
	}

	activated := status == models.MembershipActive

	subscriptionState := u.State
	if status == models.MembershipActive {
		subscriptionState = payment.StateActive
	}

	updates := map[string]interface{}{
		"status":             status,
		"subscription_state": subscriptionState,
	}
	if u.OrderID != "" {
		updates["order_id"] = u.OrderID
	}
	if u.SubscriptionID != "" {
		updates["phone_pe_subscription_id"] = u.SubscriptionID
	}
	if activated {
		now := s.now()
		next := NextBilling(now, m.SubscriptionFrequency)
		updates["start_date"] = now
		updates["next_billing_date"] = next
		m.StartDate = &now
		m.NextBillingDate = &next
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.MembershipPayment{}).Where("id = ?", m.ID).Updates(updates).Error; err != nil {
			return err
		}

		return tx.Model(&models.Payment{}).Where("reference_id = ?", m.MerchantSubscriptionID).
			Update("status", logStatus(status)).Error
	})
	if err != nil {
		return err
	}

	m.Status = status
	m.SubscriptionState = subscriptionState

	if activated {
		s.thank(ctx, m)
	}

	return nil
}

// RefreshSubscription asks the gateway for the state of a mandate and stores it.
func (s *Service) RefreshSubscription(ctx context.Context, merchantSubscriptionID string) (*payment.SubscriptionStatus, error) {
	status, err := s.gateway.SubscriptionStatus(ctx, merchantSubscriptionID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"subscription_state": status.State,
		"status":             SubscriptionStatus(status.State),
	}
	if status.SubscriptionID != "" {
		updates["phone_pe_subscription_id"] = status.SubscriptionID
	}

	err = s.db.Model(&models.MembershipPayment{}).
		Where("merchant_subscription_id = ?", merchantSubscriptionID).
		Updates(updates).Error
	if err != nil {
		return nil, err
	}

	return status, nil
}

// Cancel stops a mandate at the gateway and marks the membership cancelled.
func (s *Service) Cancel(ctx context.Context, merchantSubscriptionID string) error {
	if err := s.gateway.CancelSubscription(ctx, merchantSubscriptionID); err != nil {
		return err
	}

	return s.setSubscriptionState(merchantSubscriptionID, payment.StateCancelled)
}

func (s *Service) setSubscriptionState(merchantSubscriptionID, state string) error {
	return s.db.Model(&models.MembershipPayment{}).
		Where("merchant_subscription_id = ?", merchantSubscriptionID).
		Updates(map[string]interface{}{
			"subscription_state": state,
			"status":             SubscriptionStatus(state),
		}).Error
}

// NotifyInput announces a debit of an active subscription.
type NotifyInput struct {
	MembershipPaymentID     uint64 `json:"membershipPaymentId"     validate:"required"`
	AmountPaise             int64  `json:"amount"                  validate:"gte=0"`
	RedemptionRetryStrategy string `json:"redemptionRetryStrategy"`
	AutoDebit               bool   `json:"autoDebit"`
}

// Notify announces the next debit to the payer and records it as a pending recurring payment.
func (s *Service) Notify(ctx context.Context, in NotifyInput) (*models.RecurringPayment, *payment.NotifyResponse, error) {
	m, err := s.Find(in.MembershipPaymentID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil, ErrInactive
	}
	if err != nil {
		return nil, nil, err
	}
	if m.SubscriptionState != payment.StateActive || !m.IsSubscription() {
		return nil, nil, ErrInactive
	}

	amount := in.AmountPaise
	if amount == 0 {
		amount = m.Amount
	}
	if in.RedemptionRetryStrategy == "" {
		in.RedemptionRetryStrategy = payment.RetryStrategyStandard
	}

	merchantOrderID, err := payment.NewMerchantID(payment.PrefixOrder)
	if err != nil {
		return nil, nil, err
	}

	resp, err := s.gateway.NotifyRedemption(ctx, payment.NotifyRequest{
		MerchantOrderID:         merchantOrderID,
		MerchantSubscriptionID:  m.MerchantSubscriptionID,
		AmountPaise:             amount,
		RedemptionRetryStrategy: in.RedemptionRetryStrategy,
		AutoDebit:               in.AutoDebit,
	})
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	due := now
	if m.NextBillingDate != nil {
		due = *m.NextBillingDate
	}

	state := resp.State
	if state == "" {
		state = "NOTIFICATION_IN_PROGRESS"
	}

	rp := &models.RecurringPayment{
		MembershipPaymentID:     m.ID,
		MerchantOrderID:         merchantOrderID,
		OrderID:                 resp.OrderID,
		Amount:                  amount,
		Status:                  models.OrderPending,
		State:                   state,
		DueDate:                 due,
		NotifiedAt:              &now,
		RedemptionRetryStrategy: in.RedemptionRetryStrategy,
		AutoDebit:               in.AutoDebit,
	}
	if err := s.db.Create(rp).Error; err != nil {
		return nil, nil, err
	}

	return rp, resp, nil
}

// FindRecurring returns a recurring payment by id.
func (s *Service) FindRecurring(id uint64) (*models.RecurringPayment, error) {
	var rp models.RecurringPayment
	if err := s.db.First(&rp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &rp, nil
}

// Redeem executes a notified debit.
func (s *Service) Redeem(ctx context.Context, recurringPaymentID uint64) (*payment.RedeemResponse, error) {
	rp, err := s.FindRecurring(recurringPaymentID)
	if err != nil {
		return nil, err
	}

	resp, err := s.gateway.ExecuteRedemption(ctx, rp.MerchantOrderID)
	if err != nil {
		return nil, fmt.Errorf("redeem %s: %w", rp.MerchantOrderID, err)
	}

	state := resp.State
	if state == "" {
		state = payment.StatePending
	}

	now := s.now()
	updates := map[string]interface{}{
		"state":       state,
		"executed_at": now,
	}
	if resp.TransactionID != "" {
		updates["transaction_id"] = resp.TransactionID
	}

	if err := s.db.Model(rp).Updates(updates).Error; err != nil {
		return nil, err
	}

	return resp, nil
}

// RefreshRedemption asks the gateway for the state of a debit and stores it.
func (s *Service) RefreshRedemption(ctx context.Context, merchantOrderID string) (*payment.OrderStatus, error) {
	status, err := s.gateway.SubscriptionOrderStatus(ctx, merchantOrderID)
	if err != nil {
		return nil, err
	}

	var rp models.RecurringPayment
	err = s.db.Where("merchant_order_id = ?", merchantOrderID).First(&rp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return status, nil
	}
	if err != nil {
		return nil, err
	}

	update := redemptionUpdate{State: status.State, OrderID: status.OrderID}
	if len(status.PaymentDetails) > 0 {
		update.TransactionID = status.PaymentDetails[0].TransactionID
		update.ErrorCode = status.PaymentDetails[0].ErrorCode
	}

	if err := s.applyRedemption(&rp, update); err != nil {
		return nil, err
	}

	return status, nil
}

type redemptionUpdate struct {
	State         string
	OrderID       string
	TransactionID string
	ErrorCode     string
}

// applyRedemption stores the outcome of a debit.
// The first completion moves the billing date one period ahead and logs the payment.
func (s *Service) applyRedemption(rp *models.RecurringPayment, u redemptionUpdate) error {
	if rp.Status == models.OrderSuccess {
		return nil
	}

	status := RecurringStatus(u.State)
	completed := status == models.OrderSuccess

	updates := map[string]interface{}{
		"state":  u.State,
		"status": status,
	}
	if u.OrderID != "" {
		updates["order_id"] = u.OrderID
	}
	if u.TransactionID != "" {
		updates["transaction_id"] = u.TransactionID
	}
	if u.ErrorCode != "" {
		updates["error_code"] = u.ErrorCode
	}

	now := s.now()
	if completed {
		updates["completed_at"] = now
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.RecurringPayment{}).Where("id = ?", rp.ID).Updates(updates).Error; err != nil {
			return err
		}

		rp.Status = status
		rp.State = u.State

		if !completed {
			return nil
		}

		var m models.MembershipPayment
		if err := tx.First(&m, rp.MembershipPaymentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		from := now
		if m.NextBillingDate != nil {
			from = *m.NextBillingDate
		}

		if err := tx.Model(&models.MembershipPayment{}).Where("id = ?", m.ID).
			Update("next_billing_date", NextBilling(from, m.SubscriptionFrequency)).Error; err != nil {
			return err
		}

		return tx.Create(&models.Payment{
			UserID:      m.UserID,
			ReferenceID: rp.MerchantOrderID,
			Provider:    models.ProviderPhonePe,
			Amount:      paiseToRupees(rp.Amount),
			Status:      models.PaymentSuccess,
			Type:        models.PaymentTypeRecurring,
			Metadata:    metadata(map[string]interface{}{"recurringPaymentId": rp.ID}),
		}).Error
	})
}
