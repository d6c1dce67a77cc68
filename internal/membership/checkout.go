package membership

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
)

// Order is a created life time membership checkout.
type Order struct {
	RedirectURL string `json:"redirectUrl"`
	OrderID     string `json:"orderId"`
}

// CreateOrder starts the checkout of a life time membership.
func (s *Service) CreateOrder(ctx context.Context, userID *uint64, in Applicant) (*Order, error) {
	merchantOrderID, err := payment.NewMerchantID(payment.PrefixTransaction)
	if err != nil {
		return nil, err
	}

	label := in.Name
	if userID != nil {
		label = fmt.Sprint(*userID)
	}

	resp, err := s.gateway.Pay(ctx, payment.PayRequest{
		MerchantOrderID: merchantOrderID,
		AmountPaise:     LifeTimeAmountPaise,
		RedirectURL:     s.backendURL + CallbackPath + "?orderId=" + url.QueryEscape(merchantOrderID),
		Meta: payment.MetaInfo{
			UDF1: label,
			UDF2: "Life Time Membership Payment",
		},
	})
	if err != nil {
		return nil, err
	}
	if resp.RedirectURL == "" {
		return nil, ErrNoRedirect
	}

	m := &models.MembershipPayment{
		UserID:          userID,
		MembershipType:  LifeTime,
		Amount:          LifeTimeAmountPaise,
		Status:          models.MembershipPending,
		TransactionID:   merchantOrderID,
		OrderID:         orderIDOr(resp.OrderID, merchantOrderID),
		MerchantOrderID: merchantOrderID,
		PaymentMethod:   models.MethodPhonePe,
	}
	in.apply(m)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}

		return tx.Create(&models.Payment{
			UserID:      userID,
			ReferenceID: merchantOrderID,
			Provider:    models.ProviderPhonePe,
			Amount:      paiseToRupees(LifeTimeAmountPaise),
			Status:      models.PaymentPending,
			Type:        models.PaymentTypeOneTime,
			Metadata:    metadata(map[string]interface{}{"membershipPaymentId": m.ID}),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("merchant_order_id", merchantOrderID).Uint64("membership_id", m.ID).
		Msg("membership checkout created")

	return &Order{RedirectURL: resp.RedirectURL, OrderID: merchantOrderID}, nil
}

func orderIDOr(orderID, fallback string) string {
	if orderID == "" {
		return fallback
	}

	return orderID
}

// CheckOrder asks the gateway for the state of a life time checkout and stores it.
// A failing status query leaves the membership pending.
func (s *Service) CheckOrder(ctx context.Context, merchantOrderID string) (*models.MembershipPayment, error) {
	m, err := s.findBy("merchant_order_id", merchantOrderID)
	if err != nil {
		return nil, err
	}

	state := payment.StatePending
	status, err := s.gateway.OrderStatus(ctx, merchantOrderID)
	if err != nil {
		log.Error().Err(err).Str("merchant_order_id", merchantOrderID).Msg("failed to fetch membership order status")
	} else {
		state = status.State
	}

	if err := s.applyCheckout(ctx, m, state); err != nil {
		return nil, err
	}

	return m, nil
}

// applyCheckout stores the state of a one time membership and thanks the member on the first success.
// A settled membership never goes back to pending and a successful one is final.
func (s *Service) applyCheckout(ctx context.Context, m *models.MembershipPayment, state string) error {
	status := PaymentStatus(state)
	if m.Status == models.MembershipSuccess {
		return nil
	}
	if status == models.MembershipPending && m.Status != models.MembershipPending {
		return nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.MembershipPayment{}).Where("id = ?", m.ID).
			Update("status", status).Error; err != nil {
			return err
		}

		return tx.Model(&models.Payment{}).Where("reference_id = ?", m.MerchantOrderID).
			Update("status", logStatus(status)).Error
	})
	if err != nil {
		return err
	}

	m.Status = status
	if status == models.MembershipSuccess {
		s.thank(ctx, m)
	}

	return nil
}
