// Package membership runs life time memberships and UPI AutoPay subscriptions on top of the payment gateway.
// Handlers and the scheduled jobs share the same state transitions.
package membership

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/mail"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
)

// Membership offers.
const (
	LifeTime            = "Life Time"
	LifeTimeAmountPaise = 11000 * 100
	// SubscriptionAmountPaise is the fixed debit of an AutoPay membership.
	SubscriptionAmountPaise = 1100
	DefaultRecurringCount   = 10

	// CallbackPath receives the payer after a one time checkout.
	CallbackPath = "/api/membership/callback"
)

// Gateway is the part of the payment client used for memberships.
type Gateway interface {
	Pay(ctx context.Context, req payment.PayRequest) (*payment.PayResponse, error)
	OrderStatus(ctx context.Context, merchantOrderID string) (*payment.OrderStatus, error)
	ValidateVPA(ctx context.Context, vpa string) (*payment.VPAResult, error)
	SetupSubscription(ctx context.Context, req payment.SetupRequest) (*payment.SetupResponse, error)
	SubscriptionOrderStatus(ctx context.Context, merchantOrderID string) (*payment.OrderStatus, error)
	SubscriptionStatus(ctx context.Context, merchantSubscriptionID string) (*payment.SubscriptionStatus, error)
	NotifyRedemption(ctx context.Context, req payment.NotifyRequest) (*payment.NotifyResponse, error)
	ExecuteRedemption(ctx context.Context, merchantOrderID string) (*payment.RedeemResponse, error)
	CancelSubscription(ctx context.Context, merchantSubscriptionID string) error
}

var _ Gateway = (*payment.Client)(nil)

// Notifier thanks members once their payment went through.
type Notifier interface {
	SendMembershipThankYou(ctx context.Context, t mail.ThankYou) error
}

// Service is the membership workflow.
type Service struct {
	db         *gorm.DB
	gateway    Gateway
	notifier   Notifier
	backendURL string
	now        func() time.Time
}

// NewService creates the membership workflow.
func NewService(db *gorm.DB, gateway Gateway, notifier Notifier, backendURL string) *Service {
	return &Service{
		db:         db,
		gateway:    gateway,
		notifier:   notifier,
		backendURL: backendURL,
		now:        time.Now,
	}
}

// Applicant is the contact data of a member.
type Applicant struct {
	Name    string `json:"name"    validate:"required"`
	Email   string `json:"email"   validate:"required,email"`
	Phone   string `json:"phone"   validate:"required"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

func (a Applicant) apply(m *models.MembershipPayment) {
	m.Name = a.Name
	m.Email = a.Email
	m.Phone = a.Phone
	m.Address = a.Address
	m.City = a.City
	m.State = a.State
	m.Pincode = a.Pincode
}

func paiseToRupees(paise int64) decimal.Decimal {
	return decimal.New(paise, -2) //nolint:mnd
}

func metadata(v map[string]interface{}) models.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}

	return models.JSON(raw)
}

// Find returns a membership by id.
func (s *Service) Find(id uint64) (*models.MembershipPayment, error) {
	var m models.MembershipPayment
	if err := s.db.First(&m, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &m, nil
}

func (s *Service) findBy(column, value string) (*models.MembershipPayment, error) {
	var m models.MembershipPayment
	if err := s.db.Where(column+" = ?", value).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &m, nil
}

// FindBySubscription returns the membership of a mandate.
func (s *Service) FindBySubscription(merchantSubscriptionID string) (*models.MembershipPayment, error) {
	return s.findBy("merchant_subscription_id", merchantSubscriptionID)
}

func (s *Service) thank(ctx context.Context, m *models.MembershipPayment) {
	if s.notifier == nil || m.Email == "" {
		return
	}

	err := s.notifier.SendMembershipThankYou(ctx, mail.ThankYou{
		Name:           m.Name,
		Email:          m.Email,
		AmountPaise:    m.Amount,
		TransactionID:  m.TransactionID,
		MembershipType: m.MembershipType,
	})
	if err != nil {
		log.Error().Err(err).Uint64("membership_id", m.ID).Msg("failed to send membership thank you mail")
	}
}

// Filter narrows the membership listing.
type Filter struct {
	UserID *uint64
	Email  string
	Phone  string
}

// List returns memberships newest first.
func (s *Service) List(f Filter) ([]models.MembershipPayment, error) {
	query := s.db.Order("created_at DESC")
	if f.UserID != nil {
		query = query.Where("user_id = ?", *f.UserID)
	}
	if f.Email != "" {
		query = query.Where("email = ?", f.Email)
	}
	if f.Phone != "" {
		query = query.Where("phone = ?", f.Phone)
	}

	var out []models.MembershipPayment
	if err := query.Find(&out).Error; err != nil {
		return nil, err
	}

	return out, nil
}

// Recurring returns the debits of a membership newest first.
func (s *Service) Recurring(membershipID uint64) ([]models.RecurringPayment, error) {
	var out []models.RecurringPayment
	err := s.db.Where("membership_payment_id = ?", membershipID).Order("created_at DESC").Find(&out).Error

	return out, err
}
