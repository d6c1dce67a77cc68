// Package donations takes one time donations through the payment gateway.
package donations

import (
	"errors"
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/logger"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

const (
	// Path is the base path of the donation api.
	Path = "/donations"

	// DefaultPageSize for pagination.
	DefaultPageSize = 20
)

var minAmount = decimal.NewFromInt(1) //nolint:gochecknoglobals

// Service takes donations.
type Service struct {
	handler.Service
	deps *handler.Deps
	db   *gorm.DB
	pay  *payment.Client
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() || deps.Payment == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps
	s.db = deps.DB
	s.pay = deps.Payment
	read := deps.Can(auth.PermPaymentsRead)

	router.Route(Path, func(r fiber.Router) {
		r.Post("/create-order", deps.Authn, s.CreateOrder)
		r.Get("/callback", s.Callback)
		r.Post("/webhook", s.Webhook)
		r.Get("/stats", deps.Authn, read, s.Stats)
		r.Get(handler.RootPath, deps.Authn, read, s.List)
	})

	return nil
}

// status maps a gateway state onto a donation status.
func status(state string) string {
	switch state {
	case payment.StateCompleted:
		return models.DonationSuccess
	case payment.StateFailed:
		return models.DonationFailed
	default:
		return models.DonationPending
	}
}

// CreateOrder starts a checkout for the amount in rupees.
func (s *Service) CreateOrder(c fiber.Ctx) error {
	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	amount, err := decimal.NewFromString(f.Str("amount"))
	if err != nil || amount.LessThan(minAmount) {
		return handler.BadRequest("Invalid donation amount")
	}

	amount = amount.Round(2) //nolint:mnd
	claims := auth.ClaimsFrom(c)
	orderID := uuid.NewString()

	resp, err := s.pay.Pay(c.Context(), payment.PayRequest{
		MerchantOrderID: orderID,
		AmountPaise:     amount.Shift(2).IntPart(), //nolint:mnd
		RedirectURL:     s.deps.Cfg.Webserver.BackendURL + "/api" + Path + "/callback?orderId=" + url.QueryEscape(orderID),
		Meta: payment.MetaInfo{
			UDF1: strconv.FormatUint(claims.ID, 10),
			UDF2: "Donation Payment",
		},
	})
	if err != nil || resp.RedirectURL == "" {
		logger.For(logger.ComponentPayment).Error().Err(err).Str("order", orderID).Msg("donation checkout failed")
		return handler.Fail(c, fiber.StatusInternalServerError, "Failed to initiate PhonePe payment")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&models.Donation{
			UserID:          &claims.ID,
			Amount:          amount,
			MerchantOrderID: orderID,
			ProviderOrderID: resp.OrderID,
			Status:          models.DonationPending,
		}).Error; err != nil {
			return err
		}

		return tx.Create(&models.Payment{
			UserID:      &claims.ID,
			ReferenceID: orderID,
			Provider:    models.ProviderPhonePe,
			Amount:      amount,
			Status:      models.PaymentPending,
			Type:        models.PaymentTypeOneTime,
		}).Error
	})
	if err != nil {
		return handler.Internal(c, err, "failed to store donation")
	}

	return c.JSON(fiber.Map{"success": true, "redirectUrl": resp.RedirectURL, "orderId": orderID})
}

// settle stores a final donation status with its payment log.
func (s *Service) settle(orderID, st string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Donation{}).Where("merchant_order_id = ?", orderID).
			Update("status", st).Error; err != nil {
			return err
		}

		return tx.Model(&models.Payment{}).
			Where("reference_id = ? AND type = ?", orderID, models.PaymentTypeOneTime).
			Update("status", st).Error
	})
}

// Callback is where the payer returns to, the order is looked up and the payer sent on to the frontend.
func (s *Service) Callback(c fiber.Ctx) error {
	orderID := c.Query("orderId")
	if orderID == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing orderId in callback")
	}

	st := models.DonationPending

	order, err := s.pay.OrderStatus(c.Context(), orderID)
	if err != nil {
		logger.For(logger.ComponentPayment).Warn().Err(err).Str("order", orderID).Msg("donation status lookup failed")
	} else {
		st = status(order.State)
	}

	if err = s.settle(orderID, st); err != nil {
		logger.For(logger.ComponentPayment).Error().Err(err).Str("order", orderID).Msg("failed to update donation")
		return c.Status(fiber.StatusInternalServerError).SendString("Callback handling failed")
	}

	target := s.deps.Cfg.Webserver.FrontendURL + "/donation-status?status=" + st + "&orderId=" + url.QueryEscape(orderID)

	return c.Redirect().Status(fiber.StatusFound).To(target)
}

// Webhook receives server to server notifications of the gateway.
func (s *Service) Webhook(c fiber.Ctx) error {
	cb, err := s.pay.ValidateCallback(c.Get(fiber.HeaderAuthorization), c.Body())

	switch {
	case errors.Is(err, payment.ErrMissingAuthorization):
		return c.Status(fiber.StatusBadRequest).SendString("Missing Authorization header")
	case err != nil:
		logger.For(logger.ComponentPayment).Warn().Err(err).Msg("rejected donation webhook")
		return c.Status(fiber.StatusBadRequest).SendString("Invalid callback")
	}

	if st := status(cb.CheckoutState()); st != models.DonationPending {
		if err = s.settle(cb.MerchantOrderID(), st); err != nil {
			logger.For(logger.ComponentPayment).Error().Err(err).Str("order", cb.MerchantOrderID()).Msg("failed to update donation")
			return c.Status(fiber.StatusInternalServerError).SendString("Webhook handling failed")
		}
	}

	return c.SendString("OK")
}

// List shows donations with their donors, newest first.
func (s *Service) List(c fiber.Ctx) error {
	p := handler.Paging(c, DefaultPageSize, 100) //nolint:mnd
	tx := s.db.Model(&models.Donation{})

	if st := c.Query("status"); st != "" {
		tx = tx.Where("status = ?", st)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch donations")
	}

	list := []models.Donation{}
	if err := tx.Preload("User").Order("created_at DESC, id DESC").
		Limit(p.Limit).Offset(p.Offset()).Find(&list).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch donations")
	}

	return c.JSON(fiber.Map{"success": true, "data": list, "pagination": p.Meta(total)})
}

// Stats counts donations per status and sums the successful amounts.
func (s *Service) Stats(c fiber.Ctx) error {
	var rows []struct {
		Status string
		Count  int64
	}

	if err := s.db.Model(&models.Donation{}).Select("status, COUNT(*) AS count").
		Group("status").Scan(&rows).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch donation stats")
	}

	counts := map[string]int64{}
	total := int64(0)

	for _, r := range rows {
		counts[r.Status] = r.Count
		total += r.Count
	}

	var sum decimal.NullDecimal
	if err := s.db.Model(&models.Donation{}).Select("SUM(amount)").
		Where("status = ?", models.DonationSuccess).Row().Scan(&sum); err != nil {
		return handler.Internal(c, err, "Failed to fetch donation stats")
	}

	return handler.OK(c, "", fiber.Map{
		"totalDonations":      total,
		"successfulDonations": counts[models.DonationSuccess],
		"pendingDonations":    counts[models.DonationPending],
		"failedDonations":     counts[models.DonationFailed],
		"totalAmount":         sum.Decimal,
	})
}
