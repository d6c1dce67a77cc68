// Package memberships exposes life time memberships and UPI AutoPay subscriptions.
package memberships

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/logger"
	"github.com/gopalparivar/dhenu-mahima/internal/membership"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

// Path is the base path of the membership api.
const Path = "/membership"

const msgRequired = "Missing required fields: name, email, phone"

// Service serves memberships.
type Service struct {
	handler.Service
	deps *handler.Deps
	svc  *membership.Service
	pay  *payment.Client
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() || deps.Memberships == nil || deps.Payment == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps
	s.svc = deps.Memberships
	s.pay = deps.Payment
	manage := deps.Can(auth.PermSubscriptionsManage)

	router.Route(Path, func(r fiber.Router) {
		r.Post("/create-order", deps.Authn, s.CreateOrder)
		r.Get("/callback", s.Callback)
		r.Post("/validate-vpa", deps.Authn, s.ValidateVPA)
		r.Post("/webhook", s.Webhook)

		r.Post("/subscription/setup", deps.Authn, s.Setup)
		r.Post("/subscription/notify", deps.Authn, manage, s.Notify)
		r.Post("/subscription/redeem", deps.Authn, manage, s.Redeem)
		r.Get("/subscription/order/:merchantOrderId/status", deps.Authn, s.SetupStatus)
		r.Get("/subscription/redemption/:merchantOrderId/status", deps.Authn, manage, s.RedemptionStatus)
		r.Get("/subscription/:merchantSubscriptionId/status", deps.Authn, s.SubscriptionStatus)
		r.Post("/subscription/:merchantSubscriptionId/cancel", deps.Authn, s.Cancel)

		r.Get(handler.RootPath, deps.Authn, manage, s.List)
		r.Get(handler.IDPath+"/recurring", deps.Authn, manage, s.Recurring)
	})

	return nil
}

func missingApplicant(a membership.Applicant) bool {
	return strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Email) == "" || strings.TrimSpace(a.Phone) == ""
}

// gatewayFailed logs err and answers 500 with msg.
func gatewayFailed(c fiber.Ctx, err error, msg string) error {
	logger.For(logger.ComponentPayment).Error().Err(err).Str("path", c.Path()).Msg(msg)
	return handler.Fail(c, fiber.StatusInternalServerError, msg)
}

// CreateOrder starts a life time membership checkout.
func (s *Service) CreateOrder(c fiber.Ctx) error {
	var in membership.Applicant
	if err := c.Bind().WithoutAutoHandling().Body(&in); err != nil {
		return handler.BadRequest("Invalid request body")
	}
	if missingApplicant(in) {
		return handler.BadRequest(msgRequired)
	}
	if err := handler.Validate(in); err != nil {
		return err
	}

	claims := auth.ClaimsFrom(c)

	order, err := s.svc.CreateOrder(c.Context(), &claims.ID, in)
	if err != nil {
		return gatewayFailed(c, err, "Failed to initiate PhonePe payment")
	}

	return c.JSON(order)
}

// Callback receives the payer after a life time checkout.
func (s *Service) Callback(c fiber.Ctx) error {
	orderID := c.Query("orderId")
	if orderID == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing orderId in callback")
	}

	m, err := s.svc.CheckOrder(c.Context(), orderID)
	if err != nil {
		logger.For(logger.ComponentPayment).Error().Err(err).Str("order", orderID).Msg("membership callback failed")
		return c.Status(fiber.StatusInternalServerError).SendString("Callback handling failed")
	}

	target := s.deps.Cfg.Webserver.FrontendURL + "/donation-status?status=" + m.Status + "&orderId=" + url.QueryEscape(orderID)

	return c.Redirect().Status(fiber.StatusFound).To(target)
}

type vpaRequest struct {
	VPA string `json:"vpa"`
}

// ValidateVPA checks a UPI address.
func (s *Service) ValidateVPA(c fiber.Ctx) error {
	var in vpaRequest
	if err := c.Bind().WithoutAutoHandling().Body(&in); err != nil || strings.TrimSpace(in.VPA) == "" {
		return handler.BadRequest("VPA is required")
	}

	res, err := s.svc.ValidateVPA(c.Context(), strings.TrimSpace(in.VPA))
	if err != nil {
		return gatewayFailed(c, err, "Failed to validate VPA")
	}

	var name interface{}
	if res.Name != "" {
		name = res.Name
	}

	return handler.OK(c, "", fiber.Map{"valid": res.Valid, "name": name})
}

// Setup requests an AutoPay mandate.
func (s *Service) Setup(c fiber.Ctx) error {
	var in membership.SetupInput
	if err := c.Bind().WithoutAutoHandling().Body(&in); err != nil {
		return handler.BadRequest("Invalid request body")
	}
	if missingApplicant(in.Applicant) {
		return handler.BadRequest(msgRequired)
	}
	if err := handler.Validate(in); err != nil {
		return err
	}

	claims := auth.ClaimsFrom(c)

	res, err := s.svc.Setup(c.Context(), &claims.ID, in)
	if err != nil {
		return gatewayFailed(c, err, "Failed to create subscription setup")
	}

	return handler.OK(c, "Subscription setup initiated", res)
}

// SetupStatus refreshes the state of a mandate request.
func (s *Service) SetupStatus(c fiber.Ctx) error {
	status, err := s.svc.RefreshSetup(c.Context(), c.Params("merchantOrderId"))
	if err != nil {
		return gatewayFailed(c, err, "Failed to check subscription order status")
	}

	return handler.OK(c, "", status)
}

// SubscriptionStatus refreshes the state of a mandate.
func (s *Service) SubscriptionStatus(c fiber.Ctx) error {
	status, err := s.svc.RefreshSubscription(c.Context(), c.Params("merchantSubscriptionId"))
	if err != nil {
		return gatewayFailed(c, err, "Failed to check subscription status")
	}

	return handler.OK(c, "", status)
}

// Cancel stops a mandate of the caller, admins may cancel any.
func (s *Service) Cancel(c fiber.Ctx) error {
	ref := c.Params("merchantSubscriptionId")

	m, err := s.svc.FindBySubscription(ref)
	if errors.Is(err, membership.ErrNotFound) {
		return handler.NotFound("Subscription")
	}
	if err != nil {
		return handler.Internal(c, err, "Failed to cancel subscription")
	}

	claims := auth.ClaimsFrom(c)
	if !claims.IsAdmin() && (m.UserID == nil || *m.UserID != claims.ID) {
		return handler.Fail(c, fiber.StatusForbidden, "Access denied")
	}

	if err = s.svc.Cancel(c.Context(), ref); err != nil {
		return gatewayFailed(c, err, "Failed to cancel subscription")
	}

	return handler.OK(c, "Subscription cancelled successfully", nil)
}

// Notify announces the next debit of an active subscription.
func (s *Service) Notify(c fiber.Ctx) error {
	var in membership.NotifyInput
	if err := handler.Parse(c, &in); err != nil {
		return err
	}

	rp, resp, err := s.svc.Notify(c.Context(), in)
	switch {
	case errors.Is(err, membership.ErrInactive):
		return handler.BadRequest("Invalid or inactive subscription")
	case err != nil:
		return gatewayFailed(c, err, "Failed to notify redemption")
	}

	return handler.OK(c, "Redemption notification sent", fiber.Map{
		"recurringPaymentId": rp.ID,
		"merchantOrderId":    rp.MerchantOrderID,
		"orderId":            resp.OrderID,
		"state":              resp.State,
		"expireAt":           resp.ExpireAt,
	})
}

type redeemRequest struct {
	RecurringPaymentID uint64 `json:"recurringPaymentId" validate:"required"`
}

// Redeem executes a notified debit.
func (s *Service) Redeem(c fiber.Ctx) error {
	var in redeemRequest
	if err := handler.Parse(c, &in); err != nil {
		return err
	}

	resp, err := s.svc.Redeem(c.Context(), in.RecurringPaymentID)
	switch {
	case errors.Is(err, membership.ErrNotFound):
		return handler.NotFound("Recurring payment")
	case err != nil:
		return gatewayFailed(c, err, "Failed to execute redemption")
	}

	return handler.OK(c, "Redemption executed", resp)
}

// RedemptionStatus refreshes the state of a debit.
func (s *Service) RedemptionStatus(c fiber.Ctx) error {
	status, err := s.svc.RefreshRedemption(c.Context(), c.Params("merchantOrderId"))
	if err != nil {
		return gatewayFailed(c, err, "Failed to check redemption order status")
	}

	return handler.OK(c, "", status)
}

// Webhook applies gateway notifications, the Authorization header is checked when credentials are configured.
func (s *Service) Webhook(c fiber.Ctx) error {
	if s.pay.WebhookConfigured() {
		if err := s.pay.Authorize(c.Get(fiber.HeaderAuthorization)); err != nil {
			logger.For(logger.ComponentPayment).Warn().Err(err).Msg("rejected membership webhook")
			return handler.Fail(c, fiber.StatusUnauthorized, "Unauthorized")
		}
	}

	cb, err := payment.ParseCallback(c.Body())
	if err != nil {
		return handler.BadRequest("Invalid callback")
	}

	if err = s.svc.HandleWebhook(c.Context(), cb); err != nil {
		logger.For(logger.ComponentPayment).Error().Err(err).Str("event", cb.Name()).Msg("membership webhook failed")
		return handler.Fail(c, fiber.StatusInternalServerError, "Error processing webhook")
	}

	return handler.OK(c, "Webhook processed", nil)
}

// List shows memberships newest first.
func (s *Service) List(c fiber.Ctx) error {
	f := membership.Filter{Email: c.Query("email"), Phone: c.Query("phone")}

	if raw := c.Query("userId"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return handler.BadRequest("Invalid user ID")
		}
		f.UserID = &id
	}

	list, err := s.svc.List(f)
	if err != nil {
		return handler.Internal(c, err, "Failed to fetch payments")
	}
	if list == nil {
		list = []models.MembershipPayment{}
	}

	return handler.OK(c, "", list)
}

// Recurring lists the debits of a membership.
func (s *Service) Recurring(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	list, err := s.svc.Recurring(id)
	if err != nil {
		return handler.Internal(c, err, "Failed to fetch recurring payments")
	}
	if list == nil {
		list = []models.RecurringPayment{}
	}

	return handler.OK(c, "", list)
}
