// Package bookpayment sells pdf books through the payment gateway.
package bookpayment

import (
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/db/controller/bookorder"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/logger"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

// Path is the base path of the book payment api.
const Path = "/pdf-payment"

// Payment states reported to the frontend.
const (
	StatusSuccess = "PAYMENT_SUCCESS"
	StatusFailed  = "PAYMENT_FAILED"
	StatusPending = "PENDING"
)

const noCoupon = "NO_COUPON"

// Service sells books.
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

	router.Route(Path, func(r fiber.Router) {
		r.Post("/create-order", deps.Authn, s.CreateOrder)
		r.Get("/callback", s.Callback)
		r.Post("/webhook", s.Webhook)
		r.Get("/status/:transactionId", deps.Authn, s.Status)
		r.Get("/books/purchased/:userId", deps.Authn, s.Purchased)
	})

	return nil
}

type createOrderRequest struct {
	BookID     json.Number `json:"bookId"`
	CouponCode string      `json:"couponCode"`
}

// bookSummary is the part of a book shown with orders and purchases.
type bookSummary struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	Author      string `json:"author"`
	CoverImage  string `json:"coverImage"`
	Description string `json:"description,omitempty"`
}

// quote prices a book, an active coupon lowers the price. Unknown or inactive codes are ignored.
func (s *Service) quote(price decimal.Decimal, code string) (decimal.Decimal, *models.BookCoupon, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return decimal.Zero, nil, nil
	}

	var coupon models.BookCoupon

	err := s.db.Where("code = ? AND active = ?", code, true).First(&coupon).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, nil, nil
	}
	if err != nil {
		return decimal.Zero, nil, err
	}

	return coupon.DiscountFor(price), &coupon, nil
}

// CreateOrder starts a checkout for one book.
func (s *Service) CreateOrder(c fiber.Ctx) error {
	var in createOrderRequest
	if err := c.Bind().WithoutAutoHandling().Body(&in); err != nil {
		return handler.BadRequest("Invalid request body")
	}

	bookID, err := strconv.ParseUint(in.BookID.String(), 10, 64)
	if err != nil || bookID == 0 {
		return handler.BadRequest("Book ID is required")
	}

	claims := auth.ClaimsFrom(c)

	var book models.Book
	if err = s.db.First(&book, bookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound("Book")
		}
		return handler.Internal(c, err, "Failed to initiate payment")
	}

	var owned int64
	if err = s.db.Model(&models.BookPurchase{}).
		Where("user_id = ? AND book_id = ?", claims.ID, book.ID).Count(&owned).Error; err != nil {
		return handler.Internal(c, err, "Failed to initiate payment")
	}
	if owned > 0 {
		return handler.BadRequest("You have already purchased this book")
	}

	discount, coupon, err := s.quote(book.Price, in.CouponCode)
	if err != nil {
		return handler.Internal(c, err, "Failed to initiate payment")
	}

	final := book.Price.Sub(discount)
	orderID := uuid.NewString()

	udf4 := noCoupon
	if code := strings.TrimSpace(in.CouponCode); code != "" {
		udf4 = code
	}

	resp, err := s.pay.Pay(c.Context(), payment.PayRequest{
		MerchantOrderID: orderID,
		AmountPaise:     final.Shift(2).Round(0).IntPart(), //nolint:mnd
		RedirectURL:     s.deps.Cfg.Webserver.BackendURL + "/api" + Path + "/callback?transactionId=" + url.QueryEscape(orderID),
		Meta: payment.MetaInfo{
			UDF1: strconv.FormatUint(claims.ID, 10),
			UDF2: "Book Purchase: " + book.Name,
			UDF3: strconv.FormatUint(book.ID, 10),
			UDF4: udf4,
		},
	})
	if err != nil || resp.RedirectURL == "" {
		logger.For(logger.ComponentPayment).Error().Err(err).Str("order", orderID).Msg("book checkout failed")
		return handler.Fail(c, fiber.StatusInternalServerError, "Failed to initiate payment")
	}

	order := models.BookOrder{
		UserID:         claims.ID,
		OrderID:        orderID,
		TotalAmount:    book.Price,
		DiscountAmount: discount,
		FinalAmount:    final,
		Status:         models.OrderPending,
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
	}

	meta, _ := json.Marshal(fiber.Map{"bookId": book.ID, "couponCode": udf4}) //nolint:errchkjson

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.BookOrderItem{OrderID: order.ID, BookID: book.ID, Price: final}).Error; err != nil {
			return err
		}

		return tx.Create(&models.Payment{
			UserID:      &claims.ID,
			ReferenceID: orderID,
			Provider:    models.ProviderPhonePe,
			Amount:      final,
			Status:      models.PaymentPending,
			Type:        models.PaymentTypeBook,
			Metadata:    models.JSON(meta),
		}).Error
	})
	if err != nil {
		return handler.Internal(c, err, "Failed to store book order")
	}

	logger.For(logger.ComponentPayment).Info().Str("order", orderID).Uint64("user", claims.ID).Uint64("book", book.ID).
		Str("amount", final.String()).Msg("book payment initiated")

	return c.JSON(fiber.Map{
		"success":        true,
		"message":        "Payment initiated successfully",
		"paymentUrl":     resp.RedirectURL,
		"transactionId":  orderID,
		"amount":         final,
		"originalAmount": book.Price,
		"discount":       discount,
		"couponApplied":  coupon != nil,
	})
}

// refresh asks the gateway for the order state and settles it.
func (s *Service) refresh(c fiber.Ctx, orderID string) (*models.BookOrder, error) {
	state, paymentID := payment.StatePending, ""

	status, err := s.pay.OrderStatus(c.Context(), orderID)
	if err != nil {
		logger.For(logger.ComponentPayment).Warn().Err(err).Str("order", orderID).Msg("book order status lookup failed")
	} else {
		state, paymentID = status.State, status.TransactionID()
	}

	return bookorder.Settle(s.db, orderID, state, paymentID)
}

// Callback is where the payer returns to after paying.
func (s *Service) Callback(c fiber.Ctx) error {
	orderID := c.Query("transactionId")
	if orderID == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing transactionId in callback")
	}

	frontend := s.deps.Cfg.Webserver.FrontendURL
	failed := frontend + "/donation-status?status=failed&transactionId=" + url.QueryEscape(orderID)

	order, err := s.refresh(c, orderID)
	switch {
	case errors.Is(err, bookorder.ErrOrderNotFound):
		logger.For(logger.ComponentPayment).Warn().Str("order", orderID).Msg("callback for unknown book order")
		return c.Redirect().Status(fiber.StatusFound).To(failed)
	case err != nil:
		logger.For(logger.ComponentPayment).Error().Err(err).Str("order", orderID).Msg("failed to settle book order")
		return c.Redirect().Status(fiber.StatusFound).To(frontend + "/books?payment=error")
	}

	if order.Status == models.OrderSuccess {
		return c.Redirect().Status(fiber.StatusFound).To(frontend + "/pdf-books")
	}

	return c.Redirect().Status(fiber.StatusFound).To(failed)
}

// Webhook receives server to server notifications of the gateway.
func (s *Service) Webhook(c fiber.Ctx) error {
	cb, err := s.pay.ValidateCallback(c.Get(fiber.HeaderAuthorization), c.Body())

	switch {
	case errors.Is(err, payment.ErrMissingAuthorization):
		return c.Status(fiber.StatusBadRequest).SendString("Missing Authorization header")
	case err != nil:
		logger.For(logger.ComponentPayment).Warn().Err(err).Msg("rejected book payment webhook")
		return c.Status(fiber.StatusBadRequest).SendString("Invalid callback")
	}

	orderID := cb.MerchantOrderID()

	_, err = bookorder.Settle(s.db, orderID, cb.CheckoutState(), cb.TransactionID())
	switch {
	case errors.Is(err, bookorder.ErrOrderNotFound):
		logger.For(logger.ComponentPayment).Warn().Str("order", orderID).Msg("webhook for unknown book order")
	case err != nil:
		logger.For(logger.ComponentPayment).Error().Err(err).Str("order", orderID).Msg("failed to settle book order")
		return c.Status(fiber.StatusInternalServerError).SendString("Webhook handling failed")
	}

	return c.SendString("OK")
}

// Status reports an order of the caller, pending orders are looked up at the gateway first.
func (s *Service) Status(c fiber.Ctx) error {
	orderID := c.Params("transactionId")
	claims := auth.ClaimsFrom(c)

	order, err := bookorder.Find(s.db, orderID)
	if errors.Is(err, bookorder.ErrOrderNotFound) || (err == nil && order.UserID != claims.ID) {
		return handler.NotFound("Payment")
	}
	if err != nil {
		return handler.Internal(c, err, "Failed to check payment status")
	}

	if order.Status == models.OrderPending {
		if settled, err := s.refresh(c, orderID); err != nil {
			logger.For(logger.ComponentPayment).Error().Err(err).Str("order", orderID).Msg("failed to settle book order")
		} else {
			order = settled
		}
	}

	books := make([]bookSummary, 0, len(order.Items))
	for _, item := range order.Items {
		books = append(books, bookSummary{
			ID:         item.Book.ID,
			Name:       item.Book.Name,
			Author:     item.Book.Author,
			CoverImage: item.Book.CoverImage,
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"paymentStatus": frontendStatus(order.Status),
		"transactionId": order.OrderID,
		"amount":        order.FinalAmount,
		"discount":      order.DiscountAmount,
		"books":         books,
		"createdAt":     order.CreatedAt,
	})
}

func frontendStatus(status string) string {
	switch status {
	case models.OrderSuccess:
		return StatusSuccess
	case models.OrderFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}

type purchased struct {
	bookSummary
	BookID        uint64    `json:"bookId"`
	AccessGranted bool      `json:"accessGranted"`
	PurchaseDate  time.Time `json:"purchaseDate"`
}

// Purchased lists the books a user may read.
func (s *Service) Purchased(c fiber.Ctx) error {
	userID, err := handler.ID(c, "userId")
	if err != nil {
		return err
	}

	if !auth.SelfOrAdmin(c, userID) {
		return handler.Fail(c, fiber.StatusForbidden, "Access denied")
	}

	var rows []models.BookPurchase
	if err = s.db.Preload("Book").Where("user_id = ? AND access_granted = ?", userID, true).
		Order("created_at DESC, id DESC").Find(&rows).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch purchased books")
	}

	list := make([]purchased, 0, len(rows))
	for _, p := range rows {
		list = append(list, purchased{
			bookSummary: bookSummary{
				ID:          p.Book.ID,
				Name:        p.Book.Name,
				Author:      p.Book.Author,
				CoverImage:  p.Book.CoverImage,
				Description: p.Book.Description,
			},
			BookID:        p.BookID,
			AccessGranted: p.AccessGranted,
			PurchaseDate:  p.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{"success": true, "purchases": list})
}
