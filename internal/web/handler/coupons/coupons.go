// Package coupons manages discount codes of the book store.
package coupons

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

// Path is the base path of the coupon api.
const Path = "/coupons"

const (
	msgCodeExists   = "Coupon code already exists"
	msgInvalidType  = "Type must be either PERCENTAGE or FIXED"
	msgPercentRange = "Percentage discount must be between 0 and 100"
	msgPositive     = "Discount must be greater than 0"

	orderCountSelect = "book_coupons.*, " +
		"(SELECT COUNT(*) FROM book_orders WHERE book_orders.coupon_id = book_coupons.id) AS order_count"
)

var hundred = decimal.NewFromInt(100) //nolint:gochecknoglobals,mnd

// View is a coupon with the number of orders it was used in.
type View struct {
	models.BookCoupon
	OrderCount int64 `json:"orderCount"`
}

// Service manages coupons.
type Service struct {
	handler.Service
	db *gorm.DB
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.db = deps.DB
	write := deps.Can(auth.PermCouponsWrite)

	router.Route(Path, func(r fiber.Router) {
		r.Get(handler.RootPath, deps.Authn, write, s.List)
		r.Get(handler.IDPath, deps.Authn, write, s.Get)
		r.Post(handler.RootPath, deps.Authn, write, s.Create)
		r.Post("/validate", deps.Authn, s.Validate)
		r.Put(handler.IDPath, deps.Authn, write, s.Update)
		r.Patch("/toggle/:id", deps.Authn, write, s.Toggle)
		r.Delete(handler.IDPath, deps.Authn, deps.Can(auth.PermCouponsDelete), s.Delete)
	})

	return nil
}

func (s *Service) views() *gorm.DB {
	return s.db.Model(&models.BookCoupon{}).Select(orderCountSelect)
}

func (s *Service) view(id uint64) (*View, error) {
	var v View
	if err := s.views().Where("book_coupons.id = ?", id).Take(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, handler.NotFound("Coupon")
		}

		return nil, err
	}

	return &v, nil
}

// List shows every coupon, newest first.
func (s *Service) List(c fiber.Ctx) error {
	out := []View{}
	if err := s.views().Order("book_coupons.created_at DESC, book_coupons.id DESC").Find(&out).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch coupons")
	}

	return handler.OK(c, "", fiber.Map{"coupons": out})
}

// Get shows one coupon.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	v, err := s.view(id)
	if err != nil {
		return err
	}

	return handler.OK(c, "", fiber.Map{"coupon": v})
}

// checkDiscount validates a discount for the coupon type.
func checkDiscount(kind string, d decimal.Decimal) error {
	if kind != models.CouponPercentage && kind != models.CouponFixed {
		return handler.BadRequest(msgInvalidType)
	}

	if kind == models.CouponPercentage && (d.IsNegative() || d.GreaterThan(hundred)) {
		return handler.BadRequest(msgPercentRange)
	}

	if !d.IsPositive() {
		return handler.BadRequest(msgPositive)
	}

	return nil
}

func parseDiscount(v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, handler.BadRequest("Invalid discount")
	}

	return d, nil
}

func (s *Service) codeTaken(code string, except uint64) (bool, error) {
	var n int64
	err := s.db.Model(&models.BookCoupon{}).Where("code = ? AND id <> ?", code, except).Count(&n).Error

	return n > 0, err
}

// Create stores an active coupon.
func (s *Service) Create(c fiber.Ctx) error {
	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	code := strings.ToUpper(f.Str("code"))
	kind := strings.ToUpper(f.Str("type"))

	if code == "" || f.Str("discount") == "" || kind == "" {
		return handler.BadRequest("Code, discount, and type are required")
	}

	d, err := parseDiscount(f.Str("discount"))
	if err != nil {
		return err
	}

	if err = checkDiscount(kind, d); err != nil {
		return err
	}

	taken, err := s.codeTaken(code, 0)
	if err != nil {
		return err
	}

	if taken {
		return handler.BadRequest(msgCodeExists)
	}

	coupon := models.BookCoupon{
		Code:        code,
		Discount:    d,
		Type:        kind,
		Description: f.Str("description"),
		Active:      true,
	}

	if err = s.db.Create(&coupon).Error; err != nil {
		return handler.Internal(c, err, "Failed to create coupon")
	}

	return handler.Created(c, "Coupon created successfully", fiber.Map{"coupon": coupon})
}

// Update applies the submitted fields with the same checks as Create.
func (s *Service) Update(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	var coupon models.BookCoupon
	if err = s.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound("Coupon")
		}

		return err
	}

	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	kind, d := coupon.Type, coupon.Discount

	if code := strings.ToUpper(f.Str("code")); code != "" && code != coupon.Code {
		taken, err := s.codeTaken(code, id)
		if err != nil {
			return err
		}

		if taken {
			return handler.BadRequest(msgCodeExists)
		}

		updates["code"] = code
	}

	if v := f.Str("type"); v != "" {
		kind = strings.ToUpper(v)
		updates["type"] = kind
	}

	if v := f.Str("discount"); v != "" {
		if d, err = parseDiscount(v); err != nil {
			return err
		}

		updates["discount"] = d
	}

	if err = checkDiscount(kind, d); err != nil {
		return err
	}

	if f.Has("description") {
		updates["description"] = f.Str("description")
	}

	if f.Has("active") {
		updates["active"] = f.Bool("active")
	}

	if len(updates) > 0 {
		if err = s.db.Model(&models.BookCoupon{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return handler.Internal(c, err, "Failed to update coupon")
		}
	}

	v, err := s.view(id)
	if err != nil {
		return err
	}

	return handler.OK(c, "Coupon updated successfully", fiber.Map{"coupon": v})
}

// Delete removes a coupon that no order refers to.
func (s *Service) Delete(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	v, err := s.view(id)
	if err != nil {
		return err
	}

	if v.OrderCount > 0 {
		return handler.BadRequest(fmt.Sprintf("Cannot delete coupon. It has been used in %d order(s).", v.OrderCount))
	}

	if err = s.db.Delete(&models.BookCoupon{}, id).Error; err != nil {
		return handler.Internal(c, err, "Failed to delete coupon")
	}

	return handler.OK(c, "Coupon deleted successfully", nil)
}

// Toggle flips the active flag.
func (s *Service) Toggle(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	var coupon models.BookCoupon
	if err = s.db.First(&coupon, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound("Coupon")
		}

		return err
	}

	coupon.Active = !coupon.Active
	if err = s.db.Model(&models.BookCoupon{}).Where("id = ?", id).Update("active", coupon.Active).Error; err != nil {
		return handler.Internal(c, err, "Failed to toggle coupon status")
	}

	state := "deactivated"
	if coupon.Active {
		state = "activated"
	}

	return handler.OK(c, fmt.Sprintf("Coupon %s successfully", state), fiber.Map{"coupon": coupon})
}

type validateRequest struct {
	Code   string `json:"code"`
	BookID uint64 `json:"bookId"`
}

// Validate prices a book with a coupon.
func (s *Service) Validate(c fiber.Ctx) error {
	var in validateRequest
	if err := c.Bind().WithoutAutoHandling().Body(&in); err != nil || strings.TrimSpace(in.Code) == "" || in.BookID == 0 {
		return handler.BadRequest("Coupon code and bookId are required")
	}

	var coupon models.BookCoupon
	if err := s.db.Where("code = ?", strings.ToUpper(strings.TrimSpace(in.Code))).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Invalid coupon code")
		}

		return err
	}

	if !coupon.Active {
		return handler.BadRequest("This coupon is no longer active")
	}

	var book models.Book
	if err := s.db.First(&book, in.BookID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound("Book")
		}

		return err
	}

	discount := coupon.DiscountFor(book.Price)

	return handler.OK(c, "Coupon applied successfully", fiber.Map{
		"coupon": fiber.Map{
			"id":          coupon.ID,
			"code":        coupon.Code,
			"discount":    coupon.Discount,
			"type":        coupon.Type,
			"description": coupon.Description,
		},
		"discountAmount": discount,
		"finalAmount":    book.Price.Sub(discount).Round(2), //nolint:mnd
	})
}
