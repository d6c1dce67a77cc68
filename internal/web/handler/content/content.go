// Package content serves the admin api of the landing page: banners, the director message and cards.
package content

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/cache"
	"github.com/gopalparivar/dhenu-mahima/internal/db/controller/landing"
	"github.com/gopalparivar/dhenu-mahima/internal/db/controller/ordering"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/upload"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

// Path is the path of the admin content api.
const Path = "/admin"

// Service is the content handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
	db   *gorm.DB
}

// Handler is the content handler.
var Handler = Service{}

// Init registers the admin content routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() || deps.Cache == nil || deps.Uploads == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps
	s.db = deps.DB
	guard := deps.Can(auth.PermContentManage)

	router.Route(Path, func(r fiber.Router) {
		r.Get("/admin", deps.Authn, guard, s.welcome)

		r.Post("/banners/upload", deps.Authn, guard, s.uploadBanner)
		r.Put("/banners/reorder", deps.Authn, guard, s.reorderBanners)
		r.Delete("/delete-banner/:id", deps.Authn, guard, s.deleteBanner)

		r.Get("/message", deps.Authn, guard, s.message)
		r.Post("/message/upload", deps.Authn, guard, s.addMessage)
		r.Delete("/delete-message/:id", deps.Authn, guard, s.deleteMessage)

		r.Get("/cards", deps.Authn, guard, s.cards)
		r.Post("/add-card", deps.Authn, guard, s.addCard)
		r.Put("/edit-card/:id", deps.Authn, guard, s.editCard)
		r.Put("/cards/reorder", deps.Authn, guard, s.reorderCards)
		r.Delete("/delete-card/:id", deps.Authn, guard, s.deleteCard)
	})

	return nil
}

func (s *Service) welcome(c fiber.Ctx) error {
	return handler.OK(c, "Welcome Admin", nil)
}

func (s *Service) uploadBanner(c fiber.Ctx) error {
	saved, err := handler.Upload(c, s.deps.Uploads, "file", upload.FolderBanners, upload.KindImage, true)
	if err != nil {
		return err
	}

	order, err := strconv.Atoi(c.FormValue("order"))
	if err != nil {
		if order, err = ordering.Next(s.db, &models.Banner{}); err != nil {
			handler.Discard(s.deps.Uploads, saved.Path)
			return err
		}
	}

	banner := models.Banner{
		Title:     strings.TrimSpace(c.FormValue("title")),
		ImageURL:  saved.URL,
		ImagePath: saved.Path,
		SortOrder: order,
	}

	if err = s.db.Create(&banner).Error; err != nil {
		handler.Discard(s.deps.Uploads, saved.Path)
		return err
	}

	cache.Invalidate(c.Context(), s.deps.Cache, cache.KeyBanners)

	return handler.Created(c, "Banner uploaded successfully", banner)
}

func (s *Service) deleteBanner(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	var banner models.Banner
	if err = s.db.First(&banner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound("Banner")
		}

		return err
	}

	if err = s.db.Delete(&banner).Error; err != nil {
		return err
	}

	handler.Discard(s.deps.Uploads, banner.ImagePath)
	cache.Invalidate(c.Context(), s.deps.Cache, cache.KeyBanners)

	return handler.OK(c, "Banner deleted successfully", nil)
}

type reorderRequest struct {
	OrderList []ordering.Item `json:"orderList" validate:"required,min=1,dive"`
}

func (s *Service) reorder(c fiber.Ctx, model interface{}, key string) error {
	var in reorderRequest
	if err := c.Bind().WithoutAutoHandling().Body(&in); err != nil || handler.Validate(&in) != nil {
		return handler.BadRequest("Invalid order list")
	}

	if err := ordering.Apply(s.db, model, in.OrderList); err != nil {
		if errors.Is(err, ordering.ErrEmptyList) || errors.Is(err, ordering.ErrInvalidItem) {
			return handler.BadRequest("Invalid order list")
		}

		return err
	}

	cache.Invalidate(c.Context(), s.deps.Cache, key)

	return nil
}

func (s *Service) reorderBanners(c fiber.Ctx) error {
	if err := s.reorder(c, &models.Banner{}, cache.KeyBanners); err != nil {
		return err
	}

	return handler.OK(c, "Banner order updated", nil)
}

func (s *Service) message(c fiber.Ctx) error {
	m, err := cache.Remember(c.Context(), s.deps.Cache, cache.KeyDirectorMessage, cache.TTLDirectorMessage,
		func() (*models.DirectorMessage, error) { return landing.LatestMessage(s.db) })
	if errors.Is(err, landing.ErrNoMessage) {
		return handler.NotFound("Message")
	}

	if err != nil {
		return err
	}

	return handler.OK(c, "", m)
}

type messageRequest struct {
	Info string `json:"info"`
}

func (s *Service) addMessage(c fiber.Ctx) error {
	var in messageRequest
	if err := c.Bind().WithoutAutoHandling().Body(&in); err != nil || strings.TrimSpace(in.Info) == "" {
		return handler.BadRequest("Message info is required")
	}

	m := models.DirectorMessage{Info: strings.TrimSpace(in.Info)}
	if err := s.db.Create(&m).Error; err != nil {
		return err
	}

	cache.Invalidate(c.Context(), s.deps.Cache, cache.KeyDirectorMessage)

	return handler.Created(c, "Message added successfully", m)
}

func (s *Service) deleteMessage(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	res := s.db.Delete(&models.DirectorMessage{}, id)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return handler.NotFound("Message")
	}

	cache.Invalidate(c.Context(), s.deps.Cache, cache.KeyDirectorMessage)

	return handler.OK(c, "Message deleted successfully", nil)
}

func (s *Service) cards(c fiber.Ctx) error {
	cards, err := cache.Remember(c.Context(), s.deps.Cache, cache.KeyCards, cache.TTLCards,
		func() ([]models.Card, error) { return landing.Cards(s.db) })
	if err != nil {
		return err
	}

	return handler.OK(c, "", cards)
}

type cardRequest struct {
	Title   *string `json:"title"`
	TitleEn *string `json:"titleEn"`
	Link    *string `json:"link"`
	Image   *string `json:"image"`
}

func blank(p *string) bool {
	return p == nil || strings.TrimSpace(*p) == ""
}

func value(p *string) string {
	if p == nil {
		return ""
	}

	return strings.TrimSpace(*p)
}

func (s *Service) addCard(c fiber.Ctx) error {
	var in cardRequest
	if err := c.Bind().WithoutAutoHandling().Body(&in); err != nil || blank(in.Title) || blank(in.Link) {
		return handler.BadRequest("Title and link are required")
	}

	order, err := ordering.Next(s.db, &models.Card{})
	if err != nil {
		return err
	}

	card := models.Card{
		Title:     value(in.Title),
		TitleEn:   value(in.TitleEn),
		Link:      value(in.Link),
		Image:     value(in.Image),
		SortOrder: order,
	}

	if err = s.db.Create(&card).Error; err != nil {
		return err
	}

	cache.Invalidate(c.Context(), s.deps.Cache, cache.KeyCards)

	return handler.Created(c, "Card added successfully", card)
}

func (s *Service) editCard(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	var in cardRequest
	if err = handler.Parse(c, &in); err != nil {
		return err
	}

	if (in.Title != nil && blank(in.Title)) || (in.Link != nil && blank(in.Link)) {
		return handler.BadRequest("Title and link cannot be empty")
	}

	updates := map[string]interface{}{}

	for column, v := range map[string]*string{"title": in.Title, "title_en": in.TitleEn, "link": in.Link, "image": in.Image} {
		if v != nil {
			updates[column] = strings.TrimSpace(*v)
		}
	}

	var card models.Card
	if err = s.db.First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound("Card")
		}

		return err
	}

	if len(updates) > 0 {
		if err = s.db.Model(&models.Card{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
	}

	if err = s.db.First(&card, id).Error; err != nil {
		return err
	}

	cache.Invalidate(c.Context(), s.deps.Cache, cache.KeyCards)

	return handler.OK(c, "Card updated successfully", card)
}

func (s *Service) deleteCard(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	res := s.db.Delete(&models.Card{}, id)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return handler.NotFound("Card")
	}

	cache.Invalidate(c.Context(), s.deps.Cache, cache.KeyCards)

	return handler.OK(c, "Card deleted successfully", nil)
}

func (s *Service) reorderCards(c fiber.Ctx) error {
	if err := s.reorder(c, &models.Card{}, cache.KeyCards); err != nil {
		return err
	}

	return handler.OK(c, "Card order updated", nil)
}
