// Package gopalpariwar manages the profile pages of the gopal pariwar section.
package gopalpariwar

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/cache"
	"github.com/gopalparivar/dhenu-mahima/internal/db/controller/ordering"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/upload"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

// Path is the base path of the gopal pariwar api.
const Path = "/admin/gopalpariwar"

// Service manages gopal pariwar members.
type Service struct {
	handler.Service
	deps *handler.Deps
	db   *gorm.DB
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() || deps.Cache == nil || deps.Uploads == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps
	s.db = deps.DB
	write := deps.Can(auth.PermFoundationsWrite)

	router.Route(Path, func(r fiber.Router) {
		r.Get(handler.RootPath, s.List)
		r.Get(handler.IDPath, s.Get)
		r.Post(handler.RootPath, deps.Authn, write, s.Create)
		r.Put(handler.IDPath, deps.Authn, write, s.Update)
		r.Delete(handler.IDPath, deps.Authn, write, s.Delete)
	})

	return nil
}

// sections are the json documents of a profile, keyed by form field.
var sections = map[string]string{ //nolint:gochecknoglobals
	"personalInfo":       "personal_info",
	"spiritualEducation": "spiritual_education",
	"lifeJourney":        "life_journey",
	"responsibilities":   "responsibilities",
	"pledges":            "pledges",
	"socialLinks":        "social_links",
}

// document keeps valid json as is and stores anything else as a json string.
func document(v string) models.JSON {
	if v == "" {
		return nil
	}

	if json.Valid([]byte(v)) {
		return models.JSON(v)
	}

	raw, _ := json.Marshal(v)

	return models.JSON(raw)
}

func (s *Service) load(id uint64) (*models.GopalPariwarMember, error) {
	var m models.GopalPariwarMember

	err := s.db.First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, handler.NotFound("GopalPariwar")
	}

	return &m, err
}

// List shows members by position.
func (s *Service) List(c fiber.Ctx) error {
	list := []models.GopalPariwarMember{}
	if err := s.db.Order("sort_order ASC, id ASC").Find(&list).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch data")
	}

	return handler.OK(c, "", list)
}

// Get shows one member.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	m, err := s.load(id)
	if err != nil {
		return err
	}

	return handler.OK(c, "", m)
}

// Create stores a member at the end of the list.
func (s *Service) Create(c fiber.Ctx) error {
	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	if f.Str("heroTitle") == "" {
		return handler.BadRequest("Hero title is required")
	}

	hero, err := handler.Upload(c, s.deps.Uploads, "heroImage", upload.FolderImages, upload.KindImage, true)
	if err != nil {
		return err
	}

	m := models.GopalPariwarMember{
		HeroImage:          hero.URL,
		HeroTitle:          f.Str("heroTitle"),
		HeroSubtitle:       f.Str("heroSubtitle"),
		PersonalInfo:       document(f.Str("personalInfo")),
		SpiritualEducation: document(f.Str("spiritualEducation")),
		LifeJourney:        document(f.Str("lifeJourney")),
		Responsibilities:   document(f.Str("responsibilities")),
		Pledges:            document(f.Str("pledges")),
		SocialLinks:        document(f.Str("socialLinks")),
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if m.SortOrder, err = ordering.Next(tx, &models.GopalPariwarMember{}); err != nil {
			return err
		}

		return tx.Create(&m).Error
	})
	if err != nil {
		handler.Discard(s.deps.Uploads, hero.Path)
		return handler.Internal(c, err, "Failed to create GopalPariwar data")
	}

	cache.Invalidate(c.Context(), s.deps.Cache, cache.KeyGopalPariwar)

	return handler.Created(c, "GopalPariwar created successfully", m)
}

// Update applies the submitted fields and moves the member when order changes.
func (s *Service) Update(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	old, err := s.load(id)
	if err != nil {
		return err
	}

	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}

	if v := f.Str("heroTitle"); v != "" {
		updates["hero_title"] = v
	}

	if f.Has("heroSubtitle") {
		updates["hero_subtitle"] = f.Str("heroSubtitle")
	}

	for field, column := range sections {
		if f.Has(field) {
			updates[column] = document(f.Str(field))
		}
	}

	order := old.SortOrder
	if f.Str("order") != "" {
		if order = f.Int("order", 0); order < 1 {
			return handler.BadRequest("Invalid order")
		}
		updates["sort_order"] = order
	}

	hero, err := handler.Upload(c, s.deps.Uploads, "heroImage", upload.FolderImages, upload.KindImage, false)
	if err != nil {
		return err
	}
	if hero != nil {
		updates["hero_image"] = hero.URL
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := ordering.Shift(tx, &models.GopalPariwarMember{}, id, old.SortOrder, order); err != nil {
			return err
		}

		if len(updates) == 0 {
			return nil
		}

		return tx.Model(&models.GopalPariwarMember{}).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		handler.Discard(s.deps.Uploads, handler.Uploaded(hero)...)
		return handler.Internal(c, err, "Failed to update data")
	}

	if hero != nil {
		handler.Discard(s.deps.Uploads, old.HeroImage)
	}

	cache.Invalidate(c.Context(), s.deps.Cache, cache.KeyGopalPariwar)

	m, err := s.load(id)
	if err != nil {
		return err
	}

	return handler.OK(c, "GopalPariwar updated successfully", m)
}

// Delete removes a member and closes the gap it leaves.
func (s *Service) Delete(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	old, err := s.load(id)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.GopalPariwarMember{}, id).Error; err != nil {
			return err
		}

		return ordering.Close(tx, &models.GopalPariwarMember{}, old.SortOrder)
	})
	if err != nil {
		return handler.Internal(c, err, "Failed to delete data")
	}

	handler.Discard(s.deps.Uploads, old.HeroImage)
	cache.Invalidate(c.Context(), s.deps.Cache, cache.KeyGopalPariwar)

	return handler.OK(c, "Deleted successfully and order updated", nil)
}
