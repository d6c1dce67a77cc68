// Package foundations manages the foundations run by the organisation with their
// stats, activities, objectives and contact details.
package foundations

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/cache"
	"github.com/gopalparivar/dhenu-mahima/internal/db/controller/ordering"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/upload"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

const (
	// Path is the base path of the foundation api.
	Path = "/admin/foundation"

	// DefaultPageSize for pagination.
	DefaultPageSize = 10
)

// Service manages foundations.
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

// Pagination describes a page of the listing.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// Listing is one cached page of foundations.
type Listing struct {
	Data       []models.Foundation `json:"data"`
	Pagination Pagination          `json:"pagination"`
}

func byDisplayOrder(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC, id ASC")
}

func (s *Service) withChildren() *gorm.DB {
	return s.db.Preload("Stats", byDisplayOrder).
		Preload("Activities", byDisplayOrder).
		Preload("Objectives", byDisplayOrder).
		Preload("Contact")
}

func (s *Service) invalidate(c fiber.Ctx, id uint64) {
	cache.InvalidatePattern(c.Context(), s.deps.Cache, cache.PatternFoundationPages)
	cache.Invalidate(c.Context(), s.deps.Cache, cache.FoundationKey(id), cache.KeyFoundations)
}

// List shows foundations by position, filtered by search and isActive.
func (s *Service) List(c fiber.Ctx) error {
	p := handler.Paging(c, DefaultPageSize, 100) //nolint:mnd
	search := strings.TrimSpace(c.Query("search"))
	active := c.Query("isActive")

	out, err := cache.Remember(c.Context(), s.deps.Cache, cache.FoundationListKey(p.Page, p.Limit, search, active),
		cache.TTLFoundationPage, func() (Listing, error) {
			filter := func(tx *gorm.DB) *gorm.DB {
				if search != "" {
					like := "%" + search + "%"
					tx = tx.Where("name LIKE ? OR description LIKE ?", like, like)
				}

				if active != "" {
					tx = tx.Where("is_active = ?", active == "true")
				}

				return tx
			}

			var total int64
			if err := s.db.Model(&models.Foundation{}).Scopes(filter).Count(&total).Error; err != nil {
				return Listing{}, err
			}

			list := []models.Foundation{}
			if err := s.withChildren().Scopes(filter).Order("sort_order ASC, id ASC").
				Limit(p.Limit).Offset(p.Offset()).Find(&list).Error; err != nil {
				return Listing{}, err
			}

			return Listing{Data: list, Pagination: Pagination{
				Total:      total,
				Page:       p.Page,
				Limit:      p.Limit,
				TotalPages: p.TotalPages(total),
			}}, nil
		})
	if err != nil {
		return handler.Internal(c, err, "Failed to fetch foundations")
	}

	return c.JSON(fiber.Map{"success": true, "data": out.Data, "pagination": out.Pagination})
}

func (s *Service) load(id uint64) (*models.Foundation, error) {
	var f models.Foundation

	err := s.withChildren().First(&f, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, handler.NotFound("Foundation")
	}

	return &f, err
}

// Get shows one foundation.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	f, err := cache.Remember(c.Context(), s.deps.Cache, cache.FoundationKey(id), cache.TTLFoundationPage,
		func() (*models.Foundation, error) { return s.load(id) })
	if err != nil {
		return err
	}

	return handler.OK(c, "", f)
}

type statInput struct {
	Label string          `json:"label"`
	Value json.RawMessage `json:"value"`
}

type objectiveInput struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	ObjectiveType string `json:"objectiveType"`
}

type contactInput struct {
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	Address          string          `json:"address"`
	Website          string          `json:"website"`
	SocialMediaLinks json.RawMessage `json:"socialMediaLinks"`
}

// text renders a json scalar as plain text, strings lose their quotes.
func text(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	return strings.TrimSpace(string(raw))
}

// children holds the submitted nested collections, a nil slice was not submitted.
type children struct {
	stats      []models.FoundationStat
	activities []models.FoundationActivity
	objectives []models.FoundationObjective
	contact    *models.FoundationContact
}

func decode(f handler.Form, key string, v interface{}) error {
	if err := json.Unmarshal([]byte(f[key]), v); err != nil {
		return handler.BadRequest("Invalid " + key)
	}

	return nil
}

func parseChildren(f handler.Form) (*children, error) {
	out := &children{}

	if f.Has("stats") {
		var in []statInput
		if err := decode(f, "stats", &in); err != nil {
			return nil, err
		}

		out.stats = make([]models.FoundationStat, 0, len(in))
		for i, st := range in {
			out.stats = append(out.stats, models.FoundationStat{Label: st.Label, Value: text(st.Value), DisplayOrder: i})
		}
	}

	if f.Has("activities") {
		var in []string
		if err := decode(f, "activities", &in); err != nil {
			return nil, err
		}

		out.activities = make([]models.FoundationActivity, 0, len(in))
		for i, a := range in {
			out.activities = append(out.activities, models.FoundationActivity{ActivityText: a, DisplayOrder: i})
		}
	}

	if f.Has("objectives") {
		var in []objectiveInput
		if err := decode(f, "objectives", &in); err != nil {
			return nil, err
		}

		out.objectives = make([]models.FoundationObjective, 0, len(in))
		for i, o := range in {
			kind := o.ObjectiveType
			if kind == "" {
				kind = models.DefaultObjectiveType
			}

			out.objectives = append(out.objectives, models.FoundationObjective{
				Title:         o.Title,
				Description:   o.Description,
				ObjectiveType: kind,
				DisplayOrder:  i,
			})
		}
	}

	if f.Has("contact") {
		var in contactInput
		if err := decode(f, "contact", &in); err != nil {
			return nil, err
		}

		links := models.JSON(in.SocialMediaLinks)
		if len(links) == 0 || string(links) == "null" {
			links = models.JSON("{}")
		}

		out.contact = &models.FoundationContact{
			Email:            in.Email,
			Phone:            in.Phone,
			Address:          in.Address,
			Website:          in.Website,
			SocialMediaLinks: links,
		}
	}

	return out, nil
}

// replace swaps the submitted collections of foundation id.
func (ch *children) replace(tx *gorm.DB, id uint64) error {
	if ch.stats != nil {
		if err := tx.Where("foundation_id = ?", id).Delete(&models.FoundationStat{}).Error; err != nil {
			return err
		}
		for i := range ch.stats {
			ch.stats[i].FoundationID = id
		}
		if len(ch.stats) > 0 {
			if err := tx.Create(&ch.stats).Error; err != nil {
				return err
			}
		}
	}

	if ch.activities != nil {
		if err := tx.Where("foundation_id = ?", id).Delete(&models.FoundationActivity{}).Error; err != nil {
			return err
		}
		for i := range ch.activities {
			ch.activities[i].FoundationID = id
		}
		if len(ch.activities) > 0 {
			if err := tx.Create(&ch.activities).Error; err != nil {
				return err
			}
		}
	}

	if ch.objectives != nil {
		if err := tx.Where("foundation_id = ?", id).Delete(&models.FoundationObjective{}).Error; err != nil {
			return err
		}
		for i := range ch.objectives {
			ch.objectives[i].FoundationID = id
		}
		if len(ch.objectives) > 0 {
			if err := tx.Create(&ch.objectives).Error; err != nil {
				return err
			}
		}
	}

	if ch.contact != nil {
		if err := tx.Where("foundation_id = ?", id).Delete(&models.FoundationContact{}).Error; err != nil {
			return err
		}
		ch.contact.FoundationID = id
		if err := tx.Create(ch.contact).Error; err != nil {
			return err
		}
	}

	return nil
}

func year(f handler.Form) (int, error) {
	v := f.Str("establishedYear")
	if v == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, handler.BadRequest("Invalid established year")
	}

	return n, nil
}

// Create stores a foundation with its logo and nested collections.
func (s *Service) Create(c fiber.Ctx) error {
	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	if f.Str("name") == "" {
		return handler.BadRequest("Name is required")
	}

	established, err := year(f)
	if err != nil {
		return err
	}

	ch, err := parseChildren(f)
	if err != nil {
		return err
	}

	logo, err := handler.Upload(c, s.deps.Uploads, "logo", upload.FolderImages, upload.KindImage, true)
	if err != nil {
		return err
	}

	active := true
	if f.Has("isActive") {
		active = f.Bool("isActive")
	}

	found := models.Foundation{
		Name:            f.Str("name"),
		Tagline:         f.Str("tagline"),
		Description:     f.Str("description"),
		LogoURL:         logo.URL,
		EstablishedYear: established,
		IsActive:        active,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		order, err := ordering.Next(tx, &models.Foundation{})
		if err != nil {
			return err
		}

		found.SortOrder = order
		if err := tx.Omit("Stats", "Activities", "Objectives", "Contact").Create(&found).Error; err != nil {
			return err
		}

		return ch.replace(tx, found.ID)
	})
	if err != nil {
		handler.Discard(s.deps.Uploads, logo.Path)
		return handler.Internal(c, err, "Failed to create foundation")
	}

	s.invalidate(c, found.ID)

	out, err := s.load(found.ID)
	if err != nil {
		return err
	}

	return handler.Created(c, "Foundation created successfully", out)
}

// Update applies the submitted fields, submitted collections replace the stored ones.
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

	ch, err := parseChildren(f)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}

	if v := f.Str("name"); v != "" {
		updates["name"] = v
	}

	for key, column := range map[string]string{"tagline": "tagline", "description": "description"} {
		if f.Has(key) {
			updates[column] = f.Str(key)
		}
	}

	if f.Has("establishedYear") {
		established, err := year(f)
		if err != nil {
			return err
		}
		updates["established_year"] = established
	}

	if f.Has("isActive") {
		updates["is_active"] = f.Bool("isActive")
	}

	order := old.SortOrder
	if f.Has("order") {
		order = f.Int("order", 0)
		if order < 1 {
			return handler.BadRequest("Invalid order")
		}
		updates["sort_order"] = order
	}

	logo, err := handler.Upload(c, s.deps.Uploads, "logo", upload.FolderImages, upload.KindImage, false)
	if err != nil {
		return err
	}
	if logo != nil {
		updates["logo_url"] = logo.URL
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := ordering.Shift(tx, &models.Foundation{}, id, old.SortOrder, order); err != nil {
			return err
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.Foundation{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}

		return ch.replace(tx, id)
	})
	if err != nil {
		handler.Discard(s.deps.Uploads, handler.Uploaded(logo)...)
		return handler.Internal(c, err, "Failed to update foundation")
	}

	if logo != nil {
		handler.Discard(s.deps.Uploads, old.LogoURL)
	}

	s.invalidate(c, id)

	out, err := s.load(id)
	if err != nil {
		return err
	}

	return handler.OK(c, "Foundation updated successfully", out)
}

// Delete removes a foundation with its collections and closes the gap in the order.
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
		for _, child := range []interface{}{
			&models.FoundationStat{}, &models.FoundationActivity{},
			&models.FoundationObjective{}, &models.FoundationContact{},
		} {
			if err := tx.Where("foundation_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}

		if err := tx.Delete(&models.Foundation{}, id).Error; err != nil {
			return err
		}

		return ordering.Close(tx, &models.Foundation{}, old.SortOrder)
	})
	if err != nil {
		return handler.Internal(c, err, "Failed to delete foundation")
	}

	handler.Discard(s.deps.Uploads, old.LogoURL)
	s.invalidate(c, id)

	return handler.OK(c, "Foundation deleted successfully", nil)
}
