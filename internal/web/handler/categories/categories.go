// Package categories manages the categories of gaumata bhajans.
package categories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

// Path is the base path of the category api.
const Path = "/gaumata-categories"

// View is a category with the number of its bhajans.
type View struct {
	models.Category
	BhajanCount int64 `json:"bhajanCount"`
}

// Service manages categories.
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
	write := deps.Can(auth.PermCategoriesWrite)

	router.Route(Path, func(r fiber.Router) {
		r.Get(handler.RootPath, s.List)
		r.Get(handler.IDPath, s.Get)
		r.Post(handler.RootPath, deps.Authn, write, s.Create)
		r.Put(handler.IDPath, deps.Authn, write, s.Update)
		r.Delete(handler.IDPath, deps.Authn, deps.Can(auth.PermCategoriesDelete), s.Delete)
	})

	return nil
}

func (s *Service) views() *gorm.DB {
	return s.db.Model(&models.Category{}).
		Select("categories.*, (SELECT COUNT(*) FROM bhajans WHERE bhajans.category_id = categories.id) AS bhajan_count")
}

func (s *Service) find(c fiber.Ctx) (*View, error) {
	id, err := handler.ID(c, "id")
	if err != nil {
		return nil, err
	}

	var v View

	res := s.views().Where("categories.id = ?", id).Limit(1).Scan(&v)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, handler.NotFound("Category")
	}

	return &v, nil
}

// List shows all categories by name.
func (s *Service) List(c fiber.Ctx) error {
	list := []View{}
	if err := s.views().Order("categories.name ASC").Scan(&list).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch categories")
	}

	return handler.OK(c, "", list)
}

// Get shows one category.
func (s *Service) Get(c fiber.Ctx) error {
	v, err := s.find(c)
	if err != nil {
		return err
	}

	return handler.OK(c, "", v)
}

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Service) name(c fiber.Ctx, exclude uint64) (string, error) {
	var in categoryRequest
	if err := c.Bind().WithoutAutoHandling().Body(&in); err != nil {
		return "", handler.BadRequest("Invalid request body")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", handler.BadRequest("Category name is required")
	}

	var n int64
	if err := s.db.Model(&models.Category{}).Where("name = ? AND id <> ?", name, exclude).Count(&n).Error; err != nil {
		return "", err
	}
	if n > 0 {
		return "", handler.BadRequest("Category already exists")
	}

	return name, nil
}

// Create adds a category.
func (s *Service) Create(c fiber.Ctx) error {
	name, err := s.name(c, 0)
	if err != nil {
		return err
	}

	cat := models.Category{Name: name}
	if err = s.db.Create(&cat).Error; err != nil {
		return handler.Internal(c, err, "Failed to create category")
	}

	return handler.Created(c, "Category created successfully", cat)
}

// Update renames a category.
func (s *Service) Update(c fiber.Ctx) error {
	v, err := s.find(c)
	if err != nil {
		return err
	}

	name, err := s.name(c, v.ID)
	if err != nil {
		return err
	}

	if err = s.db.Model(&models.Category{}).Where("id = ?", v.ID).Update("name", name).Error; err != nil {
		return handler.Internal(c, err, "Failed to update category")
	}

	v.Name = name

	return handler.OK(c, "Category updated successfully", v)
}

// Delete removes a category no bhajan belongs to.
func (s *Service) Delete(c fiber.Ctx) error {
	v, err := s.find(c)
	if err != nil {
		return err
	}

	if v.BhajanCount > 0 {
		return handler.BadRequest(fmt.Sprintf("Cannot delete category. It has %d bhajan(s) associated with it.", v.BhajanCount))
	}

	if err = s.db.Delete(&models.Category{}, v.ID).Error; err != nil {
		return handler.Internal(c, err, "Failed to delete category")
	}

	return handler.OK(c, "Category deleted successfully", nil)
}
