// Package sansthans serves the directory of partner organisations.
package sansthans

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/upload"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

// Path is the base path of the sansthan api.
const Path = "/sansthans"

// Service serves sansthans.
type Service struct {
	handler.Service
	deps *handler.Deps
	db   *gorm.DB
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() || deps.Uploads == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps
	s.db = deps.DB
	write := deps.Can(auth.PermGaushalasWrite)

	router.Route(Path, func(r fiber.Router) {
		r.Get(handler.RootPath, s.List)
		r.Get(handler.IDPath, s.Get)
		r.Post(handler.RootPath, deps.Authn, write, s.Create)
		r.Put(handler.IDPath, deps.Authn, write, s.Update)
		r.Delete(handler.IDPath, deps.Authn, deps.Can(auth.PermGaushalasDelete), s.Delete)
	})

	return nil
}

// List shows sansthans, newest first.
func (s *Service) List(c fiber.Ctx) error {
	out := []models.Sansthan{}
	if err := s.db.Order("created_at DESC, id DESC").Find(&out).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch sansthans")
	}

	return c.JSON(fiber.Map{"success": true, "count": len(out), "data": out})
}

func (s *Service) load(c fiber.Ctx) (*models.Sansthan, error) {
	id, err := handler.ID(c, "id")
	if err != nil {
		return nil, err
	}

	var m models.Sansthan

	err = s.db.First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, handler.NotFound("Sansthan")
	}

	return &m, err
}

// Get shows one sansthan.
func (s *Service) Get(c fiber.Ctx) error {
	m, err := s.load(c)
	if err != nil {
		return err
	}

	return handler.OK(c, "", m)
}

// fullAddress joins the address parts, empty unless all of them are set.
func fullAddress(m *models.Sansthan) string {
	if m.Address == "" || m.City == "" || m.State == "" || m.Pincode == "" {
		return ""
	}

	return fmt.Sprintf("%s, %s, %s - %s", m.Address, m.City, m.State, m.Pincode)
}

func apply(m *models.Sansthan, f handler.Form) {
	for key, field := range map[string]*string{
		"name":        &m.Name,
		"person":      &m.Person,
		"description": &m.Description,
		"email":       &m.Email,
		"phone":       &m.Phone,
		"altPhone":    &m.AltPhone,
		"website":     &m.Website,
		"timing":      &m.Timing,
		"address":     &m.Address,
		"city":        &m.City,
		"state":       &m.State,
		"pincode":     &m.Pincode,
	} {
		if v := f.Str(key); v != "" {
			*field = v
		}
	}

	m.FullAddress = fullAddress(m)
}

// Create stores a sansthan with an optional image.
func (s *Service) Create(c fiber.Ctx) error {
	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	if f.Str("name") == "" || f.Str("email") == "" || f.Str("phone") == "" {
		return handler.BadRequest("Name, email, and phone are required fields")
	}

	var m models.Sansthan
	apply(&m, f)

	image, err := handler.Upload(c, s.deps.Uploads, "image", upload.FolderImages, upload.KindImage, false)
	if err != nil {
		return err
	}
	if image != nil {
		m.Image = image.URL
	}

	if err := s.db.Create(&m).Error; err != nil {
		handler.Discard(s.deps.Uploads, handler.Uploaded(image)...)
		return handler.Internal(c, err, "Failed to create sansthan")
	}

	return handler.Created(c, "Sansthan created successfully", m)
}

// Update applies the submitted fields, an uploaded image replaces the old one.
func (s *Service) Update(c fiber.Ctx) error {
	m, err := s.load(c)
	if err != nil {
		return err
	}

	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	apply(m, f)

	image, err := handler.Upload(c, s.deps.Uploads, "image", upload.FolderImages, upload.KindImage, false)
	if err != nil {
		return err
	}

	old := m.Image
	if image != nil {
		m.Image = image.URL
	}

	if err := s.db.Save(m).Error; err != nil {
		handler.Discard(s.deps.Uploads, handler.Uploaded(image)...)
		return handler.Internal(c, err, "Failed to update sansthan")
	}

	if image != nil {
		handler.Discard(s.deps.Uploads, old)
	}

	return handler.OK(c, "Sansthan updated successfully", m)
}

// Delete removes a sansthan and its image.
func (s *Service) Delete(c fiber.Ctx) error {
	m, err := s.load(c)
	if err != nil {
		return err
	}

	if err := s.db.Delete(m).Error; err != nil {
		return handler.Internal(c, err, "Failed to delete sansthan")
	}

	handler.Discard(s.deps.Uploads, m.Image)

	return handler.OK(c, "Sansthan deleted successfully", nil)
}
