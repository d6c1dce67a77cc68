// Package legal serves the privacy policy and the terms and conditions.
package legal

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/db/controller/legal"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

// Service serves one legal page stored under key.
type Service struct {
	handler.Service
	path string
	key  string
	db   *gorm.DB
}

var (
	// PrivacyPolicy serves /privacy-policy.
	PrivacyPolicy = Service{path: "/privacy-policy", key: legal.SettingKeyPrivacyPolicy} //nolint:gochecknoglobals
	// TermsConditions serves /terms-conditions.
	TermsConditions = Service{path: "/terms-conditions", key: legal.SettingKeyTermsConditions} //nolint:gochecknoglobals
)

// dateLayouts are accepted for lastUpdated.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} //nolint:gochecknoglobals

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() || s.path == "" {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.db = deps.DB

	router.Route(s.path, func(r fiber.Router) {
		r.Get(handler.RootPath, s.Get)
		r.Post(handler.RootPath, deps.Authn, deps.Can(auth.PermLegalWrite), s.Save)
	})

	return nil
}

// Get returns the stored document, data is null before the first save.
func (s *Service) Get(c fiber.Ctx) error {
	doc, err := legal.Load(s.db, s.key)
	if err != nil {
		return handler.Internal(c, err, "Failed to load document")
	}

	return c.JSON(fiber.Map{"success": true, "data": doc})
}

type saveInput struct {
	Title       string          `json:"title"`
	Subtitle    string          `json:"subtitle"`
	LastUpdated string          `json:"lastUpdated"`
	Contact     legal.Contact   `json:"contact"`
	Sections    []legal.Section `json:"sections" validate:"dive"`
}

// Save replaces the whole document.
func (s *Service) Save(c fiber.Ctx) error {
	var in saveInput
	if err := handler.Parse(c, &in); err != nil {
		return err
	}

	doc := &legal.Document{
		Title:    in.Title,
		Subtitle: in.Subtitle,
		Contact:  in.Contact,
		Sections: in.Sections,
	}

	if in.LastUpdated != "" {
		var err error
		if doc.LastUpdated, err = parseDate(in.LastUpdated); err != nil {
			return err
		}
	}

	if err := legal.Save(s.db, s.key, doc); err != nil {
		return handler.Internal(c, err, "Internal server error")
	}

	return handler.OK(c, "Saved successfully", doc)
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}

	return time.Time{}, handler.BadRequest("Invalid lastUpdated")
}
