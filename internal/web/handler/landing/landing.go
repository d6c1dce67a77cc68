// Package landing serves the public, cached documents of the landing page.
package landing

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/gopalparivar/dhenu-mahima/internal/cache"
	"github.com/gopalparivar/dhenu-mahima/internal/db/controller/landing"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

// Service is the landing handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the landing handler.
var Handler = Service{}

// Init registers the landing routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() || deps.Cache == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps

	router.Get("/banners", s.banners)
	router.Get("/quote", s.quote)
	router.Get("/card", s.cards)
	router.Get("/foundations", s.foundations)
	router.Get("/gopal-pariwar", s.gopalPariwar)

	return nil
}

func (s *Service) banners(c fiber.Ctx) error {
	out, err := cache.Remember(c.Context(), s.deps.Cache, cache.KeyBanners, cache.TTLBanners,
		func() ([]models.Banner, error) { return landing.Banners(s.deps.DB) })
	if err != nil {
		return err
	}

	return handler.OK(c, "", out)
}

func (s *Service) quote(c fiber.Ctx) error {
	out, err := cache.Remember(c.Context(), s.deps.Cache, cache.KeyDirectorMessage, cache.TTLDirectorMessage,
		func() (*models.DirectorMessage, error) { return landing.LatestMessage(s.deps.DB) })
	if errors.Is(err, landing.ErrNoMessage) {
		return handler.NotFound("Message")
	}

	if err != nil {
		return err
	}

	return handler.OK(c, "", out)
}

func (s *Service) cards(c fiber.Ctx) error {
	out, err := cache.Remember(c.Context(), s.deps.Cache, cache.KeyCards, cache.TTLCards,
		func() ([]models.Card, error) { return landing.Cards(s.deps.DB) })
	if err != nil {
		return err
	}

	return handler.OK(c, "", out)
}

func (s *Service) foundations(c fiber.Ctx) error {
	out, err := cache.Remember(c.Context(), s.deps.Cache, cache.KeyFoundations, cache.TTLFoundations,
		func() (landing.Foundations, error) { return landing.FoundationList(s.deps.DB) })
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "foundations": out.Foundations})
}

func (s *Service) gopalPariwar(c fiber.Ctx) error {
	out, err := cache.Remember(c.Context(), s.deps.Cache, cache.KeyGopalPariwar, cache.TTLGopalPariwar,
		func() ([]models.GopalPariwarMember, error) { return landing.GopalPariwar(s.deps.DB) })
	if err != nil {
		return err
	}

	return handler.OK(c, "", out)
}
