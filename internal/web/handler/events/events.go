// Package events serves the upcoming events. Expired events are removed as they are read.
package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/db/controller/event"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

// Path is the base path of the events api.
const Path = "/events"

const (
	msgInvalidID  = "Invalid event ID"
	msgStartAfter = "Start date cannot be after end date"
)

// dateLayouts are accepted for start and end dates, plain dates are local.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04", "2006-01-02"} //nolint:gochecknoglobals

// Service serves events.
type Service struct {
	handler.Service
	db  *gorm.DB
	now func() time.Time
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.db = deps.DB
	if s.now == nil {
		s.now = time.Now
	}

	write := deps.Can(auth.PermEventsWrite)

	router.Route(Path, func(r fiber.Router) {
		r.Get(handler.RootPath, s.List)
		r.Get("/cleanup", deps.Authn, deps.Can(auth.PermEventsCleanup), s.Cleanup)
		r.Get(handler.IDPath, s.Get)
		r.Post(handler.RootPath, deps.Authn, write, s.Create)
		r.Put(handler.IDPath, deps.Authn, write, s.Update)
		r.Delete(handler.IDPath, deps.Authn, write, s.Delete)
	})

	return nil
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}

	return time.Time{}, handler.BadRequest(fmt.Sprintf("Invalid date '%s'", v))
}

func (s *Service) id(c fiber.Ctx) (uint64, error) {
	id, err := handler.ID(c, "id")
	if err != nil {
		return 0, handler.BadRequest(msgInvalidID)
	}

	return id, nil
}

// List removes expired events and lists the rest by start date.
func (s *Service) List(c fiber.Ctx) error {
	if n, err := event.DeleteExpired(s.db, s.now()); err != nil {
		return handler.Internal(c, err, "Failed to fetch events")
	} else if n > 0 {
		log.Info().Int64("count", n).Msg("deleted expired events")
	}

	list := []models.Event{}
	if err := s.db.Order("start_date ASC, id ASC").Find(&list).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch events")
	}

	return c.JSON(fiber.Map{"success": true, "count": len(list), "data": list})
}

// Get shows an event, an expired one is removed instead.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := s.id(c)
	if err != nil {
		return err
	}

	var e models.Event
	if err = s.db.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound("Event")
		}

		return err
	}

	if event.Expired(&e, s.now()) {
		if err = s.db.Delete(&e).Error; err != nil {
			return err
		}

		return fiber.NewError(fiber.StatusNotFound, "Event has expired and been removed")
	}

	return handler.OK(c, "", e)
}

// Create stores an event that has not ended yet.
func (s *Service) Create(c fiber.Ctx) error {
	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	if f.Str("title") == "" || f.Str("startDate") == "" || f.Str("endDate") == "" ||
		f.Str("location") == "" || f.Str("duration") == "" {
		return handler.BadRequest("Title, start date, end date, location, and duration are required fields")
	}

	start, err := parseDate(f.Str("startDate"))
	if err != nil {
		return err
	}

	end, err := parseDate(f.Str("endDate"))
	if err != nil {
		return err
	}

	if start.After(end) {
		return handler.BadRequest(msgStartAfter)
	}

	e := models.Event{
		Title:       f.Str("title"),
		StartDate:   start,
		EndDate:     end,
		Time:        f.Str("time"),
		Location:    f.Str("location"),
		Duration:    f.Str("duration"),
		Color:       f.Str("color"),
		LiveLinks:   f.List("liveLinks"),
		Description: f.Str("description"),
	}

	if event.Expired(&e, s.now()) {
		return handler.BadRequest("Cannot create an event with a past end date")
	}

	if e.Color == "" {
		e.Color = models.DefaultEventColor
	}

	if err = s.db.Create(&e).Error; err != nil {
		return err
	}

	return handler.Created(c, "Event created successfully", e)
}

// Update applies the submitted fields.
func (s *Service) Update(c fiber.Ctx) error {
	id, err := s.id(c)
	if err != nil {
		return err
	}

	var e models.Event
	if err = s.db.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound("Event")
		}

		return err
	}

	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}
	start, end := e.StartDate, e.EndDate

	if v := f.Str("startDate"); v != "" {
		if start, err = parseDate(v); err != nil {
			return err
		}

		updates["start_date"] = start
	}

	if v := f.Str("endDate"); v != "" {
		if end, err = parseDate(v); err != nil {
			return err
		}

		updates["end_date"] = end
	}

	if start.After(end) {
		return handler.BadRequest(msgStartAfter)
	}

	for key, column := range map[string]string{"title": "title", "location": "location", "duration": "duration", "color": "color"} {
		if v := f.Str(key); v != "" {
			updates[column] = v
		}
	}

	for _, key := range []string{"time", "description"} {
		if f.Has(key) {
			updates[key] = f.Str(key)
		}
	}

	if f.Has("liveLinks") {
		updates["live_links"] = models.StringList(f.List("liveLinks"))
	}

	if len(updates) > 0 {
		if err = s.db.Model(&models.Event{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
	}

	if err = s.db.First(&e, id).Error; err != nil {
		return err
	}

	return handler.OK(c, "Event updated successfully", e)
}

// Delete removes an event.
func (s *Service) Delete(c fiber.Ctx) error {
	id, err := s.id(c)
	if err != nil {
		return err
	}

	res := s.db.Delete(&models.Event{}, id)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return handler.NotFound("Event")
	}

	return handler.OK(c, "Event deleted successfully", nil)
}

// Cleanup removes every expired event.
func (s *Service) Cleanup(c fiber.Ctx) error {
	n, err := event.DeleteExpired(s.db, s.now())
	if err != nil {
		return handler.Internal(c, err, "Failed to cleanup expired events")
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"message":      fmt.Sprintf("Cleanup completed. %d expired events removed.", n),
		"deletedCount": n,
	})
}
