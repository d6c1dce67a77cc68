// Package gaushalas serves the directory of cow shelters.
package gaushalas

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/upload"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

// Path is the base path of the gaushala api.
const Path = "/gaushalas"

const msgMissing = "Missing required fields"

// required are the form fields a new gaushala must carry.
var required = []string{ //nolint:gochecknoglobals
	"name", "address", "city", "state", "pincode", "establishmentDate",
	"totalCows", "capacity", "contactPerson", "phone", "email",
}

// dateLayouts are accepted for the establishment date.
var dateLayouts = []string{time.RFC3339Nano, "2006-01-02", "2006"} //nolint:gochecknoglobals

// Service serves gaushalas.
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
		r.Get("/statistics", s.Statistics)
		r.Get("/search", s.Search)
		r.Get(handler.IDPath, s.Get)
		r.Post(handler.RootPath, deps.Authn, write, s.Create)
		r.Put(handler.IDPath, deps.Authn, write, s.Update)
		r.Delete(handler.IDPath, deps.Authn, deps.Can(auth.PermGaushalasDelete), s.Delete)
	})

	return nil
}

func list(c fiber.Ctx, out []models.Gaushala) error {
	return c.JSON(fiber.Map{"success": true, "data": out, "count": len(out)})
}

// List shows gaushalas by establishment date, newest first, undated last.
func (s *Service) List(c fiber.Ctx) error {
	out := []models.Gaushala{}
	if err := s.db.Order("establishment_date IS NULL, establishment_date DESC, id DESC").Find(&out).Error; err != nil {
		return handler.Internal(c, err, "Error fetching Gau Shalas")
	}

	return list(c, out)
}

// Stats summarises the directory.
type Stats struct {
	TotalGaushalas        int64   `json:"totalGaushalas"`
	TotalCows             int64   `json:"totalCows"`
	TotalCapacity         int64   `json:"totalCapacity"`
	AvgCowsPerShala       int64   `json:"avgCowsPerShala"`
	UtilizationPercentage float64 `json:"utilizationPercentage"`
}

// Statistics sums cows and capacity over all gaushalas.
func (s *Service) Statistics(c fiber.Ctx) error {
	var st Stats

	err := s.db.Model(&models.Gaushala{}).
		Select("COUNT(*) AS total_gaushalas, COALESCE(SUM(total_cows), 0) AS total_cows, COALESCE(SUM(capacity), 0) AS total_capacity").
		Scan(&st).Error
	if err != nil {
		return handler.Internal(c, err, "Error fetching statistics")
	}

	if st.TotalGaushalas > 0 {
		st.AvgCowsPerShala = int64(math.Round(float64(st.TotalCows) / float64(st.TotalGaushalas)))
	}

	if st.TotalCapacity > 0 {
		st.UtilizationPercentage = math.Round(float64(st.TotalCows)/float64(st.TotalCapacity)*10000) / 100 //nolint:mnd
	}

	return handler.OK(c, "", st)
}

// Search matches q against name, city, state and description.
func (s *Service) Search(c fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return handler.BadRequest("Search query is required")
	}

	like := "%" + q + "%"
	out := []models.Gaushala{}

	err := s.db.Where("LOWER(name) LIKE LOWER(?) OR LOWER(city) LIKE LOWER(?) OR LOWER(state) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)",
		like, like, like, like).Order("name").Find(&out).Error
	if err != nil {
		return handler.Internal(c, err, "Error searching Gau Shalas")
	}

	return list(c, out)
}

func (s *Service) load(c fiber.Ctx) (*models.Gaushala, error) {
	id, err := handler.ID(c, "id")
	if err != nil {
		return nil, err
	}

	var g models.Gaushala

	err = s.db.First(&g, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, handler.NotFound("Gau Shala")
	}

	return &g, err
}

// Get shows one gaushala.
func (s *Service) Get(c fiber.Ctx) error {
	g, err := s.load(c)
	if err != nil {
		return err
	}

	return handler.OK(c, "", g)
}

func parseDate(v string) (*time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, nil
		}
	}

	return nil, handler.BadRequest("Invalid establishment date")
}

func count(f handler.Form, key string) (int, error) {
	n, err := strconv.Atoi(f.Str(key))
	if err != nil || n < 0 {
		return 0, handler.BadRequest("Invalid " + key)
	}

	return n, nil
}

// apply copies the submitted fields of f onto g.
func apply(g *models.Gaushala, f handler.Form) error {
	for key, field := range map[string]*string{
		"name":          &g.Name,
		"address":       &g.Address,
		"city":          &g.City,
		"state":         &g.State,
		"pincode":       &g.Pincode,
		"contactPerson": &g.ContactPerson,
		"phone":         &g.Phone,
		"email":         &g.Email,
		"description":   &g.Description,
	} {
		if v := f.Str(key); v != "" {
			*field = v
		}
	}

	if v := f.Str("establishmentDate"); v != "" {
		d, err := parseDate(v)
		if err != nil {
			return err
		}
		g.EstablishmentDate = d
	}

	for key, field := range map[string]*int{"totalCows": &g.TotalCows, "capacity": &g.Capacity} {
		if f.Str(key) == "" {
			continue
		}

		n, err := count(f, key)
		if err != nil {
			return err
		}
		*field = n
	}

	return nil
}

// Create stores a gaushala with its photo.
func (s *Service) Create(c fiber.Ctx) error {
	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	for _, key := range required {
		if f.Str(key) == "" {
			return handler.BadRequest(msgMissing)
		}
	}

	var g models.Gaushala
	if err := apply(&g, f); err != nil {
		return err
	}

	photo, err := handler.Upload(c, s.deps.Uploads, "photo", upload.FolderImages, upload.KindImage, true)
	if err != nil {
		return err
	}

	g.Photo = photo.URL

	if err := s.db.Create(&g).Error; err != nil {
		handler.Discard(s.deps.Uploads, photo.Path)
		return handler.Internal(c, err, "Error creating Gau Shala")
	}

	return handler.Created(c, "Gau Shala created", g)
}

// Update applies the submitted fields, an uploaded photo replaces the old one.
func (s *Service) Update(c fiber.Ctx) error {
	g, err := s.load(c)
	if err != nil {
		return err
	}

	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	if err := apply(g, f); err != nil {
		return err
	}

	photo, err := handler.Upload(c, s.deps.Uploads, "photo", upload.FolderImages, upload.KindImage, false)
	if err != nil {
		return err
	}

	old := g.Photo
	if photo != nil {
		g.Photo = photo.URL
	}

	if err := s.db.Save(g).Error; err != nil {
		handler.Discard(s.deps.Uploads, handler.Uploaded(photo)...)
		return handler.Internal(c, err, "Failed to update Gaushala")
	}

	if photo != nil {
		handler.Discard(s.deps.Uploads, old)
	}

	return handler.OK(c, "Gaushala updated successfully", g)
}

// Delete removes a gaushala and its photo.
func (s *Service) Delete(c fiber.Ctx) error {
	g, err := s.load(c)
	if err != nil {
		return err
	}

	if err := s.db.Delete(g).Error; err != nil {
		return handler.Internal(c, err, "Error deleting Gau Shala")
	}

	handler.Discard(s.deps.Uploads, g.Photo)

	return handler.OK(c, "Gau Shala deleted", nil)
}
