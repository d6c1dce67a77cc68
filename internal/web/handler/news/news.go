// Package news serves the news articles.
package news

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/microcosm-cc/bluemonday"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/db/controller/news"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/upload"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

const (
	// Path is the base path of the news api.
	Path = "/news"

	// DefaultPageSize for pagination.
	DefaultPageSize = 10
	// RelatedLimit is the default number of related articles.
	RelatedLimit = 3
	// MaxRelatedLimit caps the limit query of related articles.
	MaxRelatedLimit = 20
)

var ugc = bluemonday.UGCPolicy() //nolint:gochecknoglobals

// Service serves news.
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
	write := deps.Can(auth.PermNewsWrite)

	router.Route(Path, func(r fiber.Router) {
		r.Get(handler.RootPath, s.List)
		r.Get("/categories", s.Categories)
		r.Get("/slug/:slug", s.BySlug)
		r.Get("/related/:id", s.Related)
		r.Get(handler.IDPath+"/related", s.Related)
		r.Get(handler.IDPath, s.Get)

		r.Post(handler.RootPath, deps.Authn, write, s.Create)
		r.Put(handler.IDPath, deps.Authn, write, s.Update)
		r.Delete(handler.IDPath, deps.Authn, deps.Can(auth.PermNewsDelete), s.Delete)
	})

	return nil
}

// List shows articles newest first, filtered by category, search and featured.
func (s *Service) List(c fiber.Ctx) error {
	p := handler.Paging(c, DefaultPageSize, 100) //nolint:mnd
	tx := s.db.Model(&models.News{})

	if category := c.Query("category"); category != "" && category != "all" {
		tx = tx.Where("category = ?", category)
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		tx = tx.Where("title LIKE ? OR title_en LIKE ? OR excerpt LIKE ?", like, like, like)
	}

	if c.Query("featured") == "true" {
		tx = tx.Where("featured = ?", true)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return err
	}

	list := []models.News{}
	if err := tx.Order("created_at DESC, id DESC").Limit(p.Limit).Offset(p.Offset()).Find(&list).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": list, "pagination": p.Meta(total)})
}

// read loads the article matching query and counts the view.
func (s *Service) read(c fiber.Ctx, query string, arg interface{}) error {
	var n models.News
	if err := s.db.Where(query, arg).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound("News")
		}

		return err
	}

	if err := s.db.Model(&models.News{}).Where("id = ?", n.ID).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		return err
	}

	n.Views++

	return handler.OK(c, "", n)
}

// Get shows an article by id.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	return s.read(c, "id = ?", id)
}

// BySlug shows an article by slug.
func (s *Service) BySlug(c fiber.Ctx) error {
	return s.read(c, "slug = ?", c.Params("slug"))
}

// Related lists the newest articles of the same category.
func (s *Service) Related(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	var current models.News
	if err = s.db.Select("id", "category").First(&current, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound("News")
		}

		return err
	}

	limit := fiber.Query[int](c, "limit", RelatedLimit)
	if limit < 1 {
		limit = RelatedLimit
	}
	if limit > MaxRelatedLimit {
		limit = MaxRelatedLimit
	}

	list := []models.News{}
	if err = s.db.Where("category = ? AND id <> ?", current.Category, id).
		Order("created_at DESC, id DESC").Limit(limit).Find(&list).Error; err != nil {
		return err
	}

	return handler.OK(c, "", list)
}

// CategoryCount is the number of articles of a category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// Categories counts articles per category.
func (s *Service) Categories(c fiber.Ctx) error {
	out := []CategoryCount{}
	if err := s.db.Model(&models.News{}).Select("category, COUNT(*) AS count").
		Group("category").Order("category").Scan(&out).Error; err != nil {
		return err
	}

	return handler.OK(c, "", out)
}

// sanitize cleans every string of an editor document with the user content policy.
func sanitize(raw string) (models.JSON, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		// plain text bodies are kept as a json string
		doc = raw
	}

	out, err := json.Marshal(clean(doc))
	if err != nil {
		return nil, err
	}

	return models.JSON(out), nil
}

func clean(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return ugc.Sanitize(t)
	case []interface{}:
		for i := range t {
			t[i] = clean(t[i])
		}

		return t
	case map[string]interface{}:
		for k := range t {
			t[k] = clean(t[k])
		}

		return t
	default:
		return v
	}
}

var required = [][2]string{ //nolint:gochecknoglobals
	{"title", "Title is required"},
	{"titleEn", "English title is required"},
	{"excerpt", "Excerpt is required"},
	{"category", "Category is required"},
	{"date", "Date is required"},
	{"readTime", "Read time is required"},
}

func (s *Service) image(c fiber.Ctx) (*upload.Saved, error) {
	return handler.Upload(c, s.deps.Uploads, "image", upload.FolderNews, upload.KindImage, false)
}

// Create stores an article with an optional cover image.
func (s *Service) Create(c fiber.Ctx) error {
	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	if msg := f.Missing(required...); msg != "" {
		return handler.BadRequest(msg)
	}

	content, err := sanitize(f["content"])
	if err != nil {
		return handler.BadRequest("Invalid content")
	}

	saved, err := s.image(c)
	if err != nil {
		return err
	}

	slug, err := news.UniqueSlug(s.db, f.Str("titleEn"), 0)
	if err != nil {
		handler.Discard(s.deps.Uploads, handler.Uploaded(saved)...)
		return err
	}

	n := models.News{
		Title:    f.Str("title"),
		TitleEn:  f.Str("titleEn"),
		Slug:     slug,
		Excerpt:  f.Str("excerpt"),
		Content:  content,
		Category: f.Str("category"),
		Date:     f.Str("date"),
		ReadTime: f.Str("readTime"),
		Featured: f.Bool("featured"),
		Tags:     f.List("tags"),
		Author:   f.Str("author"),
		Image:    s.deps.Cfg.Webserver.BackendURL + upload.DefaultImage,
	}

	if saved != nil {
		n.Image = saved.URL
	}

	if err = s.db.Create(&n).Error; err != nil {
		handler.Discard(s.deps.Uploads, handler.Uploaded(saved)...)
		return err
	}

	return handler.Created(c, "News created successfully", n)
}

// Update applies the submitted fields, a new image replaces the old one.
func (s *Service) Update(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	var n models.News
	if err = s.db.First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound("News")
		}

		return err
	}

	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}

	for key, column := range map[string]string{
		"title": "title", "excerpt": "excerpt", "category": "category",
		"date": "date", "readTime": "read_time",
	} {
		if v := f.Str(key); v != "" {
			updates[column] = v
		}
	}

	if v := f.Str("titleEn"); v != "" && v != n.TitleEn {
		slug, err := news.UniqueSlug(s.db, v, n.ID)
		if err != nil {
			return err
		}

		updates["title_en"] = v
		updates["slug"] = slug
	}

	if f.Has("featured") {
		updates["featured"] = f.Bool("featured")
	}

	if f.Has("author") {
		updates["author"] = f.Str("author")
	}

	if f.Str("tags") != "" {
		updates["tags"] = models.StringList(f.List("tags"))
	}

	if f.Str("content") != "" {
		content, err := sanitize(f["content"])
		if err != nil {
			return handler.BadRequest("Invalid content")
		}

		updates["content"] = content
	}

	saved, err := s.image(c)
	if err != nil {
		return err
	}

	if saved != nil {
		updates["image"] = saved.URL
	}

	if len(updates) > 0 {
		if err = s.db.Model(&models.News{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			handler.Discard(s.deps.Uploads, handler.Uploaded(saved)...)
			return err
		}
	}

	if saved != nil {
		handler.Discard(s.deps.Uploads, n.Image)
	}

	if err = s.db.First(&n, id).Error; err != nil {
		return err
	}

	return handler.OK(c, "News updated successfully", n)
}

// Delete removes an article and its image.
func (s *Service) Delete(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	var n models.News
	if err = s.db.First(&n, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.NotFound("News")
		}

		return err
	}

	if err = s.db.Delete(&n).Error; err != nil {
		return err
	}

	handler.Discard(s.deps.Uploads, n.Image)

	return handler.OK(c, "News deleted successfully", nil)
}
