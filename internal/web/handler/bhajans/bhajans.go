// Package bhajans serves the audio collections: gaumata bhajans, grouped by category, and jevansutra.
package bhajans

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/upload"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

const defaultDuration = "0:00"

// Service serves one bhajan collection.
type Service struct {
	handler.Service
	path       string
	collection string
	categories bool
	deps       *handler.Deps
	db         *gorm.DB
}

// Gaumata serves /gaumata-bhajans, entries may belong to a category.
var Gaumata = Service{path: "/gaumata-bhajans", collection: models.CollectionGaumata, categories: true}

// Jevansutra serves /jevansutra.
var Jevansutra = Service{path: "/jevansutra", collection: models.CollectionJevansutra}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() || deps.Uploads == nil || s.collection == "" {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps
	s.db = deps.DB
	write := deps.Can(auth.PermBhajansWrite)

	router.Route(s.path, func(r fiber.Router) {
		r.Get(handler.RootPath, s.List)
		r.Get("/search", s.Search)
		r.Get("/audio/stream/:filename", s.Stream)
		r.Get("/audio/download/:filename", deps.Authn, write, s.Download)
		r.Get(handler.IDPath, s.Get)

		r.Post(handler.RootPath, deps.Authn, write, s.Create)
		r.Put(handler.IDPath, deps.Authn, write, s.Update)
		r.Delete(handler.IDPath, deps.Authn, write, s.Delete)
	})

	return nil
}

func (s *Service) query() *gorm.DB {
	tx := s.db.Where("collection = ?", s.collection)
	if s.categories {
		tx = tx.Preload("Category")
	}

	return tx
}

func (s *Service) find(c fiber.Ctx) (*models.Bhajan, error) {
	id, err := handler.ID(c, "id")
	if err != nil {
		return nil, err
	}

	var b models.Bhajan

	err = s.query().First(&b, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, handler.NotFound("Bhajan")
	}

	return &b, err
}

// List shows the collection newest first.
func (s *Service) List(c fiber.Ctx) error {
	list := []models.Bhajan{}
	if err := s.query().Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch bhajans")
	}

	return handler.OK(c, "", list)
}

// Search matches name, artist or album.
func (s *Service) Search(c fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("query"))
	if q == "" {
		return handler.BadRequest("Search query is required")
	}

	like := "%" + q + "%"
	list := []models.Bhajan{}

	if err := s.query().Where("name LIKE ? OR artist LIKE ? OR album LIKE ?", like, like, like).
		Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return handler.Internal(c, err, "Failed to search bhajans")
	}

	return handler.OK(c, "", list)
}

// Get shows one bhajan.
func (s *Service) Get(c fiber.Ctx) error {
	b, err := s.find(c)
	if err != nil {
		return err
	}

	return handler.OK(c, "", b)
}

// category finds or creates the named category, an empty name yields nil.
func (s *Service) category(name string) (*uint64, error) {
	name = strings.TrimSpace(name)
	if !s.categories || name == "" {
		return nil, nil //nolint:nilnil
	}

	cat := models.Category{Name: name}
	if err := s.db.Where("name = ?", name).FirstOrCreate(&cat).Error; err != nil {
		return nil, err
	}

	return &cat.ID, nil
}

// Create stores a bhajan with its audio and optional cover image.
func (s *Service) Create(c fiber.Ctx) error {
	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	if f.Str("name") == "" || f.Str("artist") == "" {
		return handler.BadRequest("Name and artist are required")
	}

	audio, err := handler.Upload(c, s.deps.Uploads, "audio", upload.FolderAudio, upload.KindAudio, false)
	if err != nil {
		return err
	}
	if audio == nil {
		return handler.BadRequest("Audio file is required")
	}

	image, err := handler.Upload(c, s.deps.Uploads, "image", upload.FolderImages, upload.KindImage, false)
	if err != nil {
		handler.Discard(s.deps.Uploads, audio.Path)
		return err
	}

	categoryID, err := s.category(f.Str("category"))
	if err != nil {
		handler.Discard(s.deps.Uploads, handler.Uploaded(audio, image)...)
		return handler.Internal(c, err, "Failed to create bhajan")
	}

	duration := f.Str("duration")
	if duration == "" {
		duration = defaultDuration
	}

	b := models.Bhajan{
		Collection: s.collection,
		Name:       f.Str("name"),
		Artist:     f.Str("artist"),
		Album:      f.Str("album"),
		Duration:   duration,
		AudioURL:   audio.URL,
		AudioPath:  audio.Path,
		CategoryID: categoryID,
	}

	if image != nil {
		b.ImageURL = image.URL
		b.ImagePath = image.Path
	}

	if err = s.db.Create(&b).Error; err != nil {
		handler.Discard(s.deps.Uploads, handler.Uploaded(audio, image)...)
		return handler.Internal(c, err, "Failed to create bhajan")
	}

	if err = s.query().First(&b, b.ID).Error; err != nil {
		return err
	}

	return handler.Created(c, "Bhajan created successfully", b)
}

// Update applies the submitted fields, new files replace the old ones.
func (s *Service) Update(c fiber.Ctx) error {
	b, err := s.find(c)
	if err != nil {
		return err
	}

	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	updates := map[string]interface{}{}

	for _, key := range []string{"name", "artist", "duration"} {
		if v := f.Str(key); v != "" {
			updates[key] = v
		}
	}

	if f.Has("album") {
		updates["album"] = f.Str("album")
	}

	if v := f.Str("category"); v != "" {
		categoryID, err := s.category(v)
		if err != nil {
			return handler.Internal(c, err, "Failed to update bhajan")
		}
		if categoryID != nil {
			updates["category_id"] = *categoryID
		}
	}

	audio, err := handler.Upload(c, s.deps.Uploads, "audio", upload.FolderAudio, upload.KindAudio, false)
	if err != nil {
		return err
	}

	image, err := handler.Upload(c, s.deps.Uploads, "image", upload.FolderImages, upload.KindImage, false)
	if err != nil {
		handler.Discard(s.deps.Uploads, handler.Uploaded(audio)...)
		return err
	}

	var stale []string

	if audio != nil {
		updates["audio_url"] = audio.URL
		updates["audio_path"] = audio.Path
		stale = append(stale, b.AudioPath)
	}

	if image != nil {
		updates["image_url"] = image.URL
		updates["image_path"] = image.Path
		stale = append(stale, b.ImagePath)
	}

	if len(updates) > 0 {
		if err = s.db.Model(&models.Bhajan{}).Where("id = ?", b.ID).Updates(updates).Error; err != nil {
			handler.Discard(s.deps.Uploads, handler.Uploaded(audio, image)...)
			return handler.Internal(c, err, "Failed to update bhajan")
		}
	}

	handler.Discard(s.deps.Uploads, stale...)

	var out models.Bhajan
	if err = s.query().First(&out, b.ID).Error; err != nil {
		return err
	}

	return handler.OK(c, "Bhajan updated successfully", out)
}

// Delete removes a bhajan with its files.
func (s *Service) Delete(c fiber.Ctx) error {
	b, err := s.find(c)
	if err != nil {
		return err
	}

	if err = s.db.Delete(&models.Bhajan{}, b.ID).Error; err != nil {
		return handler.Internal(c, err, "Failed to delete bhajan")
	}

	handler.Discard(s.deps.Uploads, b.AudioPath, b.ImagePath)

	return handler.OK(c, "Bhajan deleted successfully", nil)
}

func (s *Service) audioFile(c fiber.Ctx) (string, error) {
	path, err := s.deps.Uploads.Resolve(upload.FolderAudio, c.Params("filename"))
	if err != nil {
		return "", handler.BadRequest("Invalid file name")
	}

	if _, err = os.Stat(path); err != nil {
		return "", fiber.NewError(fiber.StatusNotFound, "Audio not found")
	}

	return path, nil
}

func audioType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".wav") {
		return "audio/wav"
	}

	return "audio/mpeg"
}

// Stream plays an audio file, honouring range requests.
func (s *Service) Stream(c fiber.Ctx) error {
	path, err := s.audioFile(c)
	if err != nil {
		return err
	}

	if err = c.SendFile(path, fiber.SendFile{ByteRange: true}); err != nil {
		return err
	}

	c.Set(fiber.HeaderAcceptRanges, "bytes")
	c.Set(fiber.HeaderContentType, audioType(path))

	return nil
}

// Download sends an audio file as an attachment.
func (s *Service) Download(c fiber.Ctx) error {
	path, err := s.audioFile(c)
	if err != nil {
		return err
	}

	return c.Download(path, filepath.Base(path))
}
