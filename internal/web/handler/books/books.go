// Package books serves the pdf book store: the catalogue, reading purchased books and file downloads.
package books

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/upload"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

const (
	// Path is the base path of the books api.
	Path = "/books"

	// DefaultPageSize for pagination.
	DefaultPageSize = 20
)

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9_\-. ]`) //nolint:gochecknoglobals

var sortOrders = map[string]string{ //nolint:gochecknoglobals
	"newest":     "created_at DESC, id DESC",
	"oldest":     "created_at ASC, id ASC",
	"name":       "name ASC",
	"price-low":  "price ASC",
	"price-high": "price DESC",
}

// Service serves books.
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
	write := deps.Can(auth.PermBooksWrite)

	router.Route(Path, func(r fiber.Router) {
		r.Get(handler.RootPath, s.List)
		r.Get("/pdf/download/:filename", deps.Authn, deps.Can(auth.PermBooksDownload), s.Download)
		r.Get(handler.IDPath+"/stream", deps.Authn, s.Stream)
		r.Get(handler.IDPath, s.Get)

		r.Post(handler.RootPath, deps.Authn, write, s.Create)
		r.Put(handler.IDPath, deps.Authn, write, s.Update)
		r.Delete(handler.IDPath, deps.Authn, write, s.Delete)
	})

	return nil
}

// List shows the catalogue with search, sorting and pagination.
func (s *Service) List(c fiber.Ctx) error {
	p := handler.Paging(c, DefaultPageSize, 100) //nolint:mnd
	tx := s.db.Model(&models.Book{})

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		like := "%" + search + "%"
		tx = tx.Where("name LIKE ? OR author LIKE ? OR description LIKE ?", like, like, like)
	}

	order, ok := sortOrders[c.Query("sortBy")]
	if !ok {
		order = sortOrders["newest"]
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch books")
	}

	list := []models.Book{}
	if err := tx.Order(order).Limit(p.Limit).Offset(p.Offset()).Find(&list).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch books")
	}

	return handler.OK(c, "", fiber.Map{
		"books": list,
		"pagination": fiber.Map{
			"total":      total,
			"page":       p.Page,
			"limit":      p.Limit,
			"totalPages": p.TotalPages(total),
		},
	})
}

func (s *Service) find(c fiber.Ctx) (*models.Book, error) {
	id, err := handler.ID(c, "id")
	if err != nil {
		return nil, err
	}

	var b models.Book
	if err = s.db.First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, handler.NotFound("Book")
		}

		return nil, err
	}

	return &b, nil
}

func (s *Service) purchases(bookID uint64) (int64, error) {
	var n int64
	err := s.db.Model(&models.BookPurchase{}).Where("book_id = ?", bookID).Count(&n).Error

	return n, err
}

// Get shows a book with the number of purchases.
func (s *Service) Get(c fiber.Ctx) error {
	b, err := s.find(c)
	if err != nil {
		return err
	}

	n, err := s.purchases(b.ID)
	if err != nil {
		return err
	}

	return handler.OK(c, "", struct {
		models.Book
		PurchaseCount int64 `json:"purchaseCount"`
	}{Book: *b, PurchaseCount: n})
}

func parsePrice(v string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(v)
	if err != nil || price.IsNegative() {
		return decimal.Zero, handler.BadRequest("Invalid price")
	}

	return price.Round(2), nil //nolint:mnd
}

// Create stores a book with its pdf and cover image.
func (s *Service) Create(c fiber.Ctx) error {
	f, err := handler.Fields(c)
	if err != nil {
		return err
	}

	if f.Str("name") == "" || f.Str("author") == "" || f.Str("price") == "" {
		return handler.BadRequest("Name, author, price, and PDF file are required")
	}

	price, err := parsePrice(f.Str("price"))
	if err != nil {
		return err
	}

	pdf, err := handler.Upload(c, s.deps.Uploads, "pdf", upload.FolderOthers, upload.KindPDF, true)
	if err != nil {
		return err
	}

	image, err := handler.Upload(c, s.deps.Uploads, "image", upload.FolderImages, upload.KindImage, true)
	if err != nil {
		handler.Discard(s.deps.Uploads, pdf.Path)
		return err
	}

	b := models.Book{
		Name:        f.Str("name"),
		Author:      f.Str("author"),
		Description: f.Str("description"),
		Price:       price,
		CoverImage:  image.URL,
		FileName:    pdf.Name,
		FilePath:    pdf.Path,
		FileSize:    upload.SizeLabel(pdf.Size),
	}

	if err = s.db.Create(&b).Error; err != nil {
		handler.Discard(s.deps.Uploads, handler.Uploaded(pdf, image)...)
		return handler.Internal(c, err, "Failed to create book")
	}

	return handler.Created(c, "Book created successfully", b)
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

	for _, key := range []string{"name", "author"} {
		if v := f.Str(key); v != "" {
			updates[key] = v
		}
	}

	if f.Has("description") {
		updates["description"] = f.Str("description")
	}

	if v := f.Str("price"); v != "" {
		price, err := parsePrice(v)
		if err != nil {
			return err
		}

		updates["price"] = price
	}

	pdf, err := handler.Upload(c, s.deps.Uploads, "pdf", upload.FolderOthers, upload.KindPDF, false)
	if err != nil {
		return err
	}

	image, err := handler.Upload(c, s.deps.Uploads, "image", upload.FolderImages, upload.KindImage, false)
	if err != nil {
		handler.Discard(s.deps.Uploads, handler.Uploaded(pdf)...)
		return err
	}

	var stale []string

	if pdf != nil {
		updates["file_name"] = pdf.Name
		updates["file_path"] = pdf.Path
		updates["file_size"] = upload.SizeLabel(pdf.Size)
		stale = append(stale, b.FilePath)
	}

	if image != nil {
		updates["cover_image"] = image.URL
		stale = append(stale, b.CoverImage)
	}

	if len(updates) > 0 {
		if err = s.db.Model(&models.Book{}).Where("id = ?", b.ID).Updates(updates).Error; err != nil {
			handler.Discard(s.deps.Uploads, handler.Uploaded(pdf, image)...)
			return handler.Internal(c, err, "Failed to update book")
		}
	}

	handler.Discard(s.deps.Uploads, stale...)

	if err = s.db.First(b, b.ID).Error; err != nil {
		return err
	}

	return handler.OK(c, "Book updated successfully", b)
}

// Delete removes a book nobody has bought, with its files.
func (s *Service) Delete(c fiber.Ctx) error {
	b, err := s.find(c)
	if err != nil {
		return err
	}

	n, err := s.purchases(b.ID)
	if err != nil {
		return err
	}

	if n > 0 {
		return handler.BadRequest(fmt.Sprintf("Cannot delete book. %d user(s) have purchased this book.", n))
	}

	if err = s.db.Delete(b).Error; err != nil {
		return handler.Internal(c, err, "Failed to delete book")
	}

	handler.Discard(s.deps.Uploads, b.FilePath, b.CoverImage)

	return handler.OK(c, "Book deleted successfully", nil)
}

// Stream sends the pdf of a purchased book inline, honouring range requests.
func (s *Service) Stream(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	claims := auth.ClaimsFrom(c)

	var purchase models.BookPurchase

	err = s.db.Preload("Book").
		Where("user_id = ? AND book_id = ? AND access_granted = ?", claims.ID, id, true).
		First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fiber.NewError(fiber.StatusForbidden, "You do not have access to this book. Please purchase it first.")
	}

	if err != nil {
		return err
	}

	if _, err = os.Stat(purchase.Book.FilePath); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "PDF file not found on server")
	}

	name := strings.TrimSpace(unsafeName.ReplaceAllString(purchase.Book.Name, "_"))
	if name == "" {
		name = "book"
	}

	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "SAMEORIGIN")
	c.Set(fiber.HeaderContentSecurityPolicy, "default-src 'self'")
	c.Set(fiber.HeaderCacheControl, "private, no-cache, no-store, must-revalidate")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")

	if err = c.SendFile(purchase.Book.FilePath, fiber.SendFile{ByteRange: true}); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s.pdf"`, url.PathEscape(name)))

	return nil
}

// Download sends a stored pdf as an attachment.
func (s *Service) Download(c fiber.Ctx) error {
	path, err := s.deps.Uploads.Resolve(upload.FolderOthers, c.Params("filename"))
	if err != nil {
		return handler.BadRequest("Invalid file name")
	}

	if _, err = os.Stat(path); err != nil {
		return fiber.NewError(fiber.StatusNotFound, "File not found")
	}

	return c.Download(path, filepath.Base(path))
}
