package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
)

// ErrInvalidID is answered for a non numeric id parameter.
var ErrInvalidID = fiber.NewError(fiber.StatusBadRequest, "Invalid ID") //nolint:gochecknoglobals

// ID parses the numeric route parameter name.
func ID(c fiber.Ctx, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidID
	}

	return id, nil
}

// NotFound returns a 404 error for what.
func NotFound(what string) error {
	return fiber.NewError(fiber.StatusNotFound, what+" not found")
}

// BadRequest returns a 400 error with message.
func BadRequest(message string) error {
	return fiber.NewError(fiber.StatusBadRequest, message)
}

// Page is the requested window of a listing.
type Page struct {
	Page  int
	Limit int
}

// Paging reads the page and limit query values. page is at least 1, limit
// falls back to def and is capped at maxLimit.
func Paging(c fiber.Ctx, def, maxLimit int) Page {
	p := Page{
		Page:  fiber.Query[int](c, "page", 1),
		Limit: fiber.Query[int](c, "limit", def),
	}

	if p.Page < 1 {
		p.Page = 1
	}

	if p.Limit < 1 {
		p.Limit = def
	}

	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}

	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages returns the number of pages holding total rows.
func (p Page) TotalPages(total int64) int {
	if total == 0 {
		return 0
	}

	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// Meta is the common pagination block.
func (p Page) Meta(total int64) fiber.Map {
	return fiber.Map{
		"page":       p.Page,
		"limit":      p.Limit,
		"total":      total,
		"totalPages": p.TotalPages(total),
	}
}
