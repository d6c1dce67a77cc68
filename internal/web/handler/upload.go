package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/gopalparivar/dhenu-mahima/internal/upload"
)

// Upload stores the file of the multipart field in folder. A missing file
// yields nil, nil unless required is set.
func Upload(c fiber.Ctx, store *upload.Store, field, folder string, kind upload.Kind, required bool) (*upload.Saved, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil {
		if required {
			return nil, BadRequest(fmt.Sprintf("File '%s' is required", field))
		}

		return nil, nil //nolint:nilnil
	}

	saved, err := store.Save(fh, folder, kind)

	switch {
	case errors.Is(err, upload.ErrImageType), errors.Is(err, upload.ErrAudioType),
		errors.Is(err, upload.ErrPDFType), errors.Is(err, upload.ErrFileTooLarge):
		return nil, BadRequest(err.Error())
	case err != nil:
		return nil, err
	}

	return saved, nil
}

// Discard removes stored files, used to roll back uploads of a failed request
// and to drop replaced files.
func Discard(store *upload.Store, urlsOrPaths ...string) {
	for _, p := range urlsOrPaths {
		if p == "" {
			continue
		}

		if err := store.Remove(p); err != nil {
			log.Warn().Err(err).Str("file", p).Msg("failed to remove upload")
		}
	}
}

// Uploaded collects the locations of saved files for Discard.
func Uploaded(saved ...*upload.Saved) []string {
	out := make([]string, 0, len(saved))

	for _, s := range saved {
		if s != nil {
			out = append(out, s.Path)
		}
	}

	return out
}
