package upload

import "errors"

var (
	// ErrImageType is returned for an image upload with a disallowed extension or mime type.
	ErrImageType = errors.New("only image files are allowed (jpeg, jpg, png, gif, webp)")
	// ErrAudioType is returned for an audio upload with a disallowed extension or mime type.
	ErrAudioType = errors.New("only audio files are allowed (mp3, wav, mpeg)")
	// ErrPDFType is returned for a pdf upload with a disallowed extension or mime type.
	ErrPDFType = errors.New("only PDF files are allowed")
	// ErrFileTooLarge is returned when a file exceeds the size limit.
	ErrFileTooLarge = errors.New("file is too large")
	// ErrInvalidName is returned for file names that try to leave their folder.
	ErrInvalidName = errors.New("invalid file name")
)
