// Package upload stores uploaded files on the local disk below the upload directory,
// which the web server exposes under /uploads.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/uniuri"
)

// Folders below the upload directory.
const (
	FolderImages  = "images"
	FolderNews    = "news"
	FolderAudio   = "audio"
	FolderOthers  = "others"
	FolderBanners = "banners"

	// URLPrefix is the route the upload directory is served from.
	URLPrefix = "/uploads"

	// DefaultImage is the placeholder used when news has no image, it is never removed.
	DefaultImage = "/images/1.png"

	defaultMaxSize = 50 << 20
)

// Kind selects the file filter.
type Kind int

// Upload kinds.
const (
	KindAny Kind = iota
	KindImage
	KindAudio
	KindPDF
)

type filter struct {
	field   string
	pattern *regexp.Regexp
	err     error
}

var filters = map[Kind]filter{ //nolint:gochecknoglobals
	KindAny:   {field: "file"},
	KindImage: {field: "image", pattern: regexp.MustCompile(`jpeg|jpg|png|gif|webp`), err: ErrImageType},
	KindAudio: {field: "audio", pattern: regexp.MustCompile(`mp3|wav|mpeg`), err: ErrAudioType},
	KindPDF:   {field: "pdf", pattern: regexp.MustCompile(`pdf`), err: ErrPDFType},
}

// Saved describes a stored file.
type Saved struct {
	URL  string // public url
	Path string // location on disk
	Name string // file name inside its folder
	Size int64
}

// Store writes files below a root directory.
type Store struct {
	dir     string
	baseURL string
	maxSize int64
}

// New creates a store from the webserver settings.
func New(cfg config.Webserver) *Store {
	maxSize := int64(cfg.BodyLimitMB) << 20
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}

	return &Store{
		dir:     cfg.UploadDir,
		baseURL: strings.TrimSuffix(cfg.BackendURL, "/"),
		maxSize: maxSize,
	}
}

// Dir returns the root directory.
func (s *Store) Dir() string {
	return s.dir
}

// Check validates a file against the filter of kind without storing it.
func (s *Store) Check(fh *multipart.FileHeader, kind Kind) error {
	if fh.Size > s.maxSize {
		return ErrFileTooLarge
	}

	f := filters[kind]
	if f.pattern == nil {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	mime := strings.ToLower(fh.Header.Get("Content-Type"))

	if !f.pattern.MatchString(ext) || !f.pattern.MatchString(mime) {
		return f.err
	}

	return nil
}

// Save validates and stores fh in folder.
func (s *Store) Save(fh *multipart.FileHeader, folder string, kind Kind) (*Saved, error) {
	if err := s.Check(fh, kind); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.dir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:mnd
		return nil, fmt.Errorf("create upload folder: %w", err)
	}

	suffix, err := uniuri.NewLenChars(uniuri.FileSuffixLen, uniuri.Digits)
	if err != nil {
		return nil, fmt.Errorf("upload name: %w", err)
	}

	name := fmt.Sprintf("%s-%d-%s%s", filters[kind].field, time.Now().UnixMilli(), suffix,
		strings.ToLower(filepath.Ext(fh.Filename)))
	path := filepath.Join(dir, name)

	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := os.Create(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}

	size, err := io.Copy(dst, io.LimitReader(src, s.maxSize+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}

	if err == nil && size > s.maxSize {
		err = ErrFileTooLarge
	}

	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	return &Saved{
		URL:  s.URL(folder, name),
		Path: path,
		Name: name,
		Size: size,
	}, nil
}

// URL returns the public url of a stored file.
func (s *Store) URL(folder, name string) string {
	return s.baseURL + URLPrefix + "/" + folder + "/" + name
}

// Remove deletes a file by its public url or disk path. Missing files and the
// default image are ignored.
func (s *Store) Remove(urlOrPath string) error {
	path := s.localPath(urlOrPath)
	if path == "" {
		return nil
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

func (s *Store) localPath(urlOrPath string) string {
	if urlOrPath == "" || strings.HasSuffix(urlOrPath, DefaultImage) {
		return ""
	}

	var rel string

	switch i := strings.Index(urlOrPath, URLPrefix+"/"); {
	case i >= 0:
		rel = urlOrPath[i+len(URLPrefix)+1:]
	case strings.HasPrefix(urlOrPath, s.dir):
		rel, _ = filepath.Rel(s.dir, urlOrPath)
	default:
		return ""
	}

	if strings.Contains(rel, "..") {
		return ""
	}

	return filepath.Join(s.dir, filepath.FromSlash(rel))
}

// Resolve maps a user supplied file name to a path inside folder.
func (s *Store) Resolve(folder, name string) (string, error) {
	if name == "" || strings.Contains(name, "..") {
		return "", ErrInvalidName
	}

	base := filepath.Base(filepath.FromSlash(name))
	if base == "." || base == string(filepath.Separator) {
		return "", ErrInvalidName
	}

	return filepath.Join(s.dir, folder, base), nil
}

// SizeLabel formats a byte count as "X.XX MB".
func SizeLabel(size int64) string {
	return fmt.Sprintf("%.2f MB", float64(size)/(1<<20))
}
