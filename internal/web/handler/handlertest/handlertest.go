// Package handlertest builds a fiber app around one handler service for tests:
// a migrated in-memory database with one account per role, a miniredis cache,
// memory auth storage, a recording mailer, a temporary upload directory and a
// fake payment gateway.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/cache"
	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/db/dbtest"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/mail"
	"github.com/gopalparivar/dhenu-mahima/internal/membership"
	"github.com/gopalparivar/dhenu-mahima/internal/upload"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
	"github.com/gopalparivar/dhenu-mahima/internal/web/session"
)

// Account emails and the password shared by the seeded accounts.
const (
	AdminEmail    = "admin@example.org"
	SubAdminEmail = "sub@example.org"
	UserEmail     = "user@example.org"
	OtherEmail    = "other@example.org"
	Password      = "secret123"

	// Other is a second account with role user.
	Other = "other"

	BackendURL  = "http://api.test"
	FrontendURL = "http://web.test"
)

// Env is a ready to use test application.
type Env struct {
	App     *fiber.App
	Deps    *handler.Deps
	DB      *gorm.DB
	Mail    *mail.Recorder
	Redis   *miniredis.Miniredis
	Gateway *Gateway
	Users   map[string]*models.User
}

// Config returns the configuration used by New.
func Config(uploadDir string) *config.Config {
	return &config.Config{
		Title:       "test",
		Environment: "test",
		Webserver: config.Webserver{
			Port:        3000,
			URL:         BackendURL,
			BackendURL:  BackendURL,
			FrontendURL: FrontendURL,
			BodyLimitMB: 50,
			UploadDir:   uploadDir,
		},
		Auth: config.Auth{
			JWTSecret:  "test-secret",
			TokenTTL:   time.Hour,
			OTPTTL:     5 * time.Minute,
			OTPIssuer:  "test",
			ResetTTL:   15 * time.Minute,
			AdminEmail: AdminEmail,
			AdminName:  "Admin",
			AdminPass:  Password,
		},
		PhonePe: config.PhonePe{
			ClientID:        "client",
			ClientSecret:    "secret",
			ClientVersion:   "1",
			WebhookUsername: "hook",
			WebhookPassword: "pass",
		},
	}
}

// New mounts svc below /api.
func New(t *testing.T, svc handler.Service) *Env {
	t.Helper()

	cfg := Config(t.TempDir())
	db := dbtest.Open(t)
	require.NoError(t, auth.Seed(db, cfg.Auth))

	mr := miniredis.RunT(t)
	c, err := cache.New(config.Cache{Enabled: true, Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	recorder := &mail.Recorder{}
	mailer, err := mail.New(recorder, "office@example.org")
	require.NoError(t, err)

	gw := NewGateway(t)
	client := gw.Client(cfg.PhonePe)
	storage := memory.New()
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	deps := (&handler.Deps{
		Cfg:         cfg,
		DB:          db,
		Auth:        auth.NewService(db),
		Tokens:      tokens,
		Accounts:    auth.NewAccounts(db, cfg, tokens, session.NewResets(storage, cfg.Auth.ResetTTL), mailer),
		Storage:     storage,
		Cache:       c,
		Payment:     client,
		Memberships: membership.NewService(db, client, mailer, cfg.Webserver.BackendURL),
		Mailer:      mailer,
		Uploads:     upload.New(cfg.Webserver),
	}).Guards()

	app := fiber.New(fiber.Config{ErrorHandler: handler.ErrorHandler, BodyLimit: 50 << 20})
	require.NoError(t, svc.Init(app.Group("/api"), deps))
	app.Use(handler.NotFoundRoute)

	env := &Env{
		App:     app,
		Deps:    deps,
		DB:      db,
		Mail:    recorder,
		Redis:   mr,
		Gateway: gw,
		Users:   map[string]*models.User{},
	}

	env.Users[models.RoleAdmin] = env.load(t, AdminEmail)
	env.Users[models.RoleSubAdmin] = env.CreateUser(t, "Sub Admin", SubAdminEmail, models.RoleSubAdmin)
	env.Users[models.RoleUser] = env.CreateUser(t, "Ram", UserEmail, models.RoleUser)
	env.Users[Other] = env.CreateUser(t, "Shyam", OtherEmail, models.RoleUser)

	return env
}

func (e *Env) load(t *testing.T, email string) *models.User {
	t.Helper()

	var u models.User
	require.NoError(t, e.DB.Preload("Role").Where("email = ?", email).First(&u).Error)

	return &u
}

// CreateUser stores a verified account with the shared password.
func (e *Env) CreateUser(t *testing.T, name, email, role string) *models.User {
	t.Helper()

	r, err := e.Deps.Auth.RoleByName(role)
	require.NoError(t, err)

	u := &models.User{
		Name:       name,
		Email:      email,
		Phone:      "9876543210",
		Password:   models.HashPassword(Password),
		RoleID:     r.ID,
		IsVerified: true,
	}
	require.NoError(t, e.DB.Create(u).Error)
	u.Role = *r

	return u
}

// Token returns a login token of the account stored under key, a role name or Other.
func (e *Env) Token(t *testing.T, key string) string {
	t.Helper()

	u, ok := e.Users[key]
	require.True(t, ok, "unknown account %q", key)

	token, err := e.Deps.Tokens.Issue(u)
	require.NoError(t, err)

	return token
}

// Do sends a request, as anonymous when as is empty. A non nil body is sent as json.
func (e *Env) Do(t *testing.T, method, path string, body interface{}, as string) *http.Response {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, path, reader) //nolint:noctx
	require.NoError(t, err)

	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	return e.Send(t, req, as)
}

// Send runs req against the app with the token of as.
func (e *Env) Send(t *testing.T, req *http.Request, as string) *http.Response {
	t.Helper()

	if as != "" {
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: e.Token(t, as)})
	}

	resp, err := e.App.Test(req, fiber.TestConfig{Timeout: 10 * time.Second, FailOnTimeout: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

// File is a part of a multipart request.
type File struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// PNG is a file part holding a tiny png image.
func PNG(field string) File {
	return File{Field: field, Name: "photo.png", ContentType: "image/png", Data: []byte("\x89PNG\r\n\x1a\n")}
}

// PDF is a file part holding a tiny pdf document.
func PDF(field string) File {
	return File{Field: field, Name: "book.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4\n%%EOF\n")}
}

// MP3 is a file part holding a few audio bytes.
func MP3(field string) File {
	return File{Field: field, Name: "track.mp3", ContentType: "audio/mpeg", Data: []byte("ID3\x03\x00\x00\x00")}
}

// Multipart sends a multipart form with fields and files.
func (e *Env) Multipart(t *testing.T, method, path string, fields map[string]string, files []File, as string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}

	for _, f := range files {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+f.Field+`"; filename="`+f.Name+`"`)
		h.Set("Content-Type", f.ContentType)

		part, err := w.CreatePart(h)
		require.NoError(t, err)

		_, err = part.Write(f.Data)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	req, err := http.NewRequest(method, path, &buf) //nolint:noctx
	require.NoError(t, err)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())

	return e.Send(t, req, as)
}

// Body decodes a json response into a map.
func Body(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	Decode(t, resp, &out)

	return out
}

// Decode decodes a json response into v.
func Decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v), "body: %s", raw)
}
