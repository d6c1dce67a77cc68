package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/db/dbtest"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/web/session"
)

type fakeNotifier struct {
	mu     sync.Mutex
	codes  map[string]string
	resets map[string]string
}

func (f *fakeNotifier) SendOTP(_ context.Context, to, code string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.codes[to] = code

	return nil
}

func (f *fakeNotifier) SendPasswordReset(_ context.Context, to, link string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.resets[to] = link

	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Webserver: config.Webserver{FrontendURL: "https://example.org/"},
		Auth: config.Auth{
			JWTSecret:  "secret",
			TokenTTL:   time.Hour,
			OTPTTL:     5 * time.Minute,
			OTPIssuer:  "test",
			ResetTTL:   time.Minute,
			AdminEmail: "admin@example.org",
			AdminPass:  "adminpass",
		},
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db := dbtest.Open(t)
	require.NoError(t, Seed(db, testConfig().Auth))

	return db
}

func setupAccounts(t *testing.T) (*Accounts, *fakeNotifier, *gorm.DB) {
	t.Helper()

	db := setupTestDB(t)
	cfg := testConfig()
	n := &fakeNotifier{codes: map[string]string{}, resets: map[string]string{}}

	a := NewAccounts(db, cfg, NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		session.NewResets(memory.New(), cfg.Auth.ResetTTL), n)

	return a, n, db
}

func TestSeedIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, Seed(db, testConfig().Auth))

	var roles, perms, admins int64
	db.Model(&models.Role{}).Count(&roles)
	db.Model(&models.Permission{}).Count(&perms)
	db.Model(&models.User{}).Where("email = ?", "admin@example.org").Count(&admins)

	assert.Equal(t, int64(len(models.Roles)), roles)
	assert.Equal(t, int64(len(AllPermissions())), perms)
	assert.Equal(t, int64(1), admins)
}

func TestPermissions(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	var admin models.User
	require.NoError(t, db.Where("email = ?", "admin@example.org").First(&admin).Error)

	ok, err := svc.HasPermission(admin.ID, PermUsersManage)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, svc.AssignRole(admin.ID, "SubAdmin"))

	ok, err = svc.HasPermission(admin.ID, PermUsersManage)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.HasAnyPermission(admin.ID, []string{PermUsersManage, PermNewsWrite})
	require.NoError(t, err)
	assert.True(t, ok)

	perms, err := svc.GetUserPermissions(admin.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, RolePermissions(models.RoleSubAdmin), perms)

	assert.ErrorIs(t, svc.AssignRole(admin.ID, "root"), ErrUnknownRole)
	assert.ErrorIs(t, svc.AssignRole(9999, models.RoleUser), ErrUserNotFound)
}

func TestSignupVerifyLogin(t *testing.T) {
	a, n, _ := setupAccounts(t)
	ctx := context.Background()

	user, err := a.Signup(ctx, SignupInput{Name: "Ram", Email: " Ram@Example.org ", Phone: "9876543210", Password: "pw123456"})
	require.NoError(t, err)
	assert.Equal(t, "ram@example.org", user.Email)
	assert.False(t, user.IsVerified)

	_, err = a.Signup(ctx, SignupInput{Name: "Ram", Email: "ram@example.org", Password: "x"})
	assert.ErrorIs(t, err, ErrUserExists)

	_, _, err = a.Login("ram@example.org", "pw123456")
	assert.ErrorIs(t, err, ErrNotVerified)

	assert.ErrorIs(t, a.VerifyOTP("ram@example.org", "000000x"), ErrInvalidOTP)
	assert.ErrorIs(t, a.VerifyOTP("nobody@example.org", "1"), ErrUserNotFound)

	code := n.codes["ram@example.org"]
	require.Len(t, code, 6)
	require.NoError(t, a.VerifyOTP("ram@example.org", code))
	assert.ErrorIs(t, a.VerifyOTP("ram@example.org", code), ErrAlreadyVerified)

	_, _, err = a.Login("ram@example.org", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = a.Login("nobody@example.org", "pw123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	got, token, err := a.Login("RAM@example.org", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	claims, err := a.Tokens().Parse(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, claims.Role)
	assert.Equal(t, "Ram", claims.Name)
}

func TestVerifyOTPExpired(t *testing.T) {
	a, n, _ := setupAccounts(t)

	_, err := a.Signup(context.Background(), SignupInput{Name: "Ram", Email: "ram@example.org", Password: "pw"})
	require.NoError(t, err)

	a.now = func() time.Time { return time.Now().Add(6 * time.Minute) }

	assert.ErrorIs(t, a.VerifyOTP("ram@example.org", n.codes["ram@example.org"]), ErrInvalidOTP)
}

func TestForgotAndResetPassword(t *testing.T) {
	a, n, _ := setupAccounts(t)
	ctx := context.Background()

	assert.ErrorIs(t, a.ForgotPassword(ctx, "nobody@example.org"), ErrUserNotFound)
	require.NoError(t, a.ForgotPassword(ctx, "admin@example.org"))

	link := n.resets["admin@example.org"]
	require.Contains(t, link, "https://example.org/reset-password?token=")

	token := link[len("https://example.org/reset-password?token="):]

	assert.ErrorIs(t, a.ResetPassword("bogus", "newpass"), ErrInvalidResetToken)
	require.NoError(t, a.ResetPassword(token, "newpass"))
	assert.ErrorIs(t, a.ResetPassword(token, "again"), ErrInvalidResetToken)

	_, _, err := a.Login("admin@example.org", "newpass")
	assert.NoError(t, err)
}

func TestTokens(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	user := &models.User{ID: 3, Name: "Sita", Email: "sita@example.org", Role: models.Role{Name: models.RoleAdmin}}

	signed, err := tokens.Issue(user)
	require.NoError(t, err)

	claims, err := tokens.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), claims.ID)
	assert.True(t, claims.IsAdmin())
	assert.True(t, claims.IsStaff())

	_, err = NewTokens("other", time.Hour).Parse(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewTokens("secret", -time.Minute).Parse(mustIssue(t, NewTokens("secret", -time.Minute), user))
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("")
	assert.ErrorIs(t, err, ErrNoToken)
}

func mustIssue(t *testing.T, tokens *Tokens, user *models.User) string {
	t.Helper()

	s, err := tokens.Issue(user)
	require.NoError(t, err)

	return s
}

func TestOTP(t *testing.T) {
	secret, err := NewOTPSecret("test", "a@example.org")
	require.NoError(t, err)

	now := time.Now()
	code, err := GenerateOTP(secret, now)
	require.NoError(t, err)

	assert.True(t, ValidateOTP(secret, code, now))
	assert.True(t, ValidateOTP(secret, code, now.Add(4*time.Minute)))
	assert.False(t, ValidateOTP(secret, code, now.Add(20*time.Minute)))
	assert.False(t, ValidateOTP(secret, "abc", now))
}

func TestMiddleware(t *testing.T) {
	db := setupTestDB(t)
	tokens := NewTokens("secret", time.Hour)
	svc := NewService(db)

	var admin models.User
	require.NoError(t, db.Preload("Role").Where("email = ?", "admin@example.org").First(&admin).Error)

	adminToken := mustIssue(t, tokens, &admin)
	userToken := mustIssue(t, tokens, &models.User{ID: 99, Role: models.Role{Name: models.RoleUser}})

	app := fiber.New()
	ok := func(c fiber.Ctx) error { return c.SendString(ClaimsFrom(c).Role) }

	app.Get("/any", Authenticate(tokens), ok)
	app.Get("/staff", Authenticate(tokens), RequireRole(models.RoleAdmin, models.RoleSubAdmin), ok)
	app.Get("/users", Authenticate(tokens), RequirePermission(svc, PermUsersManage), ok)

	tests := []struct {
		name   string
		path   string
		cookie string
		bearer string
		status int
	}{
		{"no token", "/any", "", "", fiber.StatusUnauthorized},
		{"garbage token", "/any", "garbage", "", fiber.StatusUnauthorized},
		{"cookie", "/any", userToken, "", fiber.StatusOK},
		{"bearer", "/any", "", userToken, fiber.StatusOK},
		{"user on staff route", "/staff", userToken, "", fiber.StatusForbidden},
		{"admin on staff route", "/staff", adminToken, "", fiber.StatusOK},
		{"user lacks permission", "/users", userToken, "", fiber.StatusForbidden},
		{"admin has permission", "/users", adminToken, "", fiber.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}

			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
