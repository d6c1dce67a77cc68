package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/web/session"
)

// Notifier delivers the account mails.
type Notifier interface {
	SendOTP(ctx context.Context, to, code string, ttl time.Duration) error
	SendPasswordReset(ctx context.Context, to, link string) error
}

// Accounts handles signup, verification, login and password resets of local users.
type Accounts struct {
	db       *gorm.DB
	cfg      *config.Config
	tokens   *Tokens
	resets   *session.Resets
	notifier Notifier
	now      func() time.Time
}

// SignupInput is the data of a new account.
type SignupInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Address  string
}

const whereEmail = "email = ?"

// NewAccounts creates the account service.
func NewAccounts(db *gorm.DB, cfg *config.Config, tokens *Tokens, resets *session.Resets, notifier Notifier) *Accounts {
	return &Accounts{
		db:       db,
		cfg:      cfg,
		tokens:   tokens,
		resets:   resets,
		notifier: notifier,
		now:      time.Now,
	}
}

// Tokens returns the token issuer.
func (a *Accounts) Tokens() *Tokens {
	return a.tokens
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (a *Accounts) byEmail(email string) (*models.User, error) {
	var user models.User

	err := a.db.Preload("Role").Where(whereEmail, normalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// Signup creates an unverified user and mails the verification code.
func (a *Accounts) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := normalizeEmail(in.Email)

	_, err := a.byEmail(email)
	if err == nil {
		return nil, ErrUserExists
	}

	if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	var role models.Role
	if err = a.db.Where("name = ?", models.RoleUser).First(&role).Error; err != nil {
		return nil, fmt.Errorf("failed to load user role: %w", err)
	}

	secret, err := NewOTPSecret(a.cfg.Auth.OTPIssuer, email)
	if err != nil {
		return nil, err
	}

	now := a.now()
	expires := now.Add(a.cfg.Auth.OTPTTL)

	user := models.User{
		Name:       strings.TrimSpace(in.Name),
		Email:      email,
		Phone:      strings.TrimSpace(in.Phone),
		Address:    strings.TrimSpace(in.Address),
		Password:   models.HashPassword(in.Password),
		RoleID:     role.ID,
		Role:       role,
		OTPSecret:  secret,
		OTPExpires: &expires,
	}

	if err = a.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	code, err := GenerateOTP(secret, now)
	if err != nil {
		return nil, err
	}

	if err = a.notifier.SendOTP(ctx, email, code, a.cfg.Auth.OTPTTL); err != nil {
		log.Error().Err(err).Str("email", email).Msg("failed to send signup code")
	}

	return &user, nil
}

// VerifyOTP confirms the signup code of an account.
func (a *Accounts) VerifyOTP(email, code string) error {
	user, err := a.byEmail(email)
	if err != nil {
		return err
	}

	if user.IsVerified {
		return ErrAlreadyVerified
	}

	now := a.now()
	if user.OTPSecret == "" || user.OTPExpires == nil || now.After(*user.OTPExpires) {
		return ErrInvalidOTP
	}

	if !ValidateOTP(user.OTPSecret, strings.TrimSpace(code), now) {
		return ErrInvalidOTP
	}

	return a.db.Model(user).Updates(map[string]interface{}{
		"is_verified": true,
		"otp_secret":  "",
		"otp_expires": nil,
	}).Error
}

// Login checks the credentials and returns the user with a signed token.
func (a *Accounts) Login(email, password string) (*models.User, string, error) {
	user, err := a.byEmail(email)
	if errors.Is(err, ErrUserNotFound) {
		return nil, "", ErrInvalidCredentials
	}

	if err != nil {
		return nil, "", err
	}

	if !user.VerifyPassword(password) {
		return nil, "", ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, "", ErrNotVerified
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// ForgotPassword stores a reset token and mails the reset link.
func (a *Accounts) ForgotPassword(ctx context.Context, email string) error {
	user, err := a.byEmail(email)
	if err != nil {
		return err
	}

	token, err := a.resets.Issue(user.ID, user.Email)
	if err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	link := strings.TrimSuffix(a.cfg.Webserver.FrontendURL, "/") + "/reset-password?token=" + token

	return a.notifier.SendPasswordReset(ctx, user.Email, link)
}

// ResetPassword sets a new password for the owner of a reset token.
func (a *Accounts) ResetPassword(token, newPassword string) error {
	data, err := a.resets.Lookup(token)
	if err != nil {
		return ErrInvalidResetToken
	}

	res := a.db.Model(&models.User{}).
		Where("id = ?", data.UserID).
		Update("password", models.HashPassword(newPassword))
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrInvalidResetToken
	}

	if err = a.resets.Consume(token); err != nil {
		log.Warn().Err(err).Msg("failed to delete used reset token")
	}

	return nil
}
