// Package account serves signup, email verification, login and password resets.
package account

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/rs/zerolog/log"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
	"github.com/gopalparivar/dhenu-mahima/internal/web/session"
)

const (
	// Path is the path of the auth api.
	Path = "/auth"

	limitMax    = 10
	limitWindow = 5 * time.Minute
)

// Service is the account handler service.
type Service struct {
	handler.Service
	deps *handler.Deps
}

// Handler is the account handler.
var Handler = Service{}

// Init registers the auth routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() || deps.Accounts == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.deps = deps
	limit := Limiter(deps.Storage)

	router.Route(Path, func(r fiber.Router) {
		r.Post("/signup", limit, s.signup)
		r.Post("/verify-otp", limit, s.verifyOTP)
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)
		r.Post("/forgot-password", limit, s.forgotPassword)
		r.Post("/reset-password", limit, s.resetPassword)
		r.Get("/check-auth", deps.Authn, s.checkAuth)
	})

	return nil
}

// Limiter allows 10 requests per 5 minutes and client address, counted in storage.
func Limiter(storage fiber.Storage) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        limitMax,
		Expiration: limitWindow,
		Storage:    storage,
		KeyGenerator: func(c fiber.Ctx) string {
			return session.LimiterKey(c.IP())
		},
		LimitReached: func(c fiber.Ctx) error {
			return handler.Fail(c, fiber.StatusTooManyRequests, "Too many requests, please try again later.")
		},
	})
}

type signupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" validate:"required,min=6"`
	Address  string `json:"address"`
}

func (s *Service) signup(c fiber.Ctx) error {
	var in signupRequest
	if err := handler.Parse(c, &in); err != nil {
		return err
	}

	_, err := s.deps.Accounts.Signup(c.Context(), auth.SignupInput{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: in.Password,
		Address:  in.Address,
	})
	if errors.Is(err, auth.ErrUserExists) {
		return handler.BadRequest("User already exists")
	}

	if err != nil {
		return handler.Internal(c, err, "signup failed")
	}

	return handler.OK(c, "User registered. OTP sent to email.", nil)
}

type verifyRequest struct {
	Email string `json:"email" validate:"required"`
	OTP   string `json:"otp" validate:"required"`
}

func (s *Service) verifyOTP(c fiber.Ctx) error {
	var in verifyRequest
	if err := handler.Parse(c, &in); err != nil {
		return err
	}

	err := s.deps.Accounts.VerifyOTP(in.Email, in.OTP)

	switch {
	case err == nil:
		return handler.OK(c, "Email verified successfully", nil)
	case errors.Is(err, auth.ErrAlreadyVerified):
		return handler.OK(c, "Already verified", nil)
	case errors.Is(err, auth.ErrUserNotFound):
		return handler.NotFound("User")
	case errors.Is(err, auth.ErrInvalidOTP):
		return handler.BadRequest("Invalid or expired OTP")
	default:
		return handler.Internal(c, err, "otp verification failed")
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (s *Service) login(c fiber.Ctx) error {
	var in loginRequest
	if err := handler.Parse(c, &in); err != nil {
		return err
	}

	user, token, err := s.deps.Accounts.Login(in.Email, in.Password)

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return handler.BadRequest("Invalid credentials")
	case errors.Is(err, auth.ErrNotVerified):
		return fiber.NewError(fiber.StatusForbidden, "Email not verified")
	case err != nil:
		return handler.Internal(c, err, "login failed")
	}

	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.deps.Tokens.TTL().Seconds()),
		Secure:   s.deps.Cfg.Auth.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	log.Info().Uint64("user_id", user.ID).Str("role", user.RoleName()).Msg("user logged in")

	return c.JSON(fiber.Map{"success": true, "role": user.RoleName(), "message": "Login successful"})
}

func (s *Service) logout(c fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   s.deps.Cfg.Auth.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return handler.OK(c, "Logout successful", nil)
}

type forgotRequest struct {
	Email string `json:"email" validate:"required"`
}

func (s *Service) forgotPassword(c fiber.Ctx) error {
	var in forgotRequest
	if err := handler.Parse(c, &in); err != nil {
		return err
	}

	err := s.deps.Accounts.ForgotPassword(c.Context(), in.Email)
	if errors.Is(err, auth.ErrUserNotFound) {
		return handler.NotFound("User")
	}

	if err != nil {
		return handler.Internal(c, err, "password reset request failed")
	}

	return handler.OK(c, "Reset link sent to email", nil)
}

type resetRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

func (s *Service) resetPassword(c fiber.Ctx) error {
	var in resetRequest
	if err := handler.Parse(c, &in); err != nil {
		return err
	}

	err := s.deps.Accounts.ResetPassword(in.Token, in.NewPassword)
	if errors.Is(err, auth.ErrInvalidResetToken) {
		return handler.BadRequest("Invalid or expired token")
	}

	if err != nil {
		return handler.Internal(c, err, "password reset failed")
	}

	return handler.OK(c, "Password reset successful", nil)
}

func (s *Service) checkAuth(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "user": auth.ClaimsFrom(c)})
}
