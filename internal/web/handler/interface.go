package handler

import (
	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/cache"
	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/mail"
	"github.com/gopalparivar/dhenu-mahima/internal/membership"
	"github.com/gopalparivar/dhenu-mahima/internal/payment"
	"github.com/gopalparivar/dhenu-mahima/internal/upload"
)

// Service is the interface for a web handler service.
type Service interface {
	Init(router fiber.Router, deps *Deps) error
}

// Deps bundles the collaborators shared by the handler services.
type Deps struct {
	Cfg         *config.Config
	DB          *gorm.DB
	Auth        *auth.Service
	Tokens      *auth.Tokens
	Accounts    *auth.Accounts
	Storage     fiber.Storage
	Cache       cache.Cache
	Payment     *payment.Client
	Memberships *membership.Service
	Mailer      *mail.Mailer
	Uploads     *upload.Store

	// Authn rejects requests without a valid login token.
	Authn fiber.Handler
	// Staff admits admins and subadmins, it must follow Authn.
	Staff fiber.Handler
	// Admin admits admins only, it must follow Authn.
	Admin fiber.Handler
}

// Guards fills the role guards from the token issuer.
func (d *Deps) Guards() *Deps {
	d.Authn = auth.Authenticate(d.Tokens)
	d.Staff = auth.RequireRole(models.RoleAdmin, models.RoleSubAdmin)
	d.Admin = auth.RequireRole(models.RoleAdmin)

	return d
}

// Can returns a guard checking permission against the role of the caller, it must follow Authn.
func (d *Deps) Can(permission string) fiber.Handler {
	return auth.RequirePermission(d.Auth, permission)
}

// Valid reports whether the shared collaborators every handler needs are set.
func (d *Deps) Valid() bool {
	return d != nil && d.Cfg != nil && d.DB != nil && d.Authn != nil
}
