package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/config"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
)

var roleDescriptions = map[string]string{ //nolint:gochecknoglobals
	models.RoleAdmin:    "Full access to every resource",
	models.RoleSubAdmin: "Manages content, books, coupons and gaushalas",
	models.RoleUser:     "Registered visitor, donor or member",
}

// Seed creates the built-in roles and permissions and an admin account when none exists.
// It is idempotent.
func Seed(db *gorm.DB, cfg config.Auth) error {
	return db.Transaction(func(tx *gorm.DB) error {
		perms := make(map[string]uint, len(AllPermissions()))

		for _, name := range AllPermissions() {
			resource, action, _ := strings.Cut(name, ".")

			p := models.Permission{Name: name, Resource: resource, Action: action}
			if err := tx.Where(models.Permission{Name: name}).FirstOrCreate(&p).Error; err != nil {
				return fmt.Errorf("seed permission %s: %w", name, err)
			}

			perms[name] = p.ID
		}

		roles := make(map[string]uint, len(models.Roles))

		for _, name := range models.Roles {
			r := models.Role{Name: name, Description: roleDescriptions[name], IsSystem: true}
			if err := tx.Where(models.Role{Name: name}).FirstOrCreate(&r).Error; err != nil {
				return fmt.Errorf("seed role %s: %w", name, err)
			}

			roles[name] = r.ID

			for _, perm := range RolePermissions(name) {
				rp := models.RolePermission{RoleID: r.ID, PermissionID: perms[perm]}
				if err := tx.Where(rp).FirstOrCreate(&rp).Error; err != nil {
					return fmt.Errorf("seed role permission %s/%s: %w", name, perm, err)
				}
			}
		}

		return seedAdmin(tx, cfg, roles[models.RoleAdmin])
	})
}

func seedAdmin(tx *gorm.DB, cfg config.Auth, adminRoleID uint) error {
	if cfg.AdminEmail == "" {
		return nil
	}

	var existing models.User

	err := tx.Where("role_id = ?", adminRoleID).First(&existing).Error
	if err == nil {
		return nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	name := cfg.AdminName
	if name == "" {
		name = "Administrator"
	}

	password := cfg.AdminPass
	if password == "" {
		password = "changeme"
	}

	admin := models.User{
		Name:       name,
		Email:      normalizeEmail(cfg.AdminEmail),
		Password:   models.HashPassword(password),
		RoleID:     adminRoleID,
		IsVerified: true,
	}

	if err = tx.Where(models.User{Email: admin.Email}).Assign(models.User{RoleID: adminRoleID, IsVerified: true}).
		FirstOrCreate(&admin).Error; err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}

	log.Warn().Str("email", admin.Email).Msg("created admin account, change its password")

	return nil
}
