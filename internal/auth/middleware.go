package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

// CookieName is the cookie that carries the login token.
const CookieName = "token"

type localsKey int

const claimsKey localsKey = iota

func deny(c fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"success": false, "message": message})
}

// tokenFrom reads the token cookie, or a bearer token for api clients.
func tokenFrom(c fiber.Ctx) string {
	if token := c.Cookies(CookieName); token != "" {
		return token
	}

	if h := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}

	return ""
}

// Authenticate verifies the login token and stores its claims in the request locals.
func Authenticate(tokens *Tokens) fiber.Handler {
	return func(c fiber.Ctx) error {
		claims, err := tokens.Parse(tokenFrom(c))
		if errors.Is(err, ErrNoToken) {
			return deny(c, fiber.StatusUnauthorized, "Not authenticated")
		}

		if err != nil {
			log.Debug().Err(err).Str("path", c.Path()).Msg("rejected token")
			return deny(c, fiber.StatusUnauthorized, "Invalid token")
		}

		c.Locals(claimsKey, claims)

		return c.Next()
	}
}

// ClaimsFrom returns the claims stored by Authenticate, nil when the request is anonymous.
func ClaimsFrom(c fiber.Ctx) *Claims {
	claims, _ := c.Locals(claimsKey).(*Claims)
	return claims
}

// RequireRole allows the request when the token role is one of roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c fiber.Ctx) error {
		claims := ClaimsFrom(c)
		if claims == nil {
			return deny(c, fiber.StatusUnauthorized, "Not authenticated")
		}

		for _, role := range roles {
			if claims.Role == role {
				return c.Next()
			}
		}

		log.Warn().Uint64("user_id", claims.ID).Str("role", claims.Role).Strs("required", roles).
			Msg("User lacks required role")

		return deny(c, fiber.StatusForbidden, "Access denied")
	}
}

// RequirePermission allows the request when the role of the user grants permission.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return func(c fiber.Ctx) error {
		claims := ClaimsFrom(c)
		if claims == nil {
			return deny(c, fiber.StatusUnauthorized, "Not authenticated")
		}

		hasPermission, err := authService.HasPermission(claims.ID, permission)
		if err != nil {
			log.Error().Err(err).Uint64("user_id", claims.ID).Str("permission", permission).
				Msg("Failed to check permission")

			return deny(c, fiber.StatusInternalServerError, "Internal Server Error")
		}

		if !hasPermission {
			log.Warn().Uint64("user_id", claims.ID).Str("permission", permission).
				Msg("User lacks required permission")

			return deny(c, fiber.StatusForbidden, "Access denied")
		}

		return c.Next()
	}
}

// SelfOrAdmin reports whether the caller may read data of userID.
func SelfOrAdmin(c fiber.Ctx, userID uint64) bool {
	claims := ClaimsFrom(c)

	return claims != nil && (claims.ID == userID || claims.IsAdmin())
}
