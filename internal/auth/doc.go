// Package auth provides authentication and authorization for the api.
//
// Accounts are local: visitors sign up with email and password and confirm a
// six digit code (TOTP, 300 s step) that is mailed to them. Passwords are
// stored as Argon2id hashes.
//
// # Tokens
//
// A successful login issues an HS256 JWT carrying id, role, email and name.
// The token travels in the HttpOnly cookie "token"; api clients may send it as
// a bearer token instead.
//
// # Authorization
//
// Three built-in roles exist: admin, subadmin and user. Routes are guarded by
// role (RequireRole) or by a permission granted to the role (RequirePermission).
// Seed creates the roles, the permissions of each role and a first admin.
//
// Example usage:
//
//	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
//
//	app.Get("/api/admin/users",
//	    auth.Authenticate(tokens),
//	    auth.RequirePermission(authService, auth.PermUsersManage),
//	    handler,
//	)
package auth
