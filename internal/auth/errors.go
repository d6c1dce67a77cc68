package auth

import "errors"

var (
	// ErrUserExists is returned on signup with an email that is already registered.
	ErrUserExists = errors.New("user already exists")

	// ErrUserNotFound is returned when a user cannot be found in the database.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotVerified is returned on login before the signup code was confirmed.
	ErrNotVerified = errors.New("email not verified")

	// ErrAlreadyVerified is returned when a verified account submits a signup code.
	ErrAlreadyVerified = errors.New("already verified")

	// ErrInvalidOTP is returned for a wrong or expired signup code.
	ErrInvalidOTP = errors.New("invalid or expired OTP")

	// ErrInvalidResetToken is returned for an unknown or expired password reset token.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")

	// ErrUnknownRole is returned for a role name that is not seeded.
	ErrUnknownRole = errors.New("unknown role")

	// ErrNoToken is returned when a request carries no auth token.
	ErrNoToken = errors.New("not authenticated")

	// ErrInvalidToken is returned for a token that fails verification.
	ErrInvalidToken = errors.New("invalid token")
)
