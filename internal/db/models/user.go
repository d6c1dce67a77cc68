package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// User represents an account of a visitor, donor, member or staff person.
// New accounts sign up with email and password and must verify a one time code
// before they can log in. Staff accounts carry the admin or subadmin role.
type User struct {
	// ID is the unique identifier for the user.
	ID uint64 `gorm:"primaryKey" json:"id"`
	// Name is the display name.
	Name string `gorm:"size:100;not null" json:"name"`
	// Email is the unique login identifier.
	Email string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	// Phone is the contact number.
	Phone string `gorm:"size:20" json:"phone"`
	// Address is the postal address.
	Address string `gorm:"size:500" json:"address"`
	// Password is the Argon2id hashed password.
	Password string `gorm:"size:255" json:"-"`
	// RoleID is the ID of the role assigned to this user.
	RoleID uint `gorm:"column:role_id;not null" json:"-"`
	// Role is the associated role (enforced with a foreign key constraint).
	Role Role `gorm:"foreignKey:RoleID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE" json:"-"`
	// IsVerified is set once the signup code was confirmed.
	IsVerified bool `gorm:"not null;default:false" json:"isVerified"`
	// OTPSecret is the per user TOTP secret used for signup codes.
	OTPSecret string `gorm:"size:64" json:"-"`
	// OTPExpires is the deadline of the last issued signup code.
	OTPExpires *time.Time `json:"-"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// RoleName returns the loaded role name, empty if the role was not preloaded.
func (u *User) RoleName() string {
	return u.Role.Name
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored hashed password.
// Returns true if the password matches, false otherwise.
func (u *User) VerifyPassword(password string) bool {
	if u.Password == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
