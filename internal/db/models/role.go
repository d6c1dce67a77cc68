package models

import "time"

// Built-in role names.
const (
	RoleAdmin    = "admin"
	RoleSubAdmin = "subadmin"
	RoleUser     = "user"
)

// Roles lists every built-in role, most privileged first.
var Roles = []string{RoleAdmin, RoleSubAdmin, RoleUser} //nolint:gochecknoglobals

// IsValidRole reports whether name is one of the built-in roles.
func IsValidRole(name string) bool {
	for _, r := range Roles {
		if r == name {
			return true
		}
	}

	return false
}

// Role represents a role in the role-based access control (RBAC) system.
// Roles are collections of permissions that are assigned to users.
type Role struct {
	// ID is the unique identifier for the role.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the unique name of the role (admin, subadmin, user).
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// Description provides a human-readable description of the role's purpose.
	Description string `gorm:"size:255" json:"description"`
	// IsSystem indicates if this is a system role that cannot be deleted.
	IsSystem bool `gorm:"default:false" json:"isSystem"`
	// CreatedAt is the timestamp when the role was created (managed by GORM).
	CreatedAt time.Time `json:"createdAt"`
	// UpdatedAt is the timestamp when the role was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName specifies the database table name for the Role model.
func (Role) TableName() string {
	return "roles"
}
