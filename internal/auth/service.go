package auth

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
)

// Service answers permission questions from the role tables.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// HasPermission checks if the role of a user grants a specific permission.
func (s *Service) HasPermission(userID uint64, permission string) (bool, error) {
	var count int64

	err := s.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN users ON users.role_id = role_permissions.role_id").
		Where("users.id = ? AND permissions.name = ?", userID, permission).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role permission: %w", err)
	}

	return count > 0, nil
}

// HasAnyPermission checks if a user has at least one of the given permissions.
func (s *Service) HasAnyPermission(userID uint64, permissions []string) (bool, error) {
	if len(permissions) == 0 {
		return false, nil
	}

	var count int64

	err := s.db.Table("permissions").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN users ON users.role_id = role_permissions.role_id").
		Where("users.id = ? AND permissions.name IN ?", userID, permissions).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role permissions: %w", err)
	}

	return count > 0, nil
}

// GetUserPermissions retrieves the permission names granted by the role of a user.
func (s *Service) GetUserPermissions(userID uint64) ([]string, error) {
	var permissions []string

	err := s.db.Table("permissions").
		Select("DISTINCT permissions.name").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN users ON users.role_id = role_permissions.role_id").
		Where("users.id = ?", userID).
		Order("permissions.name").
		Pluck("permissions.name", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	return permissions, nil
}

// RoleByName loads a role, the name is matched case-insensitively.
func (s *Service) RoleByName(name string) (*models.Role, error) {
	var role models.Role

	err := s.db.Where("name = ?", strings.ToLower(strings.TrimSpace(name))).First(&role).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnknownRole
	}

	if err != nil {
		return nil, err
	}

	return &role, nil
}

// AssignRole assigns a role to a user by role name.
func (s *Service) AssignRole(userID uint64, roleName string) error {
	role, err := s.RoleByName(roleName)
	if err != nil {
		return err
	}

	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update("role_id", role.ID)
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}
