// Package users provides the admin user management api and the personal data view of an account.
package users

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/gopalparivar/dhenu-mahima/internal/auth"
	"github.com/gopalparivar/dhenu-mahima/internal/db/models"
	"github.com/gopalparivar/dhenu-mahima/internal/web/handler"
)

const (
	// Path is the base path for user management.
	Path = "/admin/users"
	// DataPath is the base path of the personal data view.
	DataPath = "/users"

	// DefaultPageSize for pagination.
	DefaultPageSize = 6
	// DefaultPassword is set on accounts created without a password.
	DefaultPassword = "password123"

	msgInvalidRole = "Invalid role. Must be admin, subadmin, or user"
	msgEmailExists = "Email already exists"
)

// Service provides CRUD operations for users.
type Service struct {
	handler.Service
	db   *gorm.DB
	auth *auth.Service
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(router fiber.Router, deps *handler.Deps) error {
	if router == nil || !deps.Valid() || deps.Auth == nil {
		return errors.New(handler.ErrNilDepsFatalLogMsg)
	}

	s.db = deps.DB
	s.auth = deps.Auth
	guard := deps.Can(auth.PermUsersManage)

	router.Route(Path, func(r fiber.Router) {
		r.Get(handler.RootPath, deps.Authn, guard, s.List)
		r.Post(handler.RootPath, deps.Authn, guard, s.Create)
		r.Get(handler.IDPath, deps.Authn, guard, s.Get)
		r.Put(handler.IDPath, deps.Authn, guard, s.Update)
		r.Delete(handler.IDPath, deps.Authn, guard, s.Delete)
		r.Patch(handler.IDPath+"/role", deps.Authn, guard, s.SetRole)
	})

	router.Get(DataPath+"/:userId/data", deps.Authn, s.Data)

	return nil
}

// view is the public form of an account.
type view struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	Role       string    `json:"role"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toView(u *models.User) view {
	return view{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		Phone:      u.Phone,
		Address:    u.Address,
		Role:       u.RoleName(),
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}

func (s *Service) find(id uint64) (*models.User, error) {
	var u models.User
	if err := s.db.Preload("Role").First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, handler.NotFound("User")
		}

		return nil, err
	}

	return &u, nil
}

func (s *Service) emailTaken(email string, except uint64) (bool, error) {
	var count int64

	err := s.db.Model(&models.User{}).Where("email = ? AND id <> ?", email, except).Count(&count).Error

	return count > 0, err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// List shows users with pagination, search and a role filter.
func (s *Service) List(c fiber.Ctx) error {
	p := handler.Paging(c, DefaultPageSize, 100) //nolint:mnd
	search := strings.TrimSpace(c.Query("search"))
	role := strings.ToLower(strings.TrimSpace(c.Query("role")))

	tx := s.db.Model(&models.User{}).Joins("JOIN roles ON roles.id = users.role_id")

	if search != "" {
		like := "%" + search + "%"
		tx = tx.Where("users.name LIKE ? OR users.email LIKE ? OR users.phone LIKE ?", like, like, like)
	}

	if role != "" {
		tx = tx.Where("roles.name = ?", role)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch users")
	}

	var list []models.User
	if err := tx.Preload("Role").Order("users.created_at DESC, users.id DESC").
		Limit(p.Limit).Offset(p.Offset()).Find(&list).Error; err != nil {
		return handler.Internal(c, err, "Failed to fetch users")
	}

	stats, err := s.roleCounts()
	if err != nil {
		return handler.Internal(c, err, "Failed to fetch users")
	}

	out := make([]view, 0, len(list))
	for i := range list {
		out = append(out, toView(&list[i]))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"users":   out,
		"pagination": fiber.Map{
			"currentPage": p.Page,
			"totalPages":  p.TotalPages(total),
			"totalUsers":  total,
			"perPage":     p.Limit,
			"hasNextPage": int64(p.Offset()+p.Limit) < total,
			"hasPrevPage": p.Page > 1,
		},
		"stats": stats,
	})
}

func (s *Service) roleCounts() (fiber.Map, error) {
	var rows []struct {
		Name  string
		Count int64
	}

	err := s.db.Model(&models.User{}).
		Select("roles.name AS name, COUNT(*) AS count").
		Joins("JOIN roles ON roles.id = users.role_id").
		Group("roles.name").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := fiber.Map{"total": int64(0), "admins": int64(0), "subadmins": int64(0), "users": int64(0)}
	total := int64(0)

	for _, r := range rows {
		total += r.Count

		switch r.Name {
		case models.RoleAdmin:
			stats["admins"] = r.Count
		case models.RoleSubAdmin:
			stats["subadmins"] = r.Count
		case models.RoleUser:
			stats["users"] = r.Count
		}
	}

	stats["total"] = total

	return stats, nil
}

// Get shows one user.
func (s *Service) Get(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	u, err := s.find(id)
	if err != nil {
		return err
	}

	return handler.OK(c, "", toView(u))
}

type createRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Create stores a verified account.
func (s *Service) Create(c fiber.Ctx) error {
	var in createRequest
	if err := c.Bind().WithoutAutoHandling().Body(&in); err != nil {
		return handler.BadRequest("Invalid request body")
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if in.Name == "" || in.Email == "" || in.Phone == "" {
		return handler.BadRequest("Name, email, and phone are required")
	}

	if in.Role == "" {
		in.Role = models.RoleUser
	}

	role, err := s.auth.RoleByName(in.Role)
	if errors.Is(err, auth.ErrUnknownRole) {
		return handler.BadRequest(msgInvalidRole)
	}

	if err != nil {
		return err
	}

	taken, err := s.emailTaken(in.Email, 0)
	if err != nil {
		return err
	}

	if taken {
		return handler.BadRequest(msgEmailExists)
	}

	if in.Password == "" {
		in.Password = DefaultPassword
	}

	u := models.User{
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Password:   models.HashPassword(in.Password),
		RoleID:     role.ID,
		Role:       *role,
		IsVerified: true,
	}

	if err = s.db.Omit("Role").Create(&u).Error; err != nil {
		return err
	}

	return handler.Created(c, "User created successfully", toView(&u))
}

type updateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// Update applies the provided fields to a user.
func (s *Service) Update(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	var in updateRequest
	if err = c.Bind().WithoutAutoHandling().Body(&in); err != nil {
		return handler.BadRequest("Invalid request body")
	}

	if _, err = s.find(id); err != nil {
		return err
	}

	updates := map[string]interface{}{}

	if v := strings.TrimSpace(in.Name); v != "" {
		updates["name"] = v
	}

	if v := strings.TrimSpace(in.Phone); v != "" {
		updates["phone"] = v
	}

	if v := strings.TrimSpace(in.Address); v != "" {
		updates["address"] = v
	}

	if v := normalizeEmail(in.Email); v != "" {
		taken, err := s.emailTaken(v, id)
		if err != nil {
			return err
		}

		if taken {
			return handler.BadRequest(msgEmailExists)
		}

		updates["email"] = v
	}

	if in.Role != "" {
		role, err := s.auth.RoleByName(in.Role)
		if errors.Is(err, auth.ErrUnknownRole) {
			return handler.BadRequest(msgInvalidRole)
		}

		if err != nil {
			return err
		}

		updates["role_id"] = role.ID
	}

	if strings.TrimSpace(in.Password) != "" {
		updates["password"] = models.HashPassword(in.Password)
	}

	if len(updates) == 0 {
		return handler.BadRequest("No fields provided to update")
	}

	if err = s.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return err
	}

	u, err := s.find(id)
	if err != nil {
		return err
	}

	return handler.OK(c, "User updated successfully", toView(u))
}

// Delete removes a user, never the caller.
func (s *Service) Delete(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	if _, err = s.find(id); err != nil {
		return err
	}

	if claims := auth.ClaimsFrom(c); claims != nil && claims.ID == id {
		return handler.BadRequest("Cannot delete your own account")
	}

	if err = s.db.Delete(&models.User{}, id).Error; err != nil {
		return err
	}

	return handler.OK(c, "User deleted successfully", nil)
}

type roleRequest struct {
	Role string `json:"role"`
}

// SetRole changes the role of a user.
func (s *Service) SetRole(c fiber.Ctx) error {
	id, err := handler.ID(c, "id")
	if err != nil {
		return err
	}

	var in roleRequest
	if err = c.Bind().WithoutAutoHandling().Body(&in); err != nil || strings.TrimSpace(in.Role) == "" {
		return handler.BadRequest("Role is required")
	}

	if !models.IsValidRole(strings.ToLower(strings.TrimSpace(in.Role))) {
		return handler.BadRequest(msgInvalidRole)
	}

	switch err = s.auth.AssignRole(id, in.Role); {
	case errors.Is(err, auth.ErrUserNotFound):
		return handler.NotFound("User")
	case err != nil:
		return err
	}

	u, err := s.find(id)
	if err != nil {
		return err
	}

	return handler.OK(c, "User role updated successfully", toView(u))
}

// Data shows an account with its donations, book purchases and memberships.
func (s *Service) Data(c fiber.Ctx) error {
	id, err := handler.ID(c, "userId")
	if err != nil {
		return err
	}

	if !auth.SelfOrAdmin(c, id) {
		return handler.Fail(c, fiber.StatusForbidden, "Access denied")
	}

	u, err := s.find(id)
	if err != nil {
		return err
	}

	donations := []models.Donation{}
	if err = s.db.Where("user_id = ?", id).Order("created_at DESC").Find(&donations).Error; err != nil {
		return err
	}

	purchases := []models.BookPurchase{}
	if err = s.db.Preload("Book").Where("user_id = ?", id).Order("created_at DESC").Find(&purchases).Error; err != nil {
		return err
	}

	memberships := []models.MembershipPayment{}
	if err = s.db.Preload("RecurringPayments").Where("user_id = ?", id).
		Order("created_at DESC").Find(&memberships).Error; err != nil {
		return err
	}

	return handler.OK(c, "", fiber.Map{
		"user":          toView(u),
		"donations":     donations,
		"bookPurchases": purchases,
		"memberships":   memberships,
	})
}
