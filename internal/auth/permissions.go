package auth

import "github.com/gopalparivar/dhenu-mahima/internal/db/models"

// Permission constants define the available permissions in the system.
// They are granted to roles, the role of the logged in user decides which
// api routes are reachable.
const (
	// PermContentManage allows managing banners, cards and the director message.
	PermContentManage = "content.manage"

	// PermNewsWrite allows creating and editing news.
	PermNewsWrite = "news.write"
	// PermNewsDelete allows deleting news.
	PermNewsDelete = "news.delete"

	// PermEventsWrite allows creating, editing and deleting events.
	PermEventsWrite = "events.write"
	// PermEventsCleanup allows triggering the expired events cleanup.
	PermEventsCleanup = "events.cleanup"

	// PermBooksWrite allows managing the book catalogue.
	PermBooksWrite = "books.write"
	// PermBooksDownload allows downloading book files directly.
	PermBooksDownload = "books.download"

	// PermCouponsWrite allows creating, editing and toggling coupons.
	PermCouponsWrite = "coupons.write"
	// PermCouponsDelete allows deleting coupons.
	PermCouponsDelete = "coupons.delete"

	// PermPaymentsRead allows listing donations and memberships.
	PermPaymentsRead = "payments.read"
	// PermSubscriptionsManage allows notifying and redeeming recurring payments.
	PermSubscriptionsManage = "subscriptions.manage"

	// PermUsersManage allows managing user accounts and roles.
	PermUsersManage = "users.manage"

	// PermBhajansWrite allows managing bhajans.
	PermBhajansWrite = "bhajans.write"
	// PermCategoriesWrite allows creating and renaming bhajan categories.
	PermCategoriesWrite = "categories.write"
	// PermCategoriesDelete allows deleting bhajan categories.
	PermCategoriesDelete = "categories.delete"

	// PermFoundationsWrite allows managing foundations and gopal pariwar members.
	PermFoundationsWrite = "foundations.write"

	// PermGaushalasWrite allows creating and editing gaushalas and sansthans.
	PermGaushalasWrite = "gaushalas.write"
	// PermGaushalasDelete allows deleting gaushalas and sansthans.
	PermGaushalasDelete = "gaushalas.delete"

	// PermLegalWrite allows replacing the privacy policy and terms.
	PermLegalWrite = "legal.write"
)

// staffPermissions are shared by admins and subadmins.
var staffPermissions = []string{ //nolint:gochecknoglobals
	PermNewsWrite,
	PermEventsWrite,
	PermBooksWrite,
	PermCouponsWrite,
	PermCategoriesWrite,
	PermGaushalasWrite,
}

// adminOnlyPermissions are granted to admins only.
var adminOnlyPermissions = []string{ //nolint:gochecknoglobals
	PermContentManage,
	PermNewsDelete,
	PermEventsCleanup,
	PermBooksDownload,
	PermCouponsDelete,
	PermPaymentsRead,
	PermSubscriptionsManage,
	PermUsersManage,
	PermBhajansWrite,
	PermCategoriesDelete,
	PermFoundationsWrite,
	PermGaushalasDelete,
	PermLegalWrite,
}

// RolePermissions returns the permissions granted to a built-in role.
func RolePermissions(role string) []string {
	switch role {
	case models.RoleAdmin:
		out := make([]string, 0, len(staffPermissions)+len(adminOnlyPermissions))
		out = append(out, staffPermissions...)

		return append(out, adminOnlyPermissions...)
	case models.RoleSubAdmin:
		return append([]string(nil), staffPermissions...)
	default:
		return nil
	}
}

// AllPermissions returns every known permission.
func AllPermissions() []string {
	return RolePermissions(models.RoleAdmin)
}
