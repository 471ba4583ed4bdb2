package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// IsAdmin reports whether the user carries the admin role.
func IsAdmin(user *AppUser) bool {
	if user == nil {
		return false
	}
	return user.Role == "admin"
}

// HasPermission reports whether the user may perform the named graph
// operation. Admins implicitly hold every permission.
func HasPermission(user *AppUser, permission string) bool {
	if user == nil {
		return false
	}
	if IsAdmin(user) {
		return true
	}
	return slices.Contains(user.Permissions, permission)
}

// RequirePermission guards a mutating route behind one graph permission.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user := c.(*AppContext).User
			if user == nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			}

			if !HasPermission(user, permission) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "Forbidden: missing permission " + permission})
			}

			return next(c)
		}
	}
}
