package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/huygym/membership-system/internal/core/domain"
)

// RBAC enforces role-based access control. It must run after CurrentIdentity.
// Rejections are returned as domain errors for the HTTP error handler to map.
func RBAC(allowedRoles ...domain.Role) echo.MiddlewareFunc {
	allowed := make(map[domain.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(KeyRole).(domain.Role)
			if !ok {
				return domain.ErrNotAuthenticated
			}
			if _, ok := allowed[role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
