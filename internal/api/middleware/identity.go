package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/huygym/membership-system/internal/core/domain"
	"github.com/huygym/membership-system/internal/core/ports"
)

// Context keys set by CurrentIdentity.
const (
	KeyIdentity = "identity"
	KeyUser     = "user"
	KeyRole     = "role"
)

// Snapshotter exposes the identity state machine's observable state.
type Snapshotter interface {
	Snapshot() ports.SessionSnapshot
}

// CurrentIdentity injects the signed-in identity into the context. Requests
// pass through untouched when nobody is signed in.
func CurrentIdentity(src Snapshotter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := src.Snapshot().Identity; id != nil {
				c.Set(KeyIdentity, id)
				c.Set(KeyUser, id.Name)
				c.Set(KeyRole, id.Role)
			}
			return next(c)
		}
	}
}

// IdentityFrom returns the identity injected by CurrentIdentity, or nil.
func IdentityFrom(c echo.Context) *domain.Identity {
	id, _ := c.Get(KeyIdentity).(*domain.Identity)
	return id
}
