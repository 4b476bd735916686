package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/huygym/membership-system/internal/api/middleware"
	"github.com/huygym/membership-system/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the CurrentIdentity
// middleware and fails fast with 401 when nobody is signed in.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	id := middleware.IdentityFrom(c)
	if id == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, domain.ErrNotAuthenticated.Error())
	}
	return id, nil
}
