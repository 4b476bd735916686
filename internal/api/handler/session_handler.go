package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/huygym/membership-system/internal/api/bridge"
	"github.com/huygym/membership-system/internal/core/domain"
	"github.com/huygym/membership-system/internal/core/ports"
	"github.com/huygym/membership-system/internal/core/service"
)

// SessionUI is the part of the UI bridge the handler drives.
type SessionUI interface {
	SelectRole(ctx context.Context, role domain.Role) bool
	Login(ctx context.Context, in ports.LoginInput) domain.LoginOutcome
	Logout(ctx context.Context, confirm ports.Confirmer) bool
	View() bridge.View
}

// NotificationSource hands out pending notifications.
type NotificationSource interface {
	Drain() []domain.Notification
}

// SessionHandler exposes the login overlay over HTTP.
type SessionHandler struct {
	ui    SessionUI
	state ports.IdentityService
	inbox NotificationSource
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(ui SessionUI, state ports.IdentityService, inbox NotificationSource) *SessionHandler {
	return &SessionHandler{ui: ui, state: state, inbox: inbox}
}

// Get handles GET /session.
//
// @Summary      Current session
// @Tags         session
// @Produce      json
// @Success      200  {object}  sessionResponse
// @Router       /session [get]
func (h *SessionHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, h.current())
}

// SelectRole handles POST /session/role.
//
// @Summary      Select the login role
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      selectRoleRequest  true  "Role to select"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /session/role [post]
func (h *SessionHandler) SelectRole(c echo.Context) error {
	var req selectRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	role, ok := domain.ParseRole(req.Role)
	if !ok || !h.ui.SelectRole(c.Request().Context(), role) {
		return domain.ErrUnknownRole
	}
	return c.JSON(http.StatusOK, h.current())
}

// Login handles POST /session/login. The User-Agent header is recorded as
// the device descriptor.
//
// @Summary      Sign in under the selected role
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Display name and, for ADMIN, the password"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /session/login [post]
func (h *SessionHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	outcome := h.ui.Login(c.Request().Context(), ports.LoginInput{
		Name:   req.Name,
		Secret: req.Password,
		Device: c.Request().UserAgent(),
	})
	if err := outcome.Err(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, loginResponse{Outcome: outcome, Session: h.current()})
}

// Logout handles POST /session/logout. Without confirm=true the session is
// kept and the confirmation prompt is returned.
//
// @Summary      Sign out
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        body  body      logoutRequest  true  "Operator's answer to the confirmation prompt"
// @Success      200   {object}  logoutResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /session/logout [post]
func (h *SessionHandler) Logout(c echo.Context) error {
	if _, err := ctxIdentity(c); err != nil {
		return err
	}

	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if !h.ui.Logout(c.Request().Context(), ports.Confirmed(req.Confirm)) {
		if !h.state.Snapshot().Authenticated() {
			return domain.ErrNotAuthenticated
		}
		return c.JSON(http.StatusOK, logoutResponse{Prompt: service.LogoutPrompt, Session: h.current()})
	}
	return c.JSON(http.StatusOK, logoutResponse{LoggedOut: true, Session: h.current()})
}

// Notifications handles GET /session/notifications and drains the inbox.
//
// @Summary      Pending notifications
// @Tags         session
// @Produce      json
// @Success      200  {object}  notificationsResponse
// @Router       /session/notifications [get]
func (h *SessionHandler) Notifications(c echo.Context) error {
	return c.JSON(http.StatusOK, notificationsResponse{Notifications: h.inbox.Drain()})
}

func (h *SessionHandler) current() sessionResponse {
	return toSessionResponse(h.state.Snapshot(), h.ui.View())
}
