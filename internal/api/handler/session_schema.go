package handler

import (
	"github.com/huygym/membership-system/internal/api/bridge"
	"github.com/huygym/membership-system/internal/core/domain"
	"github.com/huygym/membership-system/internal/core/ports"
)

type selectRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

type loginRequest struct {
	Name     string `json:"name"     validate:"max=100"`
	Password string `json:"password" validate:"max=256"`
}

type logoutRequest struct {
	Confirm bool `json:"confirm"`
}

type sessionResponse struct {
	State        domain.AuthState `json:"state"`
	SelectedRole domain.Role      `json:"selected_role"`
	Identity     *domain.Identity `json:"identity,omitempty"`
	View         bridge.View      `json:"view"`
}

type loginResponse struct {
	Outcome domain.LoginOutcome `json:"outcome"`
	Session sessionResponse     `json:"session"`
}

type logoutResponse struct {
	LoggedOut bool            `json:"logged_out"`
	Prompt    string          `json:"prompt,omitempty"`
	Session   sessionResponse `json:"session"`
}

type notificationsResponse struct {
	Notifications []domain.Notification `json:"notifications"`
}

type activityResponse struct {
	Entries []domain.ActivityEntry `json:"entries"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toSessionResponse(snap ports.SessionSnapshot, view bridge.View) sessionResponse {
	return sessionResponse{
		State:        snap.State,
		SelectedRole: snap.SelectedRole,
		Identity:     snap.Identity,
		View:         view,
	}
}
