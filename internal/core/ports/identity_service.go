package ports

import (
	"context"

	"github.com/huygym/membership-system/internal/core/domain"
)

// LoginInput is the DTO passed from the UI layer to IdentityService.
type LoginInput struct {
	Name   string
	Secret string // admin password; ignored for the USER role
	Device string // opaque client descriptor, truncated before recording
}

// SessionSnapshot is a point-in-time view of the identity state machine.
type SessionSnapshot struct {
	State        domain.AuthState
	SelectedRole domain.Role
	Identity     *domain.Identity // nil unless authenticated
}

// Authenticated reports whether the snapshot holds an identity.
func (s SessionSnapshot) Authenticated() bool {
	return s.Identity != nil
}

// IdentityService owns the in-memory identity and drives login/logout.
type IdentityService interface {
	SelectRole(ctx context.Context, role domain.Role) bool
	AttemptLogin(ctx context.Context, in LoginInput) domain.LoginOutcome
	RestoreSession(ctx context.Context) bool
	Logout(ctx context.Context, confirm Confirmer) bool
	Snapshot() SessionSnapshot
}
