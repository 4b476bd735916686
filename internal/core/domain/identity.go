package domain

import (
	"strings"
	"time"
)

// Role is one of the two fixed staff roles.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// ParseRole maps a raw role string onto the closed role set. Matching is
// case-insensitive and ignores surrounding whitespace.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleUser:
		return RoleUser, true
	}
	return "", false
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Label is the badge text shown next to the display name.
func (r Role) Label() string {
	if r == RoleAdmin {
		return "👑 Admin"
	}
	return "👤 Staff"
}

// Identity is the authenticated staff member. It is replaced as a whole on
// every login and never mutated in place.
type Identity struct {
	Name       string    `json:"name"`
	Role       Role      `json:"role"`
	Color      string    `json:"color"`
	SessionID  string    `json:"session_id,omitempty"`
	LoggedInAt time.Time `json:"logged_in_at"`
}

// Initials returns the avatar text for the identity.
func (i Identity) Initials() string {
	return InitialsFor(i.Name)
}

// IsAdmin reports whether the identity holds the ADMIN role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}
