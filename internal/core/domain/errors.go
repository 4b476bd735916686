package domain

import "errors"

var (
	ErrNeedsName            = errors.New("display name is required")
	ErrBadCredential        = errors.New("admin password is incorrect")
	ErrAlreadyAuthenticated = errors.New("already authenticated")
	ErrLoginPending         = errors.New("a login is already in progress")
	ErrUnknownRole          = errors.New("unknown role")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrForbidden            = errors.New("access forbidden")
	ErrStore                = errors.New("session store unavailable")
	ErrMalformedSession     = errors.New("malformed session record")
)
