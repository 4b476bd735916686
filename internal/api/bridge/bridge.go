// Package bridge translates identity state machine events into the state of
// the login overlay and user badge, and login outcomes into notifications.
// It holds no identity state of its own.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/huygym/membership-system/internal/core/domain"
	"github.com/huygym/membership-system/internal/core/ports"
	"github.com/huygym/membership-system/pkg/logger"
)

const (
	// FocusDelay is applied before moving focus after a role change or logout.
	FocusDelay = 50 * time.Millisecond
	// StartupFocusDelay is applied to the first focus when no session was restored.
	StartupFocusDelay = 80 * time.Millisecond
	// PasswordErrorFor is how long the password field stays flagged after a rejected password.
	PasswordErrorFor = 1500 * time.Millisecond
)

// Field names a login form input.
type Field string

const (
	FieldNone     Field = ""
	FieldName     Field = "name"
	FieldPassword Field = "password"
)

// Notification texts. Each login outcome has its own message.
const (
	MsgNeedsName            = "Please enter your name"
	MsgBadCredential        = "Incorrect admin password"
	MsgAlreadyAuthenticated = "Already signed in as %s"
	MsgLoginPending         = "Signing in, please wait"
	MsgGreeting             = "Hello, %s %s"
)

// Badge is the signed-in user chip.
type Badge struct {
	Initials  string `json:"initials"`
	Color     string `json:"color"`
	Name      string `json:"name"`
	RoleLabel string `json:"role_label"`
}

// View is the rendered state of the session UI.
type View struct {
	OverlayVisible     bool        `json:"overlay_visible"`
	SelectedRole       domain.Role `json:"selected_role"`
	PasswordVisible    bool        `json:"password_visible"`
	Focus              Field       `json:"focus,omitempty"`
	FocusDelayMS       int64       `json:"focus_delay_ms"`
	ClearName          bool        `json:"clear_name"`
	ClearPassword      bool        `json:"clear_password"`
	PasswordError      bool        `json:"password_error"`
	PasswordErrorUntil *time.Time  `json:"password_error_until,omitempty"`
	Badge              *Badge      `json:"badge,omitempty"`
}

// Option customizes a Bridge.
type Option func(*Bridge)

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(b *Bridge) {
		if now != nil {
			b.now = now
		}
	}
}

// Bridge implements ports.SessionObserver. Bind must be called before the
// action methods are used.
type Bridge struct {
	notifier ports.Notifier
	log      zerolog.Logger
	now      func() time.Time

	svc ports.IdentityService

	mu         sync.Mutex
	view       View
	errorUntil time.Time
}

var _ ports.SessionObserver = (*Bridge)(nil)

// New returns a Bridge rendering the logged-out form with USER selected.
func New(notifier ports.Notifier, log zerolog.Logger, opts ...Option) *Bridge {
	b := &Bridge{
		notifier: notifier,
		log:      logger.Component(log, "bridge"),
		now:      time.Now,
		view: View{
			OverlayVisible: true,
			SelectedRole:   domain.RoleUser,
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bind attaches the state machine the action methods drive.
func (b *Bridge) Bind(svc ports.IdentityService) {
	b.svc = svc
}

// Start renders the initial view. Without a restored session the overlay is
// shown and focus goes to the name field after StartupFocusDelay.
func (b *Bridge) Start() {
	snap := b.svc.Snapshot()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.view.SelectedRole = snap.SelectedRole
	if snap.Identity != nil {
		b.renderAuthenticatedLocked(*snap.Identity)
		return
	}
	b.view.OverlayVisible = true
	b.view.Badge = nil
	b.view.PasswordVisible = snap.SelectedRole == domain.RoleAdmin
	b.setFocusLocked(FieldName, StartupFocusDelay)
}

// Observe implements ports.SessionObserver.
func (b *Bridge) Observe(_ context.Context, ev domain.SessionEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch ev.Kind {
	case domain.EventRoleSelected:
		b.view.SelectedRole = ev.Role
		b.view.ClearName = false
		b.view.ClearPassword = false
		b.view.PasswordVisible = ev.Role == domain.RoleAdmin
		if b.view.PasswordVisible {
			b.setFocusLocked(FieldPassword, FocusDelay)
		} else {
			b.setFocusLocked(FieldName, 0)
		}
	case domain.EventAuthenticated:
		if ev.Identity != nil {
			b.renderAuthenticatedLocked(*ev.Identity)
		}
	case domain.EventLoggedOut:
		b.view = View{
			OverlayVisible: true,
			SelectedRole:   ev.Role,
			ClearName:      true,
			ClearPassword:  true,
		}
		b.errorUntil = time.Time{}
		b.setFocusLocked(FieldName, FocusDelay)
	default:
		b.log.Debug().Str("kind", string(ev.Kind)).Msg("ignoring session event")
	}
}

// SelectRole forwards a role button press to the state machine.
func (b *Bridge) SelectRole(ctx context.Context, role domain.Role) bool {
	return b.svc.SelectRole(ctx, role)
}

// Login submits the login form and surfaces the outcome as a notification.
func (b *Bridge) Login(ctx context.Context, in ports.LoginInput) domain.LoginOutcome {
	outcome := b.svc.AttemptLogin(ctx, in)

	switch outcome {
	case domain.OutcomeSuccess:
		name, marker := in.Name, "👋"
		if id := b.svc.Snapshot().Identity; id != nil {
			name = id.Name
			if id.IsAdmin() {
				marker = "👑"
			}
		}
		b.notify(ctx, fmt.Sprintf(MsgGreeting, name, marker), domain.LevelOK)
	case domain.OutcomeNeedsName:
		b.mu.Lock()
		b.view.ClearName = false
		b.view.ClearPassword = false
		b.setFocusLocked(FieldName, 0)
		b.mu.Unlock()
		b.notify(ctx, MsgNeedsName, domain.LevelWarn)
	case domain.OutcomeBadCredential:
		b.mu.Lock()
		b.errorUntil = b.now().Add(PasswordErrorFor)
		b.view.ClearPassword = true
		b.setFocusLocked(FieldPassword, 0)
		b.mu.Unlock()
		b.notify(ctx, MsgBadCredential, domain.LevelErr)
	case domain.OutcomeAlreadyAuthenticated:
		name := ""
		if id := b.svc.Snapshot().Identity; id != nil {
			name = id.Name
		}
		b.notify(ctx, fmt.Sprintf(MsgAlreadyAuthenticated, name), domain.LevelWarn)
	case domain.OutcomeLoginPending:
		b.notify(ctx, MsgLoginPending, domain.LevelWarn)
	}
	return outcome
}

// Logout forwards a logout request together with the operator's answer to
// the confirmation prompt.
func (b *Bridge) Logout(ctx context.Context, confirm ports.Confirmer) bool {
	return b.svc.Logout(ctx, confirm)
}

// View returns the current rendering. The password error flag is evaluated
// against the clock at call time. ClearName and ClearPassword are delivered
// once and reset by the call that returns them.
func (b *Bridge) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := b.view
	b.view.ClearName = false
	b.view.ClearPassword = false
	if v.Badge != nil {
		badge := *v.Badge
		v.Badge = &badge
	}
	if !b.errorUntil.IsZero() && b.now().Before(b.errorUntil) {
		until := b.errorUntil
		v.PasswordError = true
		v.PasswordErrorUntil = &until
	}
	return v
}

func (b *Bridge) renderAuthenticatedLocked(id domain.Identity) {
	b.view = View{
		OverlayVisible: false,
		SelectedRole:   b.view.SelectedRole,
		ClearName:      true,
		ClearPassword:  true,
		Badge: &Badge{
			Initials:  id.Initials(),
			Color:     id.Color,
			Name:      id.Name,
			RoleLabel: id.Role.Label(),
		},
	}
	b.errorUntil = time.Time{}
}

func (b *Bridge) setFocusLocked(f Field, delay time.Duration) {
	b.view.Focus = f
	b.view.FocusDelayMS = delay.Milliseconds()
}

func (b *Bridge) notify(ctx context.Context, msg string, level domain.NotifyLevel) {
	if b.notifier == nil {
		return
	}
	b.notifier.Notify(ctx, msg, level)
}
