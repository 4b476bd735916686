package service

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/huygym/membership-system/internal/core/domain"
	"github.com/huygym/membership-system/internal/core/ports"
	"github.com/huygym/membership-system/internal/pkg/metrics"
	"github.com/huygym/membership-system/pkg/logger"
)

// LogoutPrompt is the question put to the operator before a logout.
const LogoutPrompt = "Switch user?\n(member data is not affected)"

const deviceMaxLen = 60

// SessionPersistence abstracts the Session Store.
type SessionPersistence interface {
	Save(ctx context.Context, id domain.Identity) error
	Load(ctx context.Context) *domain.Identity
	Clear(ctx context.Context)
}

// IdentityOption customizes IdentityService construction.
type IdentityOption func(*IdentityService)

// WithObserver registers an observer for state machine transitions.
func WithObserver(o ports.SessionObserver) IdentityOption {
	return func(s *IdentityService) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithPalette overrides the avatar palette.
func WithPalette(palette []string) IdentityOption {
	return func(s *IdentityService) {
		if len(palette) > 0 {
			s.palette = palette
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(now func() time.Time) IdentityOption {
	return func(s *IdentityService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSessionIDGenerator overrides how per-login session ids are minted.
func WithSessionIDGenerator(gen func() string) IdentityOption {
	return func(s *IdentityService) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// IdentityService is the identity state machine. It owns the single identity
// slot and the role selected on the login form.
//
// All state lives behind mu. The admin digest is computed outside the lock;
// loginPending keeps a second login from starting meanwhile. Observers are
// called after the lock is released.
type IdentityService struct {
	verifier ports.CredentialVerifier
	store    SessionPersistence
	activity ports.ActivityRecorder
	log      zerolog.Logger

	palette   []string
	now       func() time.Time
	newID     func() string
	observers []ports.SessionObserver

	mu           sync.Mutex
	state        domain.AuthState
	selectedRole domain.Role
	current      *domain.Identity
	loginPending bool
}

var _ ports.IdentityService = (*IdentityService)(nil)

// NewIdentityService returns an IdentityService in the LoggedOut state with
// USER selected.
func NewIdentityService(
	verifier ports.CredentialVerifier,
	store SessionPersistence,
	activity ports.ActivityRecorder,
	log zerolog.Logger,
	opts ...IdentityOption,
) *IdentityService {
	if activity == nil {
		activity = ports.ActivityRecorderFunc(nil)
	}
	s := &IdentityService{
		verifier:     verifier,
		store:        store,
		activity:     activity,
		log:          logger.Component(log, "identity"),
		palette:      domain.DefaultPalette,
		now:          time.Now,
		newID:        uuid.NewString,
		state:        domain.StateLoggedOut,
		selectedRole: domain.RoleUser,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SelectRole sets the role highlighted on the login form. Unknown roles are
// ignored and reported with false.
func (s *IdentityService) SelectRole(ctx context.Context, role domain.Role) bool {
	if !role.Valid() {
		s.log.Debug().Str("role", string(role)).Msg("ignoring unknown role")
		return false
	}

	s.mu.Lock()
	s.selectedRole = role
	if s.state != domain.StateAuthenticated {
		s.transitionLocked(domain.StateRoleSelecting)
	}
	s.mu.Unlock()

	s.publish(ctx, domain.SessionEvent{Kind: domain.EventRoleSelected, Role: role, At: s.now()})
	return true
}

// AttemptLogin authenticates the operator under the selected role.
func (s *IdentityService) AttemptLogin(ctx context.Context, in ports.LoginInput) domain.LoginOutcome {
	s.mu.Lock()
	role := s.selectedRole
	if s.state == domain.StateAuthenticated {
		s.mu.Unlock()
		return s.finish(role, domain.OutcomeAlreadyAuthenticated)
	}
	if s.loginPending {
		s.mu.Unlock()
		return s.finish(role, domain.OutcomeLoginPending)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		s.mu.Unlock()
		return s.finish(role, domain.OutcomeNeedsName)
	}
	s.loginPending = true
	s.mu.Unlock()

	if role == domain.RoleAdmin && !s.verify(ctx, strings.TrimSpace(in.Secret)) {
		s.mu.Lock()
		s.loginPending = false
		s.mu.Unlock()
		s.log.Info().Str("user", name).Msg("admin login rejected")
		return s.finish(role, domain.OutcomeBadCredential)
	}

	id := domain.Identity{
		Name:       name,
		Role:       role,
		Color:      domain.ColorFor(name, s.palette),
		SessionID:  s.newID(),
		LoggedInAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.loginPending = false
	if !s.transitionLocked(domain.StateAuthenticated) {
		// A concurrent restore got there first.
		s.mu.Unlock()
		return s.finish(role, domain.OutcomeAlreadyAuthenticated)
	}
	s.current = &id
	_ = s.store.Save(ctx, id)
	s.mu.Unlock()

	published := id
	s.publish(ctx, domain.SessionEvent{Kind: domain.EventAuthenticated, Identity: &published, At: s.now()})
	s.recordLogin(ctx, id, in.Device)

	s.log.Info().Str("user", name).Str("role", string(role)).Str("session_id", id.SessionID).Msg("login succeeded")
	return s.finish(role, domain.OutcomeSuccess)
}

// RestoreSession adopts a previously stored identity without verifying any
// credential. The stored record is trusted as proof of the verification done
// when it was written, and it never expires.
func (s *IdentityService) RestoreSession(ctx context.Context) bool {
	s.mu.Lock()
	if s.state == domain.StateAuthenticated {
		s.mu.Unlock()
		return true
	}

	id := s.store.Load(ctx)
	if id == nil {
		s.mu.Unlock()
		metrics.SessionRestoresTotal.WithLabelValues("absent").Inc()
		return false
	}
	s.transitionLocked(domain.StateAuthenticated)
	s.current = id
	s.mu.Unlock()

	published := *id
	s.publish(ctx, domain.SessionEvent{Kind: domain.EventAuthenticated, Identity: &published, Restored: true, At: s.now()})
	metrics.SessionRestoresTotal.WithLabelValues("restored").Inc()

	s.log.Info().Str("user", id.Name).Str("role", string(id.Role)).Msg("session restored")
	return true
}

// Logout drops the identity once confirm agrees. It returns false when nobody
// is logged in or the operator declines.
func (s *IdentityService) Logout(ctx context.Context, confirm ports.Confirmer) bool {
	s.mu.Lock()
	authenticated := s.state == domain.StateAuthenticated
	s.mu.Unlock()
	if !authenticated {
		metrics.LogoutsTotal.WithLabelValues("ignored").Inc()
		return false
	}

	if confirm == nil || !confirm.Confirm(ctx, LogoutPrompt) {
		metrics.LogoutsTotal.WithLabelValues("declined").Inc()
		return false
	}

	s.mu.Lock()
	if s.state != domain.StateAuthenticated {
		s.mu.Unlock()
		metrics.LogoutsTotal.WithLabelValues("ignored").Inc()
		return false
	}
	prev := s.current
	s.current = nil
	s.store.Clear(ctx)
	s.selectedRole = domain.RoleUser
	s.transitionLocked(domain.StateLoggedOut)
	s.mu.Unlock()

	s.publish(ctx, domain.SessionEvent{Kind: domain.EventLoggedOut, Role: domain.RoleUser, At: s.now()})
	metrics.LogoutsTotal.WithLabelValues("confirmed").Inc()

	s.log.Info().Str("user", prev.Name).Msg("logged out")
	return true
}

// Snapshot returns the observable state.
func (s *IdentityService) Snapshot() ports.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := ports.SessionSnapshot{
		State:        s.state.Observable(),
		SelectedRole: s.selectedRole,
	}
	if s.current != nil {
		id := *s.current
		snap.Identity = &id
	}
	return snap
}

// transitionLocked moves the state machine to next. Caller must hold mu.
func (s *IdentityService) transitionLocked(next domain.AuthState) bool {
	if !s.state.CanTransitionTo(next) {
		s.log.Warn().Str("from", string(s.state)).Str("to", string(next)).Msg("rejected state transition")
		return false
	}
	s.state = next
	return true
}

func (s *IdentityService) verify(ctx context.Context, secret string) bool {
	start := time.Now()
	ok := s.verifier.Verify(ctx, secret)
	metrics.CredentialVerifyDuration.Observe(time.Since(start).Seconds())
	return ok
}

func (s *IdentityService) recordLogin(ctx context.Context, id domain.Identity, device string) {
	meta := map[string]string{
		"device":     truncate(device, deviceMaxLen),
		"user":       id.Name,
		"role":       string(id.Role),
		"session_id": id.SessionID,
	}
	if err := s.activity.Record(ctx, domain.ActivityLogin, meta); err != nil {
		s.log.Warn().Err(err).Str("user", id.Name).Msg("failed to record login activity")
	}
}

func (s *IdentityService) publish(ctx context.Context, ev domain.SessionEvent) {
	for _, o := range s.observers {
		o.Observe(ctx, ev)
	}
}

func (s *IdentityService) finish(role domain.Role, outcome domain.LoginOutcome) domain.LoginOutcome {
	metrics.LoginAttemptsTotal.WithLabelValues(string(role), string(outcome)).Inc()
	return outcome
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
