package domain

import "time"

// AuthState is the lifecycle state of the identity slot.
type AuthState string

const (
	StateLoggedOut     AuthState = "logged_out"
	StateRoleSelecting AuthState = "role_selecting"
	StateAuthenticated AuthState = "authenticated"
)

// authTransitions defines the allowed state machine transitions.
var authTransitions = map[AuthState][]AuthState{
	StateLoggedOut:     {StateRoleSelecting, StateAuthenticated},
	StateRoleSelecting: {StateRoleSelecting, StateAuthenticated},
	StateAuthenticated: {StateLoggedOut},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s AuthState) CanTransitionTo(next AuthState) bool {
	for _, allowed := range authTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Observable collapses RoleSelecting into LoggedOut; role selection is only
// visible to callers through the selected role.
func (s AuthState) Observable() AuthState {
	if s == StateRoleSelecting {
		return StateLoggedOut
	}
	return s
}

// LoginOutcome is the result of a single login attempt.
type LoginOutcome string

const (
	OutcomeSuccess              LoginOutcome = "success"
	OutcomeNeedsName            LoginOutcome = "needs_name"
	OutcomeBadCredential        LoginOutcome = "bad_credential"
	OutcomeAlreadyAuthenticated LoginOutcome = "already_authenticated"
	OutcomeLoginPending         LoginOutcome = "login_pending"
)

// Err returns the sentinel error for a failed outcome, nil on success.
func (o LoginOutcome) Err() error {
	switch o {
	case OutcomeSuccess:
		return nil
	case OutcomeNeedsName:
		return ErrNeedsName
	case OutcomeBadCredential:
		return ErrBadCredential
	case OutcomeAlreadyAuthenticated:
		return ErrAlreadyAuthenticated
	case OutcomeLoginPending:
		return ErrLoginPending
	}
	return nil
}

// SessionEventKind identifies a state machine transition delivered to observers.
type SessionEventKind string

const (
	EventRoleSelected  SessionEventKind = "role_selected"
	EventAuthenticated SessionEventKind = "authenticated"
	EventLoggedOut     SessionEventKind = "logged_out"
)

// SessionEvent is published after every transition of the identity state machine.
type SessionEvent struct {
	Kind     SessionEventKind
	Role     Role      // selected role (EventRoleSelected, EventLoggedOut)
	Identity *Identity // set for EventAuthenticated
	Restored bool      // EventAuthenticated reached through session restore
	At       time.Time
}

// NotifyLevel is the severity of a user-facing notification.
type NotifyLevel string

const (
	LevelOK   NotifyLevel = "ok"
	LevelWarn NotifyLevel = "warn"
	LevelErr  NotifyLevel = "err"
)

// Notification is a transient message shown to the operator.
type Notification struct {
	Message string      `json:"message"`
	Level   NotifyLevel `json:"level"`
	At      time.Time   `json:"at"`
}

// Activity event types recorded by the identity subsystem.
const (
	ActivityLogin = "login"
)

// ActivityEntry is a stored activity log record.
type ActivityEntry struct {
	EventType  string            `json:"event_type"`
	Metadata   map[string]string `json:"metadata"`
	OccurredAt time.Time         `json:"occurred_at"`
}
