package ports

import (
	"context"

	"github.com/huygym/membership-system/internal/core/domain"
)

// CredentialVerifier checks a candidate admin secret against a reference digest.
type CredentialVerifier interface {
	Verify(ctx context.Context, candidate string) bool
}

// Notifier surfaces transient messages to the operator.
type Notifier interface {
	Notify(ctx context.Context, message string, level domain.NotifyLevel)
}

// ActivityRecorder consumes activity log events.
type ActivityRecorder interface {
	Record(ctx context.Context, eventType string, metadata map[string]string) error
}

// ActivityRecorderFunc adapts a function to the ActivityRecorder interface.
type ActivityRecorderFunc func(ctx context.Context, eventType string, metadata map[string]string) error

// Record implements ActivityRecorder.
func (f ActivityRecorderFunc) Record(ctx context.Context, eventType string, metadata map[string]string) error {
	if f == nil {
		return nil
	}
	return f(ctx, eventType, metadata)
}

// ActivityReader lists previously recorded activity, newest first.
type ActivityReader interface {
	Recent(ctx context.Context, eventType string, limit int) ([]domain.ActivityEntry, error)
}

// Confirmer obtains an explicit yes/no from the operator.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	if f == nil {
		return false
	}
	return f(ctx, prompt)
}

// Confirmed returns a Confirmer with a fixed answer, for callers that already
// collected the operator's decision.
func Confirmed(answer bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) bool { return answer })
}

// SessionObserver receives identity state machine transitions.
type SessionObserver interface {
	Observe(ctx context.Context, ev domain.SessionEvent)
}

// SessionObserverFunc adapts a function to the SessionObserver interface.
type SessionObserverFunc func(ctx context.Context, ev domain.SessionEvent)

// Observe implements SessionObserver.
func (f SessionObserverFunc) Observe(ctx context.Context, ev domain.SessionEvent) {
	if f != nil {
		f(ctx, ev)
	}
}
