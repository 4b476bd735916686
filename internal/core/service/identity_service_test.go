package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/huygym/membership-system/internal/core/domain"
	"github.com/huygym/membership-system/internal/core/ports"
)

const adminSecret = "huygym@2024"

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubVerifier struct {
	calls   atomic.Int32
	entered chan struct{} // if set, signalled when Verify starts
	release chan struct{} // if set, Verify blocks until closed
}

func (v *stubVerifier) Verify(_ context.Context, candidate string) bool {
	v.calls.Add(1)
	if v.entered != nil {
		v.entered <- struct{}{}
	}
	if v.release != nil {
		<-v.release
	}
	return candidate == adminSecret
}

type stubActivity struct {
	mu      sync.Mutex
	records []map[string]string
	types   []string
	err     error
}

func (a *stubActivity) Record(_ context.Context, eventType string, metadata map[string]string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.types = append(a.types, eventType)
	a.records = append(a.records, metadata)
	return a.err
}

type eventLog struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (l *eventLog) Observe(_ context.Context, ev domain.SessionEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) kinds() []domain.SessionEventKind {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.SessionEventKind, len(l.events))
	for i, ev := range l.events {
		out[i] = ev.Kind
	}
	return out
}

type confirmSpy struct {
	answer bool
	prompt string
	calls  int
}

func (c *confirmSpy) Confirm(_ context.Context, prompt string) bool {
	c.calls++
	c.prompt = prompt
	return c.answer
}

type fixture struct {
	svc      *IdentityService
	verifier *stubVerifier
	backend  *stubBackend
	store    *SessionStore
	activity *stubActivity
	events   *eventLog
}

var fixedNow = time.Date(2026, 4, 1, 7, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		verifier: &stubVerifier{},
		backend:  newStubBackend(),
		activity: &stubActivity{},
		events:   &eventLog{},
	}
	f.store = newTestStore(f.backend)
	f.svc = f.newService()
	return f
}

func (f *fixture) newService() *IdentityService {
	return NewIdentityService(f.verifier, f.store, f.activity, zerolog.Nop(),
		WithObserver(f.events),
		WithClock(func() time.Time { return fixedNow }),
		WithSessionIDGenerator(func() string { return "sid-test" }),
	)
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestIdentityService_InitialState(t *testing.T) {
	f := newFixture(t)
	snap := f.svc.Snapshot()
	if snap.State != domain.StateLoggedOut || snap.SelectedRole != domain.RoleUser || snap.Authenticated() {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}
}

func TestIdentityService_UserLoginSuccess(t *testing.T) {
	f := newFixture(t)

	got := f.svc.AttemptLogin(context.Background(), ports.LoginInput{Name: "  Lan  ", Device: "Mozilla/5.0"})
	if got != domain.OutcomeSuccess {
		t.Fatalf("expected success, got %s", got)
	}

	snap := f.svc.Snapshot()
	if snap.State != domain.StateAuthenticated || snap.Identity == nil {
		t.Fatalf("expected authenticated snapshot, got %+v", snap)
	}
	want := domain.Identity{
		Name:       "Lan",
		Role:       domain.RoleUser,
		Color:      domain.ColorFor("Lan", domain.DefaultPalette),
		SessionID:  "sid-test",
		LoggedInAt: fixedNow,
	}
	if !sameIdentity(*snap.Identity, want) {
		t.Fatalf("identity mismatch: got %+v, want %+v", *snap.Identity, want)
	}
	if f.verifier.calls.Load() != 0 {
		t.Fatalf("USER login must not consult the verifier")
	}

	stored := f.store.Load(context.Background())
	if stored == nil || !sameIdentity(*stored, want) {
		t.Fatalf("stored identity mismatch: %+v", stored)
	}

	if len(f.activity.records) != 1 || f.activity.types[0] != domain.ActivityLogin {
		t.Fatalf("expected one login activity record, got %v", f.activity.types)
	}
	meta := f.activity.records[0]
	if meta["device"] != "Mozilla/5.0" || meta["user"] != "Lan" || meta["role"] != "USER" || meta["session_id"] != "sid-test" {
		t.Fatalf("unexpected activity metadata: %v", meta)
	}

	kinds := f.events.kinds()
	if len(kinds) != 1 || kinds[0] != domain.EventAuthenticated {
		t.Fatalf("expected one authenticated event, got %v", kinds)
	}
}

func TestIdentityService_AdminBadCredential(t *testing.T) {
	f := newFixture(t)
	f.svc.SelectRole(context.Background(), domain.RoleAdmin)

	got := f.svc.AttemptLogin(context.Background(), ports.LoginInput{Name: "X", Secret: "wrong"})
	if got != domain.OutcomeBadCredential {
		t.Fatalf("expected bad_credential, got %s", got)
	}
	if !errors.Is(got.Err(), domain.ErrBadCredential) {
		t.Fatalf("expected ErrBadCredential from outcome")
	}

	snap := f.svc.Snapshot()
	if snap.Authenticated() || snap.State != domain.StateLoggedOut {
		t.Fatalf("expected logged out, got %+v", snap)
	}
	if snap.SelectedRole != domain.RoleAdmin {
		t.Fatalf("selected role should survive a rejected attempt, got %s", snap.SelectedRole)
	}
	if f.store.Load(context.Background()) != nil {
		t.Fatalf("nothing should be persisted")
	}
	if len(f.activity.records) != 0 {
		t.Fatalf("no activity expected on failure")
	}
}

func TestIdentityService_AdminCorrectSecret(t *testing.T) {
	f := newFixture(t)
	f.svc.SelectRole(context.Background(), domain.RoleAdmin)

	got := f.svc.AttemptLogin(context.Background(), ports.LoginInput{Name: "Anh Huy", Secret: " " + adminSecret + "\n"})
	if got != domain.OutcomeSuccess {
		t.Fatalf("expected success, got %s", got)
	}
	snap := f.svc.Snapshot()
	if snap.Identity == nil || snap.Identity.Role != domain.RoleAdmin {
		t.Fatalf("expected ADMIN identity, got %+v", snap.Identity)
	}
	if f.verifier.calls.Load() != 1 {
		t.Fatalf("expected exactly one verification, got %d", f.verifier.calls.Load())
	}
}

func TestIdentityService_NeedsName(t *testing.T) {
	f := newFixture(t)

	for _, name := range []string{"", "   ", "\t\n"} {
		if got := f.svc.AttemptLogin(context.Background(), ports.LoginInput{Name: name}); got != domain.OutcomeNeedsName {
			t.Fatalf("name %q: expected needs_name, got %s", name, got)
		}
	}
	if f.svc.Snapshot().Authenticated() {
		t.Fatalf("state must not change")
	}
	if f.backend.puts != 0 {
		t.Fatalf("store must not be touched")
	}
}

func TestIdentityService_NeedsNameBeforeVerification(t *testing.T) {
	f := newFixture(t)
	f.svc.SelectRole(context.Background(), domain.RoleAdmin)

	if got := f.svc.AttemptLogin(context.Background(), ports.LoginInput{Name: " ", Secret: adminSecret}); got != domain.OutcomeNeedsName {
		t.Fatalf("expected needs_name, got %s", got)
	}
	if f.verifier.calls.Load() != 0 {
		t.Fatalf("verifier must not run without a name")
	}
}

func TestIdentityService_AlreadyAuthenticated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.AttemptLogin(ctx, ports.LoginInput{Name: "Lan"})

	got := f.svc.AttemptLogin(ctx, ports.LoginInput{Name: "Someone Else"})
	if got != domain.OutcomeAlreadyAuthenticated {
		t.Fatalf("expected already_authenticated, got %s", got)
	}
	if f.svc.Snapshot().Identity.Name != "Lan" {
		t.Fatalf("identity must not be replaced")
	}
	if len(f.activity.records) != 1 {
		t.Fatalf("second attempt must not record activity")
	}
}

func TestIdentityService_LoginPending(t *testing.T) {
	f := newFixture(t)
	f.verifier.entered = make(chan struct{}, 1)
	f.verifier.release = make(chan struct{})
	ctx := context.Background()
	f.svc.SelectRole(ctx, domain.RoleAdmin)

	first := make(chan domain.LoginOutcome, 1)
	go func() {
		first <- f.svc.AttemptLogin(ctx, ports.LoginInput{Name: "Anh Huy", Secret: adminSecret})
	}()
	<-f.verifier.entered

	if got := f.svc.AttemptLogin(ctx, ports.LoginInput{Name: "Lan", Secret: adminSecret}); got != domain.OutcomeLoginPending {
		t.Fatalf("expected login_pending, got %s", got)
	}

	close(f.verifier.release)
	if got := <-first; got != domain.OutcomeSuccess {
		t.Fatalf("expected first login to succeed, got %s", got)
	}
	if f.svc.Snapshot().Identity.Name != "Anh Huy" {
		t.Fatalf("unexpected identity %+v", f.svc.Snapshot().Identity)
	}
	if f.verifier.calls.Load() != 1 {
		t.Fatalf("expected one verification, got %d", f.verifier.calls.Load())
	}
}

func TestIdentityService_DeviceTruncated(t *testing.T) {
	f := newFixture(t)
	device := strings.Repeat("é", 100)

	f.svc.AttemptLogin(context.Background(), ports.LoginInput{Name: "Lan", Device: device})

	got := f.activity.records[0]["device"]
	if got != strings.Repeat("é", deviceMaxLen) {
		t.Fatalf("expected %d runes, got %q", deviceMaxLen, got)
	}
}

func TestIdentityService_SideEffectFailuresSwallowed(t *testing.T) {
	f := newFixture(t)
	f.backend.putErr = errors.New("quota exceeded")
	f.activity.err = errors.New("mongo down")

	if got := f.svc.AttemptLogin(context.Background(), ports.LoginInput{Name: "Lan"}); got != domain.OutcomeSuccess {
		t.Fatalf("expected success despite store failure, got %s", got)
	}
	if !f.svc.Snapshot().Authenticated() {
		t.Fatalf("in-memory identity must be set")
	}
}

// ---------------------------------------------------------------------------
// Role selection
// ---------------------------------------------------------------------------

func TestIdentityService_SelectRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if !f.svc.SelectRole(ctx, domain.RoleAdmin) {
		t.Fatalf("ADMIN should be accepted")
	}
	snap := f.svc.Snapshot()
	if snap.SelectedRole != domain.RoleAdmin || snap.State != domain.StateLoggedOut {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	if f.svc.SelectRole(ctx, domain.Role("OWNER")) {
		t.Fatalf("unknown role should be rejected")
	}
	if f.svc.Snapshot().SelectedRole != domain.RoleAdmin {
		t.Fatalf("unknown role must not change the selection")
	}

	kinds := f.events.kinds()
	if len(kinds) != 1 || kinds[0] != domain.EventRoleSelected {
		t.Fatalf("expected a single role_selected event, got %v", kinds)
	}
}

// ---------------------------------------------------------------------------
// Restore
// ---------------------------------------------------------------------------

func TestIdentityService_RestoreSkipsVerification(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.SelectRole(ctx, domain.RoleAdmin)
	if got := f.svc.AttemptLogin(ctx, ports.LoginInput{Name: "Anh Huy", Secret: adminSecret}); got != domain.OutcomeSuccess {
		t.Fatalf("setup login failed: %s", got)
	}
	before := f.verifier.calls.Load()

	restarted := f.newService()
	if !restarted.RestoreSession(ctx) {
		t.Fatalf("expected restore")
	}

	snap := restarted.Snapshot()
	if snap.Identity == nil || snap.Identity.Name != "Anh Huy" || snap.Identity.Role != domain.RoleAdmin {
		t.Fatalf("unexpected restored identity %+v", snap.Identity)
	}
	if f.verifier.calls.Load() != before {
		t.Fatalf("restore must not call the verifier")
	}

	f.events.mu.Lock()
	last := f.events.events[len(f.events.events)-1]
	f.events.mu.Unlock()
	if last.Kind != domain.EventAuthenticated || !last.Restored {
		t.Fatalf("expected restored authenticated event, got %+v", last)
	}
}

func TestIdentityService_RestoreMalformed(t *testing.T) {
	f := newFixture(t)
	f.backend.set(DefaultSessionKey, `{"foo":1}`)

	if f.svc.RestoreSession(context.Background()) {
		t.Fatalf("expected no restore")
	}
	if f.svc.Snapshot().State != domain.StateLoggedOut {
		t.Fatalf("expected logged out")
	}
}

func TestIdentityService_RestoreAbsentAndIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if f.svc.RestoreSession(ctx) {
		t.Fatalf("nothing stored, expected false")
	}

	f.svc.AttemptLogin(ctx, ports.LoginInput{Name: "Lan"})
	if !f.svc.RestoreSession(ctx) {
		t.Fatalf("already authenticated, expected true")
	}
}

// ---------------------------------------------------------------------------
// Logout
// ---------------------------------------------------------------------------

func TestIdentityService_LogoutDeclined(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.AttemptLogin(ctx, ports.LoginInput{Name: "Lan"})

	spy := &confirmSpy{answer: false}
	if f.svc.Logout(ctx, spy) {
		t.Fatalf("declined logout must return false")
	}
	if spy.calls != 1 || spy.prompt != LogoutPrompt {
		t.Fatalf("expected one prompt %q, got %d %q", LogoutPrompt, spy.calls, spy.prompt)
	}
	if !f.svc.Snapshot().Authenticated() {
		t.Fatalf("identity must be kept")
	}
	if f.store.Load(ctx) == nil {
		t.Fatalf("stored record must be kept")
	}
	if f.svc.Logout(ctx, nil) {
		t.Fatalf("nil confirmer counts as declined")
	}
}

func TestIdentityService_LogoutConfirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.SelectRole(ctx, domain.RoleAdmin)
	f.svc.AttemptLogin(ctx, ports.LoginInput{Name: "Anh Huy", Secret: adminSecret})

	if !f.svc.Logout(ctx, ports.Confirmed(true)) {
		t.Fatalf("confirmed logout must return true")
	}

	snap := f.svc.Snapshot()
	if snap.Authenticated() || snap.State != domain.StateLoggedOut {
		t.Fatalf("expected logged out, got %+v", snap)
	}
	if snap.SelectedRole != domain.RoleUser {
		t.Fatalf("selected role must reset to USER, got %s", snap.SelectedRole)
	}
	if f.store.Load(ctx) != nil {
		t.Fatalf("stored record must be cleared")
	}

	kinds := f.events.kinds()
	if kinds[len(kinds)-1] != domain.EventLoggedOut {
		t.Fatalf("expected logged_out event last, got %v", kinds)
	}

	if got := f.svc.AttemptLogin(ctx, ports.LoginInput{Name: "Lan"}); got != domain.OutcomeSuccess {
		t.Fatalf("login after logout should succeed, got %s", got)
	}
	if f.svc.Snapshot().Identity.Role != domain.RoleUser {
		t.Fatalf("next login should default to USER")
	}
}

func TestIdentityService_LogoutWhenLoggedOut(t *testing.T) {
	f := newFixture(t)
	spy := &confirmSpy{answer: true}

	if f.svc.Logout(context.Background(), spy) {
		t.Fatalf("expected false when nobody is logged in")
	}
	if spy.calls != 0 {
		t.Fatalf("operator should not be prompted")
	}
}
