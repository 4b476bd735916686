package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/huygym/membership-system/internal/core/domain"
	"github.com/huygym/membership-system/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stub backend
// ---------------------------------------------------------------------------

type stubBackend struct {
	mu        sync.Mutex
	items     map[string][]byte
	getErr    error // if set, Get returns this error
	putErr    error // if set, Put returns this error
	deleteErr error // if set, Delete returns this error
	puts      int
}

func newStubBackend() *stubBackend {
	return &stubBackend{items: make(map[string][]byte)}
}

func (b *stubBackend) Get(_ context.Context, key string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.getErr != nil {
		return nil, b.getErr
	}
	v, ok := b.items[key]
	if !ok {
		return nil, ports.ErrKeyNotFound
	}
	return v, nil
}

func (b *stubBackend) Put(_ context.Context, key string, value []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.puts++
	if b.putErr != nil {
		return b.putErr
	}
	b.items[key] = append([]byte(nil), value...)
	return nil
}

func (b *stubBackend) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.deleteErr != nil {
		return b.deleteErr
	}
	delete(b.items, key)
	return nil
}

func (b *stubBackend) raw(key string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.items[key]
	return string(v), ok
}

func (b *stubBackend) set(key, value string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items[key] = []byte(value)
}

func sameIdentity(a, b domain.Identity) bool {
	return a.Name == b.Name && a.Role == b.Role && a.Color == b.Color &&
		a.SessionID == b.SessionID && a.LoggedInAt.Equal(b.LoggedInAt)
}

func newTestStore(b ports.SessionBackend) *SessionStore {
	return NewSessionStore(b, "", nil, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestSessionStore_DefaultKey(t *testing.T) {
	s := newTestStore(newStubBackend())
	if s.Key() != DefaultSessionKey {
		t.Fatalf("expected key %q, got %q", DefaultSessionKey, s.Key())
	}
	if NewSessionStore(newStubBackend(), "custom", nil, zerolog.Nop()).Key() != "custom" {
		t.Fatalf("custom key not honoured")
	}
}

func TestSessionStore_SaveLoadRoundTrip(t *testing.T) {
	b := newStubBackend()
	s := newTestStore(b)
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)

	id := domain.Identity{Name: "Anh Huy", Role: domain.RoleAdmin, Color: "#34495e", SessionID: "sid-1", LoggedInAt: at}
	if err := s.Save(context.Background(), id); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	raw, ok := b.raw(DefaultSessionKey)
	if !ok {
		t.Fatalf("nothing written under %q", DefaultSessionKey)
	}
	for _, want := range []string{`"name":"Anh Huy"`, `"role":"ADMIN"`, `"color":"#34495e"`} {
		if !strings.Contains(raw, want) {
			t.Errorf("stored record %s missing %s", raw, want)
		}
	}

	got := s.Load(context.Background())
	if got == nil {
		t.Fatalf("Load returned nil")
	}
	if !sameIdentity(*got, id) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", *got, id)
	}
}

func TestSessionStore_LoadAbsent(t *testing.T) {
	if got := newTestStore(newStubBackend()).Load(context.Background()); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestSessionStore_LoadMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":      `{{{`,
		"missing name":  `{"foo":1}`,
		"blank name":    `{"name":"   ","role":"USER"}`,
		"unknown role":  `{"name":"Lan","role":"OWNER"}`,
		"wrong type":    `{"name":42}`,
		"json null":     `null`,
		"empty payload": ``,
	}
	for label, payload := range cases {
		t.Run(label, func(t *testing.T) {
			b := newStubBackend()
			b.set(DefaultSessionKey, payload)
			if got := newTestStore(b).Load(context.Background()); got != nil {
				t.Fatalf("expected nil for %q, got %+v", payload, got)
			}
		})
	}
}

func TestSessionStore_LoadFillsDefaults(t *testing.T) {
	b := newStubBackend()
	b.set(DefaultSessionKey, `{"name":" Lan "}`)

	got := newTestStore(b).Load(context.Background())
	if got == nil {
		t.Fatalf("expected identity")
	}
	if got.Name != "Lan" {
		t.Errorf("expected trimmed name, got %q", got.Name)
	}
	if got.Role != domain.RoleUser {
		t.Errorf("expected USER role, got %s", got.Role)
	}
	if got.Color != domain.ColorFor("Lan", domain.DefaultPalette) {
		t.Errorf("expected recomputed color, got %s", got.Color)
	}
}

func TestSessionStore_BackendFailuresDegrade(t *testing.T) {
	b := newStubBackend()
	b.putErr = errors.New("disk full")
	b.getErr = errors.New("disk gone")
	b.deleteErr = errors.New("read-only")
	s := newTestStore(b)

	err := s.Save(context.Background(), domain.Identity{Name: "Lan", Role: domain.RoleUser})
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if got := s.Load(context.Background()); got != nil {
		t.Fatalf("expected nil on read failure, got %+v", got)
	}
	s.Clear(context.Background())
}

func TestSessionStore_Clear(t *testing.T) {
	b := newStubBackend()
	s := newTestStore(b)
	if err := s.Save(context.Background(), domain.Identity{Name: "Lan", Role: domain.RoleUser}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	s.Clear(context.Background())

	if _, ok := b.raw(DefaultSessionKey); ok {
		t.Fatalf("expected key removed")
	}
	if s.Load(context.Background()) != nil {
		t.Fatalf("expected nil after Clear")
	}
}

func TestSessionStore_EncodeFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	b := newStubBackend()
	s := NewSessionStore(b, "", nil, zerolog.New(&buf))
	s.encode = func(any) ([]byte, error) { return nil, errors.New("unsupported value") }

	err := s.Save(context.Background(), domain.Identity{Name: "Lan", Role: domain.RoleUser})
	if !errors.Is(err, domain.ErrStore) {
		t.Fatalf("expected ErrStore, got %v", err)
	}
	if b.puts != 0 {
		t.Fatalf("nothing should reach the backend, got %d puts", b.puts)
	}
	if !strings.Contains(buf.String(), `"level":"warn"`) || !strings.Contains(buf.String(), "failed to encode session") {
		t.Fatalf("expected warn log, got %s", buf.String())
	}
}
