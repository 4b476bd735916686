package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/huygym/membership-system/internal/core/domain"
	"github.com/huygym/membership-system/internal/core/ports"
	"github.com/huygym/membership-system/internal/pkg/metrics"
	"github.com/huygym/membership-system/pkg/logger"
)

// DefaultSessionKey is the storage key holding the serialized identity.
const DefaultSessionKey = "huygym_user"

// SessionStore persists a single identity record under a fixed key. Storage
// failures never reach the operator: a failed save only means the session
// will not survive a restart, and an unreadable record reads as "no session".
type SessionStore struct {
	backend ports.SessionBackend
	key     string
	palette []string
	log     zerolog.Logger
	encode  func(any) ([]byte, error)
}

// NewSessionStore returns a SessionStore over backend. An empty key falls back
// to DefaultSessionKey.
func NewSessionStore(backend ports.SessionBackend, key string, palette []string, log zerolog.Logger) *SessionStore {
	if key == "" {
		key = DefaultSessionKey
	}
	return &SessionStore{
		backend: backend,
		key:     key,
		palette: palette,
		log:     logger.Component(log, "session_store"),
		encode:  json.Marshal,
	}
}

// sessionRecord is the persisted layout. Only name is mandatory.
type sessionRecord struct {
	Name       string     `json:"name"`
	Role       string     `json:"role"`
	Color      string     `json:"color"`
	SessionID  string     `json:"session_id,omitempty"`
	LoggedInAt *time.Time `json:"logged_in_at,omitempty"`
}

// Key returns the storage key in use.
func (s *SessionStore) Key() string {
	return s.key
}

// Save serializes id and writes it under the session key.
func (s *SessionStore) Save(ctx context.Context, id domain.Identity) error {
	rec := sessionRecord{
		Name:      id.Name,
		Role:      string(id.Role),
		Color:     id.Color,
		SessionID: id.SessionID,
	}
	if !id.LoggedInAt.IsZero() {
		at := id.LoggedInAt.UTC()
		rec.LoggedInAt = &at
	}

	data, err := s.encode(rec)
	if err != nil {
		metrics.SessionStoreErrorsTotal.WithLabelValues("encode").Inc()
		s.log.Warn().Err(err).Str("key", s.key).Msg("failed to encode session, it will not survive a restart")
		return fmt.Errorf("save session: %w: %w", domain.ErrStore, err)
	}

	if err := s.backend.Put(ctx, s.key, data); err != nil {
		metrics.SessionStoreErrorsTotal.WithLabelValues("save").Inc()
		s.log.Warn().Err(err).Str("key", s.key).Msg("failed to persist session, it will not survive a restart")
		return fmt.Errorf("save session: %w: %w", domain.ErrStore, err)
	}
	return nil
}

// Load reads the stored identity. It returns nil when the record is absent,
// unreadable, malformed, or has no name.
func (s *SessionStore) Load(ctx context.Context) *domain.Identity {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ports.ErrKeyNotFound) {
			metrics.SessionStoreErrorsTotal.WithLabelValues("load").Inc()
			s.log.Warn().Err(err).Str("key", s.key).Msg("failed to read stored session")
		}
		return nil
	}

	id, err := decodeIdentity(data, s.palette)
	if err != nil {
		metrics.SessionStoreErrorsTotal.WithLabelValues("decode").Inc()
		s.log.Warn().Err(err).Str("key", s.key).Msg("discarding stored session")
		return nil
	}
	return id
}

// Clear removes the stored record.
func (s *SessionStore) Clear(ctx context.Context) {
	if err := s.backend.Delete(ctx, s.key); err != nil && !errors.Is(err, ports.ErrKeyNotFound) {
		metrics.SessionStoreErrorsTotal.WithLabelValues("clear").Inc()
		s.log.Warn().Err(err).Str("key", s.key).Msg("failed to clear stored session")
	}
}

func decodeIdentity(data []byte, palette []string) (*domain.Identity, error) {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedSession, err)
	}

	name := strings.TrimSpace(rec.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: missing name", domain.ErrMalformedSession)
	}

	role := domain.RoleUser
	if rec.Role != "" {
		parsed, ok := domain.ParseRole(rec.Role)
		if !ok {
			return nil, fmt.Errorf("%w: %w %q", domain.ErrMalformedSession, domain.ErrUnknownRole, rec.Role)
		}
		role = parsed
	}

	color := rec.Color
	if color == "" {
		color = domain.ColorFor(name, palette)
	}

	id := &domain.Identity{
		Name:      name,
		Role:      role,
		Color:     color,
		SessionID: rec.SessionID,
	}
	if rec.LoggedInAt != nil {
		id.LoggedInAt = rec.LoggedInAt.UTC()
	}
	return id, nil
}
