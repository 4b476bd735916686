package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/huygym/membership-system/internal/core/ports"
)

const keyPrefix = "session:"

// SessionBackend stores the serialized session in Redis.
// Key format: session:<storage key>. Keys carry no TTL: a stored session is
// trusted until logout.
type SessionBackend struct {
	client *redis.Client
}

var _ ports.SessionBackend = (*SessionBackend)(nil)

// NewSessionBackend wraps the given Redis client.
func NewSessionBackend(client *redis.Client) *SessionBackend {
	return &SessionBackend{client: client}
}

func (b *SessionBackend) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := b.client.Get(ctx, b.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ports.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return v, nil
}

func (b *SessionBackend) Put(ctx context.Context, key string, value []byte) error {
	if err := b.client.Set(ctx, b.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *SessionBackend) Delete(ctx context.Context, key string) error {
	if err := b.client.Del(ctx, b.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Name implements ports.Pinger.
func (b *SessionBackend) Name() string { return "redis" }

// Ping implements ports.Pinger.
func (b *SessionBackend) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *SessionBackend) key(key string) string {
	return keyPrefix + key
}
