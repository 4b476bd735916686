package ports

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by a SessionBackend when the key holds no value.
var ErrKeyNotFound = errors.New("key not found")

// SessionBackend is durable key/value storage for the serialized session,
// the equivalent of browser local storage.
type SessionBackend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Pinger is implemented by dependencies that can report their health.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}
