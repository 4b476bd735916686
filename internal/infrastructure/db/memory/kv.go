// Package memory provides a process-local session backend. Stored sessions do
// not survive a restart.
package memory

import (
	"context"
	"sync"

	"github.com/huygym/membership-system/internal/core/ports"
)

// KV is a mutex-guarded map implementing ports.SessionBackend.
type KV struct {
	mu    sync.RWMutex
	items map[string][]byte
}

var _ ports.SessionBackend = (*KV)(nil)

func NewKV() *KV {
	return &KV{items: make(map[string][]byte)}
}

func (m *KV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	if !ok {
		return nil, ports.ErrKeyNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *KV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = append([]byte(nil), value...)
	return nil
}

func (m *KV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
